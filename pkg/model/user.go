// pkg/model/user.go
package model

import (
	"time"
)

// SettingsID 用户设置的固定主键
const SettingsID = "user_settings"

// Theme 界面主题
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid 是否为已知主题
func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

// DefaultModule 默认首页模块
const DefaultModule = "marketOverview"

// UserSettings 用户设置
type UserSettings struct {
	ID                   string                `json:"id"`
	Theme                Theme                 `json:"theme"`
	DefaultModule        string                `json:"defaultModule"`
	FavoriteStocks       []string              `json:"favoriteStocks"`
	FavoriteSectors      []string              `json:"favoriteSectors"`
	ChartPreferences     *ChartPreferences     `json:"chartPreferences"`
	NotificationSettings *NotificationSettings `json:"notificationSettings"`
	LastUpdated          time.Time             `json:"lastUpdated"`
}

// ChartPreferences 图表偏好
type ChartPreferences struct {
	KlineType        string `json:"klineType"`
	IndicatorVisible bool   `json:"indicatorVisible"`
	VolumeVisible    bool   `json:"volumeVisible"`
	MAVisible        bool   `json:"maVisible"`
	MACDVisible      bool   `json:"macdVisible"`
	KDJVisible       bool   `json:"kdjVisible"`
}

// NotificationSettings 通知偏好
type NotificationSettings struct {
	Enabled            bool `json:"enabled"`
	MarketOpen         bool `json:"marketOpen"`
	MarketClose        bool `json:"marketClose"`
	FavoriteStockAlert bool `json:"favoriteStockAlert"`
	LimitUpDown        bool `json:"limitUpDown"`
}

// KnowledgeType 知识条目类型
type KnowledgeType string

const (
	KnowledgeNote   KnowledgeType = "笔记"
	KnowledgeRule   KnowledgeType = "规则"
	KnowledgeLesson KnowledgeType = "经验"
	KnowledgeWarn   KnowledgeType = "教训"
)

// Valid 是否为已知类型
func (k KnowledgeType) Valid() bool {
	switch k {
	case KnowledgeNote, KnowledgeRule, KnowledgeLesson, KnowledgeWarn:
		return true
	}
	return false
}

// KnowledgeEntry 知识库条目
type KnowledgeEntry struct {
	ID             int64         `json:"id,omitempty"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	Type           KnowledgeType `json:"type"`
	Tags           []string      `json:"tags"`
	RelatedStocks  []string      `json:"relatedStocks"`
	RelatedSectors []string      `json:"relatedSectors"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}
