// pkg/service/user.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"StockReview/pkg/kvstore"
	"StockReview/pkg/model"
	"StockReview/pkg/recordstore"
)

// UserService 用户设置、登录状态、知识库
type UserService struct {
	settings  *recordstore.Typed[model.UserSettings]
	knowledge *recordstore.Typed[model.KnowledgeEntry]
	kv        *kvstore.Store
	now       Clock
}

// NewUserService 创建用户数据服务
func NewUserService(records recordstore.Store, kv *kvstore.Store, now Clock) *UserService {
	return &UserService{
		settings:  recordstore.NewTyped[model.UserSettings](records, recordstore.UserSettings),
		knowledge: recordstore.NewTyped[model.KnowledgeEntry](records, recordstore.Knowledge),
		kv:        kv,
		now:       now,
	}
}

// SettingsPatch 用户设置的部分更新，nil 字段保持不变
type SettingsPatch struct {
	Theme                *model.Theme                `json:"theme"`
	DefaultModule        *string                     `json:"defaultModule"`
	FavoriteStocks       []string                    `json:"favoriteStocks"`
	FavoriteSectors      []string                    `json:"favoriteSectors"`
	ChartPreferences     *model.ChartPreferences     `json:"chartPreferences"`
	NotificationSettings *model.NotificationSettings `json:"notificationSettings"`
}

// validateSettings 主键、主题、默认模块必须存在，主题只能是 light/dark，自选列表必须是数组
func validateSettings(s model.UserSettings) error {
	switch {
	case s.ID == "":
		return invalid("id", "不能为空")
	case s.Theme == "":
		return invalid("theme", "不能为空")
	case !s.Theme.Valid():
		return invalid("theme", fmt.Sprintf("无效的主题设置 %q", s.Theme))
	case s.DefaultModule == "":
		return invalid("defaultModule", "不能为空")
	case s.FavoriteStocks == nil:
		return invalid("favoriteStocks", "必须是数组")
	case s.FavoriteSectors == nil:
		return invalid("favoriteSectors", "必须是数组")
	}
	return nil
}

// InitUserSettings 键值存储中没有有效设置时写入默认设置
func (s *UserService) InitUserSettings(ctx context.Context) error {
	var local model.UserSettings
	if s.kv.Get(kvstore.KeyUserPreferences, &local) && validateSettings(local) == nil {
		return nil
	}
	defaults := model.DefaultUserSettings(s.now())
	s.kv.Save(kvstore.KeyUserPreferences, defaults)
	if _, err := s.settings.Put(ctx, defaults); err != nil {
		return fmt.Errorf("初始化用户设置失败: %w", err)
	}
	log.Info().Msg("写入默认用户设置")
	return nil
}

// GetUserSettings 优先读取键值存储，其次记录存储，都无效时返回默认设置
func (s *UserService) GetUserSettings(ctx context.Context) model.UserSettings {
	var local model.UserSettings
	if s.kv.Get(kvstore.KeyUserPreferences, &local) && validateSettings(local) == nil {
		return local
	}
	stored, ok, err := s.settings.Get(ctx, model.SettingsID)
	if err != nil {
		log.Warn().Err(err).Msg("读取用户设置失败，使用默认设置")
	} else if ok && validateSettings(stored) == nil {
		return stored
	}
	return model.DefaultUserSettings(s.now())
}

// UpdateUserSettings 合并部分设置，校验后同时写入两个存储
func (s *UserService) UpdateUserSettings(ctx context.Context, patch SettingsPatch) (model.UserSettings, error) {
	next := s.GetUserSettings(ctx)
	if patch.Theme != nil {
		next.Theme = *patch.Theme
	}
	if patch.DefaultModule != nil {
		next.DefaultModule = *patch.DefaultModule
	}
	if patch.FavoriteStocks != nil {
		next.FavoriteStocks = patch.FavoriteStocks
	}
	if patch.FavoriteSectors != nil {
		next.FavoriteSectors = patch.FavoriteSectors
	}
	if patch.ChartPreferences != nil {
		p := *patch.ChartPreferences
		next.ChartPreferences = &p
	}
	if patch.NotificationSettings != nil {
		n := *patch.NotificationSettings
		next.NotificationSettings = &n
	}
	next.LastUpdated = s.now()

	if err := validateSettings(next); err != nil {
		return next, err
	}
	if !s.kv.Save(kvstore.KeyUserPreferences, next) {
		log.Warn().Msg("保存用户设置到键值存储失败")
	}
	// 自选股判断只读快速键，两处保持一致
	if patch.FavoriteStocks != nil && !s.kv.Save(kvstore.KeyFavoriteStocks, next.FavoriteStocks) {
		log.Warn().Msg("保存自选股失败")
	}
	if _, err := s.settings.Put(ctx, next); err != nil {
		return next, fmt.Errorf("更新用户设置失败: %w", err)
	}
	return next, nil
}

// GetTheme 当前主题
func (s *UserService) GetTheme(ctx context.Context) model.Theme {
	if theme := s.GetUserSettings(ctx).Theme; theme != "" {
		return theme
	}
	return model.ThemeLight
}

// SetTheme 设置主题
func (s *UserService) SetTheme(ctx context.Context, theme model.Theme) error {
	if !theme.Valid() {
		return invalid("theme", fmt.Sprintf("无效的主题设置 %q", theme))
	}
	if _, err := s.UpdateUserSettings(ctx, SettingsPatch{Theme: &theme}); err != nil {
		return err
	}
	s.kv.Save(kvstore.KeyTheme, theme)
	return nil
}

// GetDefaultModule 默认首页模块
func (s *UserService) GetDefaultModule(ctx context.Context) string {
	if module := s.GetUserSettings(ctx).DefaultModule; module != "" {
		return module
	}
	return model.DefaultModule
}

// SetDefaultModule 设置默认首页模块
func (s *UserService) SetDefaultModule(ctx context.Context, module string) error {
	module = strings.TrimSpace(module)
	if module == "" {
		return invalid("defaultModule", "不能为空")
	}
	if _, err := s.UpdateUserSettings(ctx, SettingsPatch{DefaultModule: &module}); err != nil {
		return err
	}
	s.kv.Save(kvstore.KeyDefaultModule, module)
	return nil
}

// GetLastSyncTime 上次同步时间，从未同步时 ok 为 false
func (s *UserService) GetLastSyncTime() (time.Time, bool) {
	raw, ok := s.kv.GetString(kvstore.KeyLastSyncTime)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// UpdateLastSyncTime 记录当前时间为同步时间
func (s *UserService) UpdateLastSyncTime() time.Time {
	t := s.now().UTC()
	s.kv.Save(kvstore.KeyLastSyncTime, t.Format(time.RFC3339Nano))
	return t
}

// Login 本地登录，同一用户名总是得到同一个用户 ID
func (s *UserService) Login(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", invalid("username", "不能为空")
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(username)).String()
	if !s.kv.Save(kvstore.KeyCurrentUserID, id) {
		log.Warn().Str("user", username).Msg("保存登录状态失败")
	}
	return id, nil
}

// Logout 退出登录
func (s *UserService) Logout() {
	s.kv.Remove(kvstore.KeyCurrentUserID)
}

// CurrentUserID 当前登录用户
func (s *UserService) CurrentUserID() (string, bool) {
	return s.kv.GetString(kvstore.KeyCurrentUserID)
}

func validateKnowledge(e model.KnowledgeEntry) error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", "不能为空")
	}
	if !e.Type.Valid() {
		return invalid("type", fmt.Sprintf("未知的知识类型 %q", e.Type))
	}
	return nil
}

// SaveKnowledgeEntry 保存知识条目并返回分配的 ID
func (s *UserService) SaveKnowledgeEntry(ctx context.Context, in model.KnowledgeEntry) (int64, error) {
	now := s.now()
	in.ID = 0
	in.CreatedAt, in.UpdatedAt = now, now
	entry := model.NewKnowledgeEntry(in, now)
	if err := validateKnowledge(entry); err != nil {
		return 0, err
	}
	key, err := s.knowledge.Add(ctx, entry)
	if err != nil {
		return 0, fmt.Errorf("保存知识条目失败: %w", err)
	}
	return key.Int64()
}

// GetKnowledgeEntry 获取单个知识条目
func (s *UserService) GetKnowledgeEntry(ctx context.Context, id int64) (model.KnowledgeEntry, error) {
	entry, ok, err := s.knowledge.Get(ctx, recordstore.IntKey(id))
	if err != nil {
		return entry, fmt.Errorf("获取知识条目失败: %w", err)
	}
	if !ok {
		return entry, notFound("知识条目", id)
	}
	return entry, nil
}

func byCreatedDesc(entries []model.KnowledgeEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
}

// GetKnowledgeEntries 获取全部知识条目，按创建时间降序
func (s *UserService) GetKnowledgeEntries(ctx context.Context) ([]model.KnowledgeEntry, error) {
	entries, err := s.knowledge.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取知识条目失败: %w", err)
	}
	byCreatedDesc(entries)
	return entries, nil
}

func (s *UserService) filterKnowledge(ctx context.Context, keep func(model.KnowledgeEntry) bool) ([]model.KnowledgeEntry, error) {
	entries, err := s.GetKnowledgeEntries(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]model.KnowledgeEntry, 0)
	for _, e := range entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

// SearchKnowledge 按标题或内容搜索，不区分大小写
func (s *UserService) SearchKnowledge(ctx context.Context, keyword string) ([]model.KnowledgeEntry, error) {
	keyword = strings.ToLower(keyword)
	return s.filterKnowledge(ctx, func(e model.KnowledgeEntry) bool {
		return strings.Contains(strings.ToLower(e.Title), keyword) ||
			strings.Contains(strings.ToLower(e.Content), keyword)
	})
}

// SearchKnowledgeByTitle 按标题搜索，不区分大小写
func (s *UserService) SearchKnowledgeByTitle(ctx context.Context, title string) ([]model.KnowledgeEntry, error) {
	title = strings.ToLower(title)
	return s.filterKnowledge(ctx, func(e model.KnowledgeEntry) bool {
		return strings.Contains(strings.ToLower(e.Title), title)
	})
}

// GetKnowledgeByTag 按标签精确匹配
func (s *UserService) GetKnowledgeByTag(ctx context.Context, tag string) ([]model.KnowledgeEntry, error) {
	entries, err := s.knowledge.ByIndex(ctx, "tags", tag)
	if err != nil {
		return nil, fmt.Errorf("按标签查询知识条目失败: %w", err)
	}
	byCreatedDesc(entries)
	return entries, nil
}

// UpdateKnowledgeEntry 更新知识条目，保留创建时间并刷新更新时间
func (s *UserService) UpdateKnowledgeEntry(ctx context.Context, in model.KnowledgeEntry) (model.KnowledgeEntry, error) {
	existing, err := s.GetKnowledgeEntry(ctx, in.ID)
	if err != nil {
		return model.KnowledgeEntry{}, err
	}
	now := s.now()
	in.CreatedAt = existing.CreatedAt
	in.UpdatedAt = now
	entry := model.NewKnowledgeEntry(in, now)
	if err := validateKnowledge(entry); err != nil {
		return entry, err
	}
	if _, err := s.knowledge.Put(ctx, entry); err != nil {
		return entry, fmt.Errorf("更新知识条目失败: %w", err)
	}
	return entry, nil
}

// DeleteKnowledgeEntry 删除知识条目
func (s *UserService) DeleteKnowledgeEntry(ctx context.Context, id int64) error {
	if err := s.knowledge.Delete(ctx, recordstore.IntKey(id)); err != nil {
		return fmt.Errorf("删除知识条目失败: %w", err)
	}
	return nil
}

// KnowledgeStats 知识库统计
type KnowledgeStats struct {
	Total   int                         `json:"total"`
	ByType  map[model.KnowledgeType]int `json:"byType"`
	ByMonth []MonthCount                `json:"byMonth"`
	TopTags []TagCount                  `json:"topTags"`
}

// MonthCount 每月新增条目数
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// TagCount 标签使用次数
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// GetKnowledgeStats 按类型、月份、标签统计知识条目
func (s *UserService) GetKnowledgeStats(ctx context.Context) (KnowledgeStats, error) {
	entries, err := s.GetKnowledgeEntries(ctx)
	if err != nil {
		return KnowledgeStats{}, err
	}
	stats := KnowledgeStats{Total: len(entries), ByType: map[model.KnowledgeType]int{}}
	months := map[string]int{}
	tags := map[string]int{}
	for _, e := range entries {
		stats.ByType[e.Type]++
		months[e.CreatedAt.Format("2006-01")]++
		for _, t := range e.Tags {
			tags[t]++
		}
	}

	stats.ByMonth = make([]MonthCount, 0, len(months))
	for m, n := range months {
		stats.ByMonth = append(stats.ByMonth, MonthCount{Month: m, Count: n})
	}
	sort.Slice(stats.ByMonth, func(i, j int) bool { return stats.ByMonth[i].Month < stats.ByMonth[j].Month })

	stats.TopTags = make([]TagCount, 0, len(tags))
	for t, n := range tags {
		stats.TopTags = append(stats.TopTags, TagCount{Tag: t, Count: n})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		if stats.TopTags[i].Count != stats.TopTags[j].Count {
			return stats.TopTags[i].Count > stats.TopTags[j].Count
		}
		return stats.TopTags[i].Tag < stats.TopTags[j].Tag
	})
	if len(stats.TopTags) > 10 {
		stats.TopTags = stats.TopTags[:10]
	}
	return stats, nil
}
