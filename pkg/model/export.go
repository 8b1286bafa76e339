package model

import (
	"time"
)

// ExportFormat 导出格式
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
	FormatHTML     ExportFormat = "html"
)

// Valid 是否为支持的格式
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatHTML:
		return true
	}
	return false
}

// ExportRecord 导出历史
type ExportRecord struct {
	ID      int64        `json:"id,omitempty"`
	Type    string       `json:"type"`
	Format  ExportFormat `json:"format"`
	Title   string       `json:"title"`
	Date    time.Time    `json:"date"`
	Content string       `json:"content"`
	Size    int          `json:"size"`
}

// SharedExport 导出分享链接
type SharedExport struct {
	ID         int64     `json:"id,omitempty"`
	OriginalID int64     `json:"originalId"`
	Token      string    `json:"token"`
	SharedAt   time.Time `json:"sharedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired 在 now 时刻是否已过期
func (s SharedExport) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
