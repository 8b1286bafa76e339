package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"StockReview/pkg/model"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/report"
)

// ExportService 知识库导出与分享
type ExportService struct {
	history *recordstore.Typed[model.ExportRecord]
	shares  *recordstore.Typed[model.SharedExport]
	user    *UserService
	ttl     time.Duration
	now     Clock
}

// NewExportService 创建导出服务
func NewExportService(records recordstore.Store, user *UserService, ttl time.Duration, now Clock) *ExportService {
	return &ExportService{
		history: recordstore.NewTyped[model.ExportRecord](records, recordstore.ExportHistory),
		shares:  recordstore.NewTyped[model.SharedExport](records, recordstore.SharedExports),
		user:    user,
		ttl:     ttl,
		now:     now,
	}
}

// ExportKnowledge 按格式导出全部知识条目并记录导出历史
func (s *ExportService) ExportKnowledge(ctx context.Context, format model.ExportFormat) (model.ExportRecord, error) {
	if !format.Valid() {
		return model.ExportRecord{}, invalid("format", fmt.Sprintf("不支持的导出格式 %q", format))
	}
	entries, err := s.user.GetKnowledgeEntries(ctx)
	if err != nil {
		return model.ExportRecord{}, err
	}

	now := s.now()
	var content string
	switch format {
	case model.FormatJSON:
		content, err = report.KnowledgeJSON(entries)
	case model.FormatMarkdown:
		content = report.KnowledgeMarkdown(entries, now)
	case model.FormatHTML:
		content, err = report.HTML(report.KnowledgeMarkdown(entries, now))
	}
	if err != nil {
		return model.ExportRecord{}, err
	}

	rec := model.NewExportRecord(model.ExportRecord{
		Type:    "knowledge",
		Format:  format,
		Title:   fmt.Sprintf("知识库导出 %s", now.Format("2006-01-02 15:04")),
		Date:    now,
		Content: content,
	}, now)
	key, err := s.history.Add(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("保存导出记录失败: %w", err)
	}
	if rec.ID, err = key.Int64(); err != nil {
		return rec, fmt.Errorf("保存导出记录失败: %w", err)
	}
	log.Info().Int64("id", rec.ID).Str("format", string(format)).Int("entries", len(entries)).Msg("导出知识库")
	return rec, nil
}

// GetExport 获取单条导出记录
func (s *ExportService) GetExport(ctx context.Context, id int64) (model.ExportRecord, error) {
	rec, ok, err := s.history.Get(ctx, recordstore.IntKey(id))
	if err != nil {
		return rec, fmt.Errorf("获取导出记录失败: %w", err)
	}
	if !ok {
		return rec, notFound("导出记录", id)
	}
	return rec, nil
}

// GetExportHistory 导出历史，按日期降序
func (s *ExportService) GetExportHistory(ctx context.Context) ([]model.ExportRecord, error) {
	list, err := s.history.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取导出历史失败: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list, nil
}

// DeleteExport 删除导出记录
func (s *ExportService) DeleteExport(ctx context.Context, id int64) error {
	if err := s.history.Delete(ctx, recordstore.IntKey(id)); err != nil {
		return fmt.Errorf("删除导出记录失败: %w", err)
	}
	return nil
}

// ShareExport 为导出记录生成分享令牌，ttl<=0 时使用默认有效期
func (s *ExportService) ShareExport(ctx context.Context, id int64, ttl time.Duration) (model.SharedExport, error) {
	if _, err := s.GetExport(ctx, id); err != nil {
		return model.SharedExport{}, err
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	share := model.SharedExport{
		OriginalID: id,
		Token:      uuid.NewString(),
		SharedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
	key, err := s.shares.Add(ctx, share)
	if err != nil {
		return share, fmt.Errorf("保存分享记录失败: %w", err)
	}
	if share.ID, err = key.Int64(); err != nil {
		return share, fmt.Errorf("保存分享记录失败: %w", err)
	}
	return share, nil
}

// GetSharedExport 通过分享令牌获取导出内容，令牌不存在或已过期时返回 NotFoundError
func (s *ExportService) GetSharedExport(ctx context.Context, token string) (model.ExportRecord, error) {
	shares, err := s.shares.ByIndex(ctx, "token", token)
	if err != nil {
		return model.ExportRecord{}, fmt.Errorf("查询分享记录失败: %w", err)
	}
	if len(shares) == 0 || shares[0].Expired(s.now()) {
		return model.ExportRecord{}, notFound("分享", token)
	}
	return s.GetExport(ctx, shares[0].OriginalID)
}

// PurgeExpiredShares 删除已过期的分享记录，返回删除数量
func (s *ExportService) PurgeExpiredShares(ctx context.Context) (int, error) {
	shares, err := s.shares.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("获取分享记录失败: %w", err)
	}
	now := s.now()
	purged := 0
	for _, share := range shares {
		if !share.Expired(now) {
			continue
		}
		if err := s.shares.Delete(ctx, recordstore.IntKey(share.ID)); err != nil {
			return purged, fmt.Errorf("删除分享记录失败: %w", err)
		}
		purged++
	}
	if purged > 0 {
		log.Info().Int("count", purged).Msg("清理过期分享")
	}
	return purged, nil
}
