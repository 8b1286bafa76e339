// Package scheduler 定时执行数据维护任务。
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StockReview/pkg/config"
	"StockReview/pkg/service"
)

// Scheduler 任务调度器
type Scheduler struct {
	cron *cron.Cron
	svcs *service.Services
	cfg  config.SchedulerConfig
}

// NewScheduler 创建任务调度器
func NewScheduler(svcs *service.Services, cfg config.SchedulerConfig) *Scheduler {
	if cfg.CleanupSpec == "" {
		cfg.CleanupSpec = "@every 1h"
	}
	if cfg.SyncSpec == "" {
		cfg.SyncSpec = "@every 5m"
	}
	return &Scheduler{
		cron: cron.New(),
		svcs: svcs,
		cfg:  cfg,
	}
}

// Start 注册任务并启动调度器
func (s *Scheduler) Start() error {
	// 清理过期分享
	if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, s.purgeShares); err != nil {
		return fmt.Errorf("注册清理任务失败: %w", err)
	}
	// 记录同步时间
	if _, err := s.cron.AddFunc(s.cfg.SyncSpec, s.stampSync); err != nil {
		return fmt.Errorf("注册同步任务失败: %w", err)
	}
	s.cron.Start()
	log.Info().Str("cleanup", s.cfg.CleanupSpec).Str("sync", s.cfg.SyncSpec).Msg("调度器已启动")
	return nil
}

// Stop 停止调度器，等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeShares() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := s.svcs.Export.PurgeExpiredShares(ctx)
	if err != nil {
		log.Error().Err(err).Msg("清理过期分享失败")
		return
	}
	log.Debug().Int("count", n).Msg("清理过期分享完成")
}

func (s *Scheduler) stampSync() {
	t := s.svcs.User.UpdateLastSyncTime()
	log.Debug().Time("at", t).Msg("更新同步时间")
}
