package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"StockReview/pkg/api"
	"StockReview/pkg/bootstrap"
	"StockReview/pkg/config"
	"StockReview/pkg/kvstore"
	"StockReview/pkg/logger"
	"StockReview/pkg/monitor"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/scheduler"
	"StockReview/pkg/service"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("API服务启动失败")
		os.Exit(1)
	}
}

// run 启动服务，返回前执行全部清理
func run() error {
	// 加载配置
	cfg, err := config.LoadConfig(config.GetConfigPath())
	if err != nil {
		log.Warn().Err(err).Msg("加载配置失败，使用默认配置")
		cfg = config.Default()
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Str("env", cfg.App.Env).Str("storage", cfg.Storage.Driver).Msg("启动API服务...")

	// 创建存储
	db, err := recordstore.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("打开记录存储失败: %w", err)
	}
	defer db.Close()
	kv := kvstore.Open(cfg.KV.Path)

	svcs := service.New(db, kv, service.OptionsFromConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始化数据
	initer := bootstrap.New(db, svcs, nil)
	if err := initer.Init(ctx); err != nil {
		log.Error().Err(err).Msg("数据初始化失败，可通过 /api/v1/admin/init 重试")
	}

	// 组件健康检查
	mon := monitor.NewMonitor(nil)
	mon.RegisterComponent("recordstore", func(ctx context.Context) error {
		_, err := db.Count(ctx, recordstore.MarketIndices)
		return err
	})
	mon.RegisterComponent("kvstore", func(context.Context) error {
		if !kv.HasKey(kvstore.KeyUserPreferences) {
			return errors.New("用户设置未初始化")
		}
		return nil
	})
	mon.CheckAll(ctx)
	mon.StartChecking(ctx, 30*time.Second)

	// 定时任务
	sched := scheduler.NewScheduler(svcs, cfg.Scheduler)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("启动调度器失败: %w", err)
	}
	defer sched.Stop()

	// 创建并启动服务器
	server := api.NewServer(cfg)
	server.SetupRoutes(api.NewHandlers(svcs, initer, mon))
	if err := server.Start(); err != nil {
		return fmt.Errorf("API服务异常退出: %w", err)
	}
	return nil
}
