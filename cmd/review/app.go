package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"StockReview/pkg/bootstrap"
	"StockReview/pkg/config"
	"StockReview/pkg/kvstore"
	"StockReview/pkg/logger"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/report"
	"StockReview/pkg/service"
)

var (
	configPath = flag.String("config", "", "配置文件路径，缺省时按 CONFIG_PATH / APP_ENV 查找")
	matching   = flag.String("matching", "", "卖出匹配策略 (first_buy, fifo_lots)，覆盖配置")
	verbose    = flag.Bool("v", false, "输出调试日志")
)

var cfg *config.Config

// setup 加载配置并初始化日志，在解析完全局参数后调用
func setup() {
	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	var err error
	cfg, err = config.LoadConfig(path)
	if err != nil {
		cfg = config.Default()
	}
	if *matching != "" {
		cfg.Trade.Matching = *matching
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Setup(level, true)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("加载配置失败，使用默认配置")
	}
}

// app 命令共用的存储和服务
type app struct {
	db     *recordstore.DB
	svcs   *service.Services
	initer *bootstrap.Initializer
}

func openApp() (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := recordstore.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}
	svcs := service.New(db, kvstore.Open(cfg.KV.Path), service.OptionsFromConfig(cfg))
	return &app{db: db, svcs: svcs, initer: bootstrap.New(db, svcs, nil)}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("关闭记录存储失败")
	}
}

// printMarkdown 在终端渲染 Markdown，raw 时原样输出
func printMarkdown(md string, raw bool) {
	if raw {
		fmt.Print(md)
		return
	}
	out, err := report.Terminal(md, 0)
	if err != nil {
		log.Warn().Err(err).Msg("终端渲染失败，输出原始 Markdown")
		fmt.Print(md)
		return
	}
	fmt.Fprint(os.Stdout, out)
}
