// Package service 提供市场、个股、交易、用户/知识库和导出等数据服务。
package service

import (
	"time"

	"StockReview/pkg/config"
	"StockReview/pkg/kvstore"
	"StockReview/pkg/recordstore"
)

// Clock 当前时间
type Clock func() time.Time

// Options 服务选项
type Options struct {
	Clock    Clock
	Matching MatchPolicy
	ShareTTL time.Duration
}

// OptionsFromConfig 从配置生成服务选项
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Matching: MatchPolicy(cfg.Trade.Matching),
		ShareTTL: cfg.Export.ShareTTL,
	}
}

// Services 全部数据服务，进程内只创建一次
type Services struct {
	Records recordstore.Store
	KV      *kvstore.Store

	Market *MarketService
	Stock  *StockService
	Trade  *TradeService
	User   *UserService
	Export *ExportService
}

// New 创建全部数据服务
func New(records recordstore.Store, kv *kvstore.Store, opts Options) *Services {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Matching == "" {
		opts.Matching = MatchFirstBuy
	}
	if opts.ShareTTL <= 0 {
		opts.ShareTTL = 7 * 24 * time.Hour
	}

	user := NewUserService(records, kv, opts.Clock)
	stock := NewStockService(records, kv, user, opts.Clock)
	return &Services{
		Records: records,
		KV:      kv,
		Market:  NewMarketService(records, stock, opts.Clock),
		Stock:   stock,
		Trade:   NewTradeService(records, opts.Matching, opts.Clock),
		User:    user,
		Export:  NewExportService(records, user, opts.ShareTTL, opts.Clock),
	}
}
