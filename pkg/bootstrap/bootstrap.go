// Package bootstrap 负责首次启动时的数据初始化和示例数据写入。
package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"StockReview/pkg/kvstore"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/service"
)

// Initializer 数据初始化器
type Initializer struct {
	db   *recordstore.DB
	kv   *kvstore.Store
	svcs *service.Services
	now  service.Clock

	mu     sync.Mutex
	group  singleflight.Group
	done   atomic.Bool
	seeded atomic.Bool
}

// New 创建初始化器
func New(db *recordstore.DB, svcs *service.Services, now service.Clock) *Initializer {
	if now == nil {
		now = time.Now
	}
	return &Initializer{db: db, kv: svcs.KV, svcs: svcs, now: now}
}

// Init 初始化记录存储和用户设置，存储为空时写入示例数据。
// 并发调用共享同一次执行，完成后再次调用直接返回
func (i *Initializer) Init(ctx context.Context) error {
	if i.done.Load() {
		return nil
	}
	_, err, _ := i.group.Do("init", func() (any, error) {
		i.mu.Lock()
		defer i.mu.Unlock()
		if i.done.Load() {
			return nil, nil
		}
		if err := i.run(ctx); err != nil {
			return nil, err
		}
		i.done.Store(true)
		return nil, nil
	})
	return err
}

func (i *Initializer) run(ctx context.Context) error {
	log.Info().Msg("开始初始化数据服务")
	if err := i.db.Init(ctx); err != nil {
		return fmt.Errorf("初始化记录存储失败: %w", err)
	}
	if err := i.svcs.User.InitUserSettings(ctx); err != nil {
		return err
	}
	if i.needSampleData(ctx) {
		if err := i.seed(ctx); err != nil {
			return fmt.Errorf("初始化示例数据失败: %w", err)
		}
		i.seeded.Store(true)
	}
	log.Info().Bool("seeded", i.seeded.Load()).Msg("数据服务初始化完成")
	return nil
}

// needSampleData 已有指数数据时不再写入示例数据，检查失败时按空库处理
func (i *Initializer) needSampleData(ctx context.Context) bool {
	indices, err := i.svcs.Market.GetMarketIndices(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("检查示例数据失败")
		return true
	}
	return len(indices) == 0
}

// Done 是否已完成初始化
func (i *Initializer) Done() bool { return i.done.Load() }

// Seeded 本轮初始化是否写入了示例数据
func (i *Initializer) Seeded() bool { return i.seeded.Load() }

// ClearAll 清空所有集合和键值存储，并重置初始化状态
func (i *Initializer) ClearAll(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	log.Info().Msg("开始清理所有数据")
	for _, c := range i.db.Collections() {
		if err := i.db.Clear(ctx, c); err != nil {
			return fmt.Errorf("清理集合 %s 失败: %w", c, err)
		}
	}
	if !i.kv.Clear() {
		log.Warn().Msg("清理键值存储失败")
	}
	i.done.Store(false)
	i.seeded.Store(false)
	log.Info().Msg("所有数据清理完成")
	return nil
}
