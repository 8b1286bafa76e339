// Package recordstore 按集合保存带主键的 JSON 记录，支持二级索引查询。
package recordstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Store 记录存储
type Store interface {
	// Add 插入记录，主键已存在时返回 ErrDuplicateKey；自增集合返回分配的主键
	Add(ctx context.Context, collection string, record []byte) (Key, error)
	// Get 按主键读取，不存在时返回 ok=false
	Get(ctx context.Context, collection string, key Key) (record []byte, ok bool, err error)
	GetAll(ctx context.Context, collection string) ([][]byte, error)
	// GetByIndex 返回索引字段等于 value 的记录，多值索引只要数组包含 value 即匹配
	GetByIndex(ctx context.Context, collection, index string, value any) ([][]byte, error)
	// Update 按主键整体覆盖，记录不存在时插入
	Update(ctx context.Context, collection string, record []byte) (Key, error)
	// Delete 按主键删除，不存在时不做任何事
	Delete(ctx context.Context, collection string, key Key) error
	Clear(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}

// Engine 存储引擎，收到的记录已经通过校验
type Engine interface {
	Migrate(ctx context.Context, schemas []Schema) error
	// Insert 写入记录，overwrite 为 false 时主键冲突返回 ErrDuplicateKey。
	// 自增集合中未带主键的记录由引擎在同一事务内分配主键
	Insert(ctx context.Context, s Schema, d *document, overwrite bool) (Key, error)
	Get(ctx context.Context, s Schema, key Key) ([]byte, bool, error)
	All(ctx context.Context, s Schema) ([][]byte, error)
	ByIndex(ctx context.Context, s Schema, index IndexSchema, value string) ([][]byte, error)
	Delete(ctx context.Context, s Schema, key Key) error
	Clear(ctx context.Context, s Schema) error
	Count(ctx context.Context, s Schema) (int, error)
	Close() error
}

// DB 记录存储实现：首次操作时初始化集合，并发的首次调用共享同一次初始化
type DB struct {
	engine  Engine
	schemas map[string]Schema
	order   []Schema

	group  singleflight.Group
	ready  atomic.Bool
	closed atomic.Bool
}

// New 用指定引擎和集合定义创建记录存储
func New(engine Engine, schemas ...Schema) *DB {
	if len(schemas) == 0 {
		schemas = DefaultSchemas()
	}
	db := &DB{engine: engine, schemas: make(map[string]Schema, len(schemas)), order: schemas}
	for _, s := range schemas {
		db.schemas[s.Name] = s
	}
	return db
}

// Init 初始化所有集合，可重复调用
func (db *DB) Init(ctx context.Context) error {
	if db.closed.Load() {
		return wrap("初始化", "", ErrClosed)
	}
	if db.ready.Load() {
		return nil
	}
	// 并发调用共享同一次迁移，迁移不随首个调用方取消
	_, err, _ := db.group.Do("init", func() (any, error) {
		if db.ready.Load() {
			return nil, nil
		}
		if err := db.engine.Migrate(context.WithoutCancel(ctx), db.order); err != nil {
			return nil, err
		}
		db.ready.Store(true)
		log.Debug().Int("collections", len(db.order)).Msg("记录存储初始化完成")
		return nil, nil
	})
	return wrap("初始化", "", err)
}

// Collections 返回所有集合名称
func (db *DB) Collections() []string {
	names := make([]string, 0, len(db.order))
	for _, s := range db.order {
		names = append(names, s.Name)
	}
	return names
}

// Ready 是否已完成初始化
func (db *DB) Ready() bool { return db.ready.Load() }

func (db *DB) prepare(ctx context.Context, op, collection string) (Schema, error) {
	if err := db.Init(ctx); err != nil {
		return Schema{}, err
	}
	if db.closed.Load() {
		return Schema{}, wrap(op, collection, ErrClosed)
	}
	s, ok := db.schemas[collection]
	if !ok {
		return Schema{}, wrap(op, collection, ErrUnknownCollection)
	}
	return s, nil
}

func (db *DB) Add(ctx context.Context, collection string, record []byte) (Key, error) {
	return db.write(ctx, "添加记录", collection, record, false)
}

func (db *DB) Update(ctx context.Context, collection string, record []byte) (Key, error) {
	return db.write(ctx, "更新记录", collection, record, true)
}

func (db *DB) write(ctx context.Context, op, collection string, record []byte, overwrite bool) (Key, error) {
	s, err := db.prepare(ctx, op, collection)
	if err != nil {
		return "", err
	}
	d, err := parse(s, record)
	if err != nil {
		return "", wrap(op, collection, err)
	}
	key, err := db.engine.Insert(ctx, s, d, overwrite)
	if err != nil {
		return "", wrap(op, collection, err)
	}
	return key, nil
}

func (db *DB) Get(ctx context.Context, collection string, key Key) ([]byte, bool, error) {
	s, err := db.prepare(ctx, "读取记录", collection)
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := db.engine.Get(ctx, s, key)
	return raw, ok, wrap("读取记录", collection, err)
}

func (db *DB) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	s, err := db.prepare(ctx, "读取全部记录", collection)
	if err != nil {
		return nil, err
	}
	all, err := db.engine.All(ctx, s)
	return all, wrap("读取全部记录", collection, err)
}

func (db *DB) GetByIndex(ctx context.Context, collection, index string, value any) ([][]byte, error) {
	const op = "索引查询"
	s, err := db.prepare(ctx, op, collection)
	if err != nil {
		return nil, err
	}
	ix, ok := s.Index(index)
	if !ok {
		return nil, wrap(op, collection, fmt.Errorf("%w: %s", ErrUnknownIndex, index))
	}
	c, err := canonical(value)
	if err != nil {
		return nil, wrap(op, collection, err)
	}
	out, err := db.engine.ByIndex(ctx, s, ix, c)
	return out, wrap(op, collection, err)
}

func (db *DB) Delete(ctx context.Context, collection string, key Key) error {
	s, err := db.prepare(ctx, "删除记录", collection)
	if err != nil {
		return err
	}
	return wrap("删除记录", collection, db.engine.Delete(ctx, s, key))
}

func (db *DB) Clear(ctx context.Context, collection string) error {
	s, err := db.prepare(ctx, "清空集合", collection)
	if err != nil {
		return err
	}
	return wrap("清空集合", collection, db.engine.Clear(ctx, s))
}

func (db *DB) Count(ctx context.Context, collection string) (int, error) {
	s, err := db.prepare(ctx, "统计记录", collection)
	if err != nil {
		return 0, err
	}
	n, err := db.engine.Count(ctx, s)
	return n, wrap("统计记录", collection, err)
}

// Close 关闭底层引擎
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	return wrap("关闭存储", "", db.engine.Close())
}
