package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Typed 把集合中的记录映射为 Go 结构体
type Typed[T any] struct {
	store      Store
	collection string
}

// NewTyped 创建类型化集合
func NewTyped[T any](store Store, collection string) *Typed[T] {
	return &Typed[T]{store: store, collection: collection}
}

// Name 集合名称
func (t *Typed[T]) Name() string { return t.collection }

func (t *Typed[T]) encode(v T) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &StorageError{Op: "序列化记录", Collection: t.collection, Err: err}
	}
	return raw, nil
}

func (t *Typed[T]) decode(raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &StorageError{Op: "解析记录", Collection: t.collection, Err: fmt.Errorf("%w: %v", ErrInvalidRecord, err)}
	}
	return v, nil
}

func (t *Typed[T]) decodeAll(raws [][]byte) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		v, err := t.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *Typed[T]) Add(ctx context.Context, v T) (Key, error) {
	raw, err := t.encode(v)
	if err != nil {
		return "", err
	}
	return t.store.Add(ctx, t.collection, raw)
}

func (t *Typed[T]) Put(ctx context.Context, v T) (Key, error) {
	raw, err := t.encode(v)
	if err != nil {
		return "", err
	}
	return t.store.Update(ctx, t.collection, raw)
}

// Get 按主键读取，记录不存在时 ok 为 false
func (t *Typed[T]) Get(ctx context.Context, key Key) (v T, ok bool, err error) {
	raw, ok, err := t.store.Get(ctx, t.collection, key)
	if err != nil || !ok {
		return v, false, err
	}
	v, err = t.decode(raw)
	return v, err == nil, err
}

func (t *Typed[T]) All(ctx context.Context) ([]T, error) {
	raws, err := t.store.GetAll(ctx, t.collection)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(raws)
}

func (t *Typed[T]) ByIndex(ctx context.Context, index string, value any) ([]T, error) {
	raws, err := t.store.GetByIndex(ctx, t.collection, index, value)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(raws)
}

func (t *Typed[T]) Delete(ctx context.Context, key Key) error {
	return t.store.Delete(ctx, t.collection, key)
}

func (t *Typed[T]) Clear(ctx context.Context) error {
	return t.store.Clear(ctx, t.collection)
}

func (t *Typed[T]) Count(ctx context.Context) (int, error) {
	return t.store.Count(ctx, t.collection)
}
