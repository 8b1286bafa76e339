package recordstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryEngine 内存存储引擎
type MemoryEngine struct {
	mutex       sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	mutex   sync.RWMutex
	records map[Key][]byte
	// index -> value -> keys
	indexes map[string]map[string]map[Key]struct{}
	// key -> index -> values，删除时用来清理索引
	entries map[Key]map[string][]string
	lastID  int64
}

// NewMemoryEngine 创建内存存储引擎
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{collections: make(map[string]*memCollection)}
}

// NewMemory 创建基于内存引擎的记录存储
func NewMemory() *DB {
	return New(NewMemoryEngine())
}

func (m *MemoryEngine) Migrate(_ context.Context, schemas []Schema) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, s := range schemas {
		if _, ok := m.collections[s.Name]; ok {
			continue
		}
		m.collections[s.Name] = &memCollection{
			records: make(map[Key][]byte),
			indexes: make(map[string]map[string]map[Key]struct{}),
			entries: make(map[Key]map[string][]string),
		}
	}
	return nil
}

func (m *MemoryEngine) collection(name string) (*memCollection, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return nil, ErrUnknownCollection
	}
	return c, nil
}

func (m *MemoryEngine) Insert(_ context.Context, s Schema, d *document, overwrite bool) (Key, error) {
	c, err := m.collection(s.Name)
	if err != nil {
		return "", err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if d.key == "" {
		c.lastID++
		d.assign(s, c.lastID)
	} else if s.AutoIncrement {
		if id, err := d.key.Int64(); err == nil && id > c.lastID {
			c.lastID = id
		}
	}
	if _, exists := c.records[d.key]; exists && !overwrite {
		return "", fmt.Errorf("%w: %s", ErrDuplicateKey, d.key)
	}

	raw, err := d.bytes()
	if err != nil {
		return "", err
	}
	c.unindex(d.key)
	c.records[d.key] = raw
	c.entries[d.key] = d.indexes
	for name, values := range d.indexes {
		byValue, ok := c.indexes[name]
		if !ok {
			byValue = make(map[string]map[Key]struct{})
			c.indexes[name] = byValue
		}
		for _, v := range values {
			if byValue[v] == nil {
				byValue[v] = make(map[Key]struct{})
			}
			byValue[v][d.key] = struct{}{}
		}
	}
	return d.key, nil
}

// unindex 移除主键对应的索引项，调用方需持有写锁
func (c *memCollection) unindex(key Key) {
	for name, values := range c.entries[key] {
		for _, v := range values {
			delete(c.indexes[name][v], key)
			if len(c.indexes[name][v]) == 0 {
				delete(c.indexes[name], v)
			}
		}
	}
	delete(c.entries, key)
}

func (m *MemoryEngine) Get(_ context.Context, s Schema, key Key) ([]byte, bool, error) {
	c, err := m.collection(s.Name)
	if err != nil {
		return nil, false, err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	raw, ok := c.records[key]
	if !ok {
		return nil, false, nil
	}
	return clone(raw), true, nil
}

func (m *MemoryEngine) All(_ context.Context, s Schema) ([][]byte, error) {
	c, err := m.collection(s.Name)
	if err != nil {
		return nil, err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	keys := make([]Key, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	return c.collect(keys), nil
}

func (m *MemoryEngine) ByIndex(_ context.Context, s Schema, index IndexSchema, value string) ([][]byte, error) {
	c, err := m.collection(s.Name)
	if err != nil {
		return nil, err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	matched := c.indexes[index.Name][value]
	keys := make([]Key, 0, len(matched))
	for k := range matched {
		keys = append(keys, k)
	}
	return c.collect(keys), nil
}

// collect 按主键顺序复制记录，调用方需持有读锁
func (c *memCollection) collect(keys []Key) [][]byte {
	sortKeys(keys)
	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(c.records[k]))
	}
	return out
}

func (m *MemoryEngine) Delete(_ context.Context, s Schema, key Key) error {
	c, err := m.collection(s.Name)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.unindex(key)
	delete(c.records, key)
	return nil
}

func (m *MemoryEngine) Clear(_ context.Context, s Schema) error {
	c, err := m.collection(s.Name)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.records = make(map[Key][]byte)
	c.indexes = make(map[string]map[string]map[Key]struct{})
	c.entries = make(map[Key]map[string][]string)
	return nil
}

func (m *MemoryEngine) Count(_ context.Context, s Schema) (int, error) {
	c, err := m.collection(s.Name)
	if err != nil {
		return 0, err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.records), nil
}

func (m *MemoryEngine) Close() error { return nil }

func clone(b []byte) []byte { return append([]byte(nil), b...) }
