// Package kvstore 提供尽力而为的键值存储：所有操作都不返回错误，失败时记录日志并返回 false 或零值。
package kvstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// 键名
const (
	KeyLastSyncTime    = "lastSyncTime"
	KeyUserPreferences = "userPreferences"
	KeyTheme           = "theme"
	KeyDefaultModule   = "defaultModule"
	KeyFavoriteStocks  = "favoriteStocks"
	KeyFavoriteSectors = "favoriteSectors"
	KeyCurrentUserID   = "currentUserId"
)

// Store 键值存储，path 为空时只保存在内存中
type Store struct {
	mu   sync.RWMutex
	path string
	data map[string]json.RawMessage
}

// NewMemory 创建内存键值存储
func NewMemory() *Store {
	return &Store{data: make(map[string]json.RawMessage)}
}

// Open 打开文件键值存储，文件不存在或内容损坏时从空存储开始
func Open(path string) *Store {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("读取键值存储失败")
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("键值存储文件损坏，已忽略")
		s.data = make(map[string]json.RawMessage)
	}
	return s
}

// Save 保存值
func (s *Store) Save(key string, value any) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("序列化键值失败")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.data[key]
	s.data[key] = raw
	if err := s.flush(); err != nil {
		if existed {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		log.Warn().Err(err).Str("key", key).Msg("保存键值失败")
		return false
	}
	return true
}

// Get 读取值到 out，键不存在或无法解析时返回 false
func (s *Store) Get(key string, out any) bool {
	raw, ok := s.GetRaw(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("解析键值失败")
		return false
	}
	return true
}

// GetRaw 读取原始 JSON
func (s *Store) GetRaw(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), raw...), true
}

// GetString 读取字符串值
func (s *Store) GetString(key string) (string, bool) {
	var v string
	ok := s.Get(key, &v)
	return v, ok
}

// GetStrings 读取字符串列表，缺失时返回空列表
func (s *Store) GetStrings(key string) []string {
	var v []string
	if !s.Get(key, &v) || v == nil {
		return []string{}
	}
	return v
}

// Remove 删除键，键不存在也算成功
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.data[key]
	if !existed {
		return true
	}
	delete(s.data, key)
	if err := s.flush(); err != nil {
		s.data[key] = prev
		log.Warn().Err(err).Str("key", key).Msg("删除键值失败")
		return false
	}
	return true
}

// Clear 清空所有键
func (s *Store) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.data
	s.data = make(map[string]json.RawMessage)
	if err := s.flush(); err != nil {
		s.data = prev
		log.Warn().Err(err).Msg("清空键值存储失败")
		return false
	}
	return true
}

// ListKeys 返回排序后的键列表
func (s *Store) ListKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasKey 键是否存在
func (s *Store) HasKey(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// UsedSpace 估算占用字节数，按 UTF-16 每字符两字节计算
func (s *Store) UsedSpace() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for k, v := range s.data {
		total += len([]rune(k)) + len([]rune(string(v)))
	}
	return total * 2
}

// flush 原子写入文件，调用方需持有写锁
func (s *Store) flush() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kv-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
