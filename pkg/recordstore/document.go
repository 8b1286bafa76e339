package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Key 主键，自增集合的主键是十进制整数
type Key string

// Int64 解析自增主键
func (k Key) Int64() (int64, error) {
	return strconv.ParseInt(string(k), 10, 64)
}

// IntKey 由整数构造主键
func IntKey(id int64) Key { return Key(strconv.FormatInt(id, 10)) }

// document 通过边界校验的记录
type document struct {
	fields  map[string]any
	key     Key
	indexes map[string][]string
}

func path(keyPath string) string { return "$." + keyPath }

func lookup(fields map[string]any, keyPath string) (any, bool) {
	v, err := jsonpath.Get(path(keyPath), fields)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// parse 校验并解析记录：必须是 JSON 对象，自然主键为非空字符串，多值索引字段为数组
func parse(s Schema, raw []byte) (*document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: 记录必须是 JSON 对象", ErrInvalidRecord)
	}

	d := &document{fields: fields, indexes: make(map[string][]string, len(s.Indexes))}
	v, ok := lookup(fields, s.KeyPath)
	if s.AutoIncrement {
		if ok {
			id, err := autoKey(v)
			if err != nil {
				return nil, err
			}
			if id > 0 {
				d.key = IntKey(id)
			} else {
				delete(fields, s.KeyPath)
			}
		}
	} else {
		str, isStr := v.(string)
		if !ok || !isStr || strings.TrimSpace(str) == "" {
			return nil, fmt.Errorf("%w: 主键 %s 必须是非空字符串", ErrInvalidRecord, s.KeyPath)
		}
		d.key = Key(str)
	}

	for _, ix := range s.Indexes {
		v, ok := lookup(fields, ix.KeyPath)
		if !ok {
			continue
		}
		if !ix.MultiEntry {
			c, err := canonical(v)
			if err != nil {
				return nil, err
			}
			d.indexes[ix.Name] = []string{c}
			continue
		}
		items, isArr := v.([]any)
		if !isArr {
			return nil, fmt.Errorf("%w: 索引字段 %s 必须是数组", ErrInvalidRecord, ix.KeyPath)
		}
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			c, err := canonical(item)
			if err != nil {
				return nil, err
			}
			if !seen[c] {
				seen[c] = true
				d.indexes[ix.Name] = append(d.indexes[ix.Name], c)
			}
		}
	}
	return d, nil
}

func autoKey(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: 自增主键必须是整数", ErrInvalidRecord)
	}
	id, err := n.Int64()
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: 自增主键必须是非负整数", ErrInvalidRecord)
	}
	return id, nil
}

// assign 写入自增主键
func (d *document) assign(s Schema, id int64) {
	d.key = IntKey(id)
	d.fields[s.KeyPath] = json.Number(d.key)
}

func (d *document) bytes() ([]byte, error) {
	raw, err := json.Marshal(d.fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return raw, nil
}

// canonical 索引值的规范化表示，查询值与存储值按此比较
func canonical(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: 索引值无法序列化: %v", ErrInvalidRecord, err)
	}
	return string(raw), nil
}

// sortKeys 数字主键按数值排序，其余按字典序
func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		a, errA := keys[i].Int64()
		b, errB := keys[j].Int64()
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}
