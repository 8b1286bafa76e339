// pkg/recordstore/gorm.go
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordRow 记录表
type recordRow struct {
	Collection string         `gorm:"primaryKey;size:64"`
	RecordKey  string         `gorm:"primaryKey;type:text"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (recordRow) TableName() string { return "records" }

// indexEntry 二级索引表，多值索引每个元素一行
type indexEntry struct {
	ID         uint   `gorm:"primaryKey"`
	Collection string `gorm:"size:64;index:idx_record_index_lookup,priority:1;index:idx_record_index_owner,priority:1"`
	IndexName  string `gorm:"size:64;index:idx_record_index_lookup,priority:2"`
	Value      string `gorm:"type:text;index:idx_record_index_lookup,priority:3"`
	RecordKey  string `gorm:"type:text;index:idx_record_index_owner,priority:2"`
}

func (indexEntry) TableName() string { return "record_index_entries" }

// sequence 自增主键计数器，LastID 为最后分配的主键
type sequence struct {
	Collection string `gorm:"primaryKey;size:64"`
	LastID     int64
}

func (sequence) TableName() string { return "record_sequences" }

// GormEngine 基于 gorm 的存储引擎，支持 sqlite 和 postgres
type GormEngine struct {
	db *gorm.DB
}

// NewGormEngine 使用已打开的连接创建引擎
func NewGormEngine(db *gorm.DB) *GormEngine {
	return &GormEngine{db: db}
}

func (g *GormEngine) Migrate(ctx context.Context, schemas []Schema) error {
	db := g.db.WithContext(ctx)
	if err := db.AutoMigrate(&recordRow{}, &indexEntry{}, &sequence{}); err != nil {
		return fmt.Errorf("创建数据表失败: %w", err)
	}
	for _, s := range schemas {
		if !s.AutoIncrement {
			continue
		}
		seq := sequence{Collection: s.Name}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
			return fmt.Errorf("创建计数器失败: %w", err)
		}
	}
	return nil
}

func (g *GormEngine) Insert(ctx context.Context, s Schema, d *document, overwrite bool) (Key, error) {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if d.key == "" {
			id, err := nextID(tx, s.Name)
			if err != nil {
				return err
			}
			d.assign(s, id)
		} else if s.AutoIncrement {
			if id, err := d.key.Int64(); err == nil {
				err := tx.Model(&sequence{}).
					Where("collection = ? AND last_id < ?", s.Name, id).
					Update("last_id", id).Error
				if err != nil {
					return fmt.Errorf("更新计数器失败: %w", err)
				}
			}
		}

		raw, err := d.bytes()
		if err != nil {
			return err
		}
		row := recordRow{Collection: s.Name, RecordKey: string(d.key), Data: datatypes.JSON(raw)}

		if overwrite {
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "collection"}, {Name: "record_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
			}).Create(&row).Error
		} else {
			var n int64
			if err := tx.Model(&recordRow{}).
				Where("collection = ? AND record_key = ?", s.Name, string(d.key)).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, d.key)
			}
			err = tx.Create(&row).Error
		}
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, d.key)
			}
			return fmt.Errorf("写入记录失败: %w", err)
		}

		if err := tx.Where("collection = ? AND record_key = ?", s.Name, string(d.key)).
			Delete(&indexEntry{}).Error; err != nil {
			return fmt.Errorf("清理索引失败: %w", err)
		}
		entries := make([]indexEntry, 0, len(d.indexes))
		for name, values := range d.indexes {
			for _, v := range values {
				entries = append(entries, indexEntry{Collection: s.Name, IndexName: name, Value: v, RecordKey: string(d.key)})
			}
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 500).Error; err != nil {
				return fmt.Errorf("写入索引失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return d.key, nil
}

// nextID 在事务内分配下一个自增主键
func nextID(tx *gorm.DB, collection string) (int64, error) {
	res := tx.Model(&sequence{}).
		Where("collection = ?", collection).
		Update("last_id", gorm.Expr("last_id + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("分配主键失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tx.Create(&sequence{Collection: collection, LastID: 1}).Error; err != nil {
			return 0, fmt.Errorf("分配主键失败: %w", err)
		}
		return 1, nil
	}
	var seq sequence
	if err := tx.First(&seq, "collection = ?", collection).Error; err != nil {
		return 0, fmt.Errorf("分配主键失败: %w", err)
	}
	return seq.LastID, nil
}

func (g *GormEngine) Get(ctx context.Context, s Schema, key Key) ([]byte, bool, error) {
	var row recordRow
	err := g.db.WithContext(ctx).
		Where("collection = ? AND record_key = ?", s.Name, string(key)).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("读取记录失败: %w", err)
	}
	return []byte(row.Data), true, nil
}

func (g *GormEngine) All(ctx context.Context, s Schema) ([][]byte, error) {
	var rows []recordRow
	if err := g.db.WithContext(ctx).Where("collection = ?", s.Name).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("读取记录失败: %w", err)
	}
	return ordered(rows), nil
}

func (g *GormEngine) ByIndex(ctx context.Context, s Schema, index IndexSchema, value string) ([][]byte, error) {
	db := g.db.WithContext(ctx)
	keys := db.Model(&indexEntry{}).
		Select("record_key").
		Where("collection = ? AND index_name = ? AND value = ?", s.Name, index.Name, value)

	var rows []recordRow
	if err := db.Where("collection = ? AND record_key IN (?)", s.Name, keys).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("索引查询失败: %w", err)
	}
	return ordered(rows), nil
}

func ordered(rows []recordRow) [][]byte {
	byKey := make(map[Key][]byte, len(rows))
	keys := make([]Key, 0, len(rows))
	for _, r := range rows {
		byKey[Key(r.RecordKey)] = []byte(r.Data)
		keys = append(keys, Key(r.RecordKey))
	}
	sortKeys(keys)
	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

func (g *GormEngine) Delete(ctx context.Context, s Schema, key Key) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ? AND record_key = ?", s.Name, string(key)).Delete(&indexEntry{}).Error; err != nil {
			return fmt.Errorf("删除索引失败: %w", err)
		}
		if err := tx.Where("collection = ? AND record_key = ?", s.Name, string(key)).Delete(&recordRow{}).Error; err != nil {
			return fmt.Errorf("删除记录失败: %w", err)
		}
		return nil
	})
}

func (g *GormEngine) Clear(ctx context.Context, s Schema) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", s.Name).Delete(&indexEntry{}).Error; err != nil {
			return fmt.Errorf("清空索引失败: %w", err)
		}
		if err := tx.Where("collection = ?", s.Name).Delete(&recordRow{}).Error; err != nil {
			return fmt.Errorf("清空记录失败: %w", err)
		}
		return nil
	})
}

func (g *GormEngine) Count(ctx context.Context, s Schema) (int, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&recordRow{}).Where("collection = ?", s.Name).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计记录失败: %w", err)
	}
	return int(n), nil
}

func (g *GormEngine) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
