package kvstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// kvCounter 整数计数表
type kvCounter struct {
	K     string `gorm:"primaryKey;type:varchar(255)"`
	Value int64  `gorm:"not null;default:0"`
}

func (kvCounter) TableName() string {
	return "kv_counters"
}

// kvEntry 字符串键值表（expires_at 为空表示永不过期）
type kvEntry struct {
	K         string `gorm:"primaryKey;type:varchar(255)"`
	Value     string `gorm:"type:text;not null"`
	ExpiresAt *time.Time
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// kvListItem 列表元素表（按自增 ID 倒序即插入倒序）
type kvListItem struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	K     string `gorm:"index;type:varchar(255);not null"`
	Value string `gorm:"type:text;not null"`
}

func (kvListItem) TableName() string {
	return "kv_list_items"
}

// GormStore 基于关系数据库（SQLite/PostgreSQL）的键值存储实现。
// 计数加减用单条件 UPDATE 语句在数据库侧原子完成，TTL 通过
// expires_at 列在读取时惰性判定。
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore 创建数据库存储并迁移所需表结构
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("kvstore: nil gorm db")
	}
	if err := db.AutoMigrate(&kvCounter{}, &kvEntry{}, &kvListItem{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, now: time.Now}, nil
}

// Name 实现名称
func (s *GormStore) Name() string {
	return "gorm"
}

// Get 读取字符串值（过期键视为不存在并顺手清理）
func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry
	err := s.db.WithContext(ctx).Where("k = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if s.expired(&entry) {
		s.db.WithContext(ctx).Where("k = ?", key).Delete(&kvEntry{})
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set 写入字符串值（upsert）
func (s *GormStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := kvEntry{K: key, Value: value, ExpiresAt: s.deadline(ttl)}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("k = ?", key).Delete(&kvEntry{}).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
}

// SetNX 仅当键不存在（或已过期）时写入
func (s *GormStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	entry := kvEntry{K: key, Value: value, ExpiresAt: s.deadline(ttl)}
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 过期残留不应阻塞新写入
		if err := tx.Where("k = ? AND expires_at IS NOT NULL AND expires_at <= ?", key, s.now()).
			Delete(&kvEntry{}).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&kvEntry{}).Where("k = ?", key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// GetDel 原子读取并删除
func (s *GormStore) GetDel(ctx context.Context, key string) (string, bool, error) {
	var value string
	found := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry kvEntry
		err := tx.Where("k = ?", key).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("k = ?", key).Delete(&kvEntry{}).Error; err != nil {
			return err
		}
		if s.expired(&entry) {
			return nil
		}
		value = entry.Value
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// Delete 删除键（字符串、计数、列表任一类型）
func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("k = ?", key).Delete(&kvEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("k = ?", key).Delete(&kvCounter{}).Error; err != nil {
			return err
		}
		return tx.Where("k = ?", key).Delete(&kvListItem{}).Error
	})
}

// GetInt 读取整数计数
func (s *GormStore) GetInt(ctx context.Context, key string) (int64, error) {
	var counter kvCounter
	err := s.db.WithContext(ctx).Where("k = ?", key).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// IncrByFloor 原子带下限加减。条件 UPDATE 将检查与写入合并为
// 数据库侧的单条语句，行不存在时先以 0 初始化再重试。
func (s *GormStore) IncrByFloor(ctx context.Context, key string, delta, floor int64) (int64, error) {
	db := s.db.WithContext(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		var after int64
		res := db.Raw(
			"UPDATE kv_counters SET value = value + ? WHERE k = ? AND value + ? >= ? RETURNING value",
			delta, key, delta, floor,
		).Scan(&after)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected > 0 {
			return after, nil
		}
		var count int64
		if err := db.Model(&kvCounter{}).Where("k = ?", key).Count(&count).Error; err != nil {
			return 0, err
		}
		if count > 0 {
			var current int64
			if err := db.Model(&kvCounter{}).Where("k = ?", key).Pluck("value", &current).Error; err != nil {
				return 0, err
			}
			return current, ErrFloorViolated
		}
		if err := db.Exec(
			"INSERT INTO kv_counters (k, value) VALUES (?, 0) ON CONFLICT (k) DO NOTHING",
			key,
		).Error; err != nil {
			return 0, err
		}
	}
	return 0, ErrFloorViolated
}

// PushFront 向列表头部插入一个元素
func (s *GormStore) PushFront(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Create(&kvListItem{K: key, Value: value}).Error
}

// PushFrontUnique 事务内判重后插入一个列表元素
func (s *GormStore) PushFrontUnique(ctx context.Context, key, value string) (bool, error) {
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&kvListItem{}).Where("k = ? AND value = ?", key, value).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&kvListItem{K: key, Value: value}).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// ListRange 按插入倒序返回区间元素
func (s *GormStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if start < 0 {
		start = 0
	}
	query := s.db.WithContext(ctx).Model(&kvListItem{}).
		Where("k = ?", key).
		Order("id DESC").
		Offset(int(start))
	if stop >= 0 {
		if stop < start {
			return []string{}, nil
		}
		query = query.Limit(int(stop - start + 1))
	}
	var values []string
	if err := query.Pluck("value", &values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

func (s *GormStore) deadline(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := s.now().Add(ttl)
	return &t
}

func (s *GormStore) expired(entry *kvEntry) bool {
	return entry.ExpiresAt != nil && !entry.ExpiresAt.After(s.now())
}
