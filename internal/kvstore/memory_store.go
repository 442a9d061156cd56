package kvstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内存储实现，用于本地运行与测试。
// Now 可替换以便测试控制过期时间。
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	counters map[string]int64
	lists    map[string][]string

	Now func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // 零值表示永不过期
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		counters: make(map[string]int64),
		lists:    make(map[string][]string),
		Now:      time.Now,
	}
}

// Name 实现名称
func (s *MemoryStore) Name() string {
	return "memory"
}

// Get 读取字符串值
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.liveEntry(key)
	if !ok {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set 写入字符串值
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.deadline(ttl)}
	return nil
}

// SetNX 仅当键不存在时写入
func (s *MemoryStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveEntry(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: s.deadline(ttl)}
	return true, nil
}

// GetDel 原子读取并删除
func (s *MemoryStore) GetDel(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.liveEntry(key)
	if !ok {
		return "", false, nil
	}
	delete(s.entries, key)
	return entry.value, true, nil
}

// Delete 删除键（字符串、计数、列表任一类型）
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	delete(s.counters, key)
	delete(s.lists, key)
	return nil
}

// GetInt 读取整数计数
func (s *MemoryStore) GetInt(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key], nil
}

// IncrByFloor 原子带下限加减（持锁期间完成检查与写入）
func (s *MemoryStore) IncrByFloor(ctx context.Context, key string, delta, floor int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.counters[key]
	next := current + delta
	if next < floor {
		return current, ErrFloorViolated
	}
	s.counters[key] = next
	return next, nil
}

// PushFront 向列表头部插入一个元素
func (s *MemoryStore) PushFront(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([]string{value}, s.lists[key]...)
	return nil
}

// PushFrontUnique 判重后向列表头部插入一个元素
func (s *MemoryStore) PushFrontUnique(ctx context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.lists[key] {
		if existing == value {
			return false, nil
		}
	}
	s.lists[key] = append([]string{value}, s.lists[key]...)
	return true, nil
}

// ListRange 按插入倒序返回区间元素
func (s *MemoryStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	length := int64(len(list))
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= length {
		stop = length - 1
	}
	if start >= length || stop < start {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

// liveEntry 返回未过期的条目，过期条目顺手清理。调用方需持锁。
func (s *MemoryStore) liveEntry(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.Now()) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.Now().Add(ttl)
}
