package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrFloorViolated 原子增减会使计数跌破下限时返回，存储不发生任何变化
var ErrFloorViolated = errors.New("kvstore: increment would cross floor")

// Store 统一键值存储接口。三种实现（redis/gorm/memory）均保证
// IncrByFloor 的检查与写入是单步原子操作。
type Store interface {
	// Get 读取字符串值，第二个返回值表示键是否存在
	Get(ctx context.Context, key string) (string, bool, error)
	// Set 写入字符串值，ttl 为 0 表示永不过期
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX 仅当键不存在时写入，返回是否写入成功
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// GetDel 原子读取并删除，第二个返回值表示键是否存在
	GetDel(ctx context.Context, key string) (string, bool, error)
	// Delete 删除键（键不存在不报错）
	Delete(ctx context.Context, key string) error

	// GetInt 读取整数计数，键不存在时返回 0
	GetInt(ctx context.Context, key string) (int64, error)
	// IncrByFloor 原子执行 value += delta；若结果 < floor 则不修改并返回
	// ErrFloorViolated。键不存在按 0 处理。返回修改后的值。
	IncrByFloor(ctx context.Context, key string, delta, floor int64) (int64, error)

	// PushFront 向列表头部插入一个元素
	PushFront(ctx context.Context, key, value string) error
	// PushFrontUnique 原子判重后向列表头部插入一个元素，元素已存在时
	// 不修改列表。返回是否发生插入。
	PushFrontUnique(ctx context.Context, key, value string) (bool, error)
	// ListRange 按插入倒序返回 [start, stop] 区间的元素，stop 为 -1 表示到末尾
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Name 实现名称（用于日志）
	Name() string
}
