package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrByFloorScript 原子"带下限加减"：结果跌破下限时不写入
var incrByFloorScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local delta = tonumber(ARGV[1])
local floor = tonumber(ARGV[2])
local next = current + delta
if next < floor then
	return {0, current}
end
redis.call("SET", KEYS[1], next)
return {1, next}
`)

// pushFrontUniqueScript 原子"判重后头插"：元素已在列表中时不插入
var pushFrontUniqueScript = redis.NewScript(`
if redis.call("LPOS", KEYS[1], ARGV[1]) then
	return 0
end
redis.call("LPUSH", KEYS[1], ARGV[1])
return 1
`)

// RedisStore 基于 Redis 的键值存储实现
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建 Redis 存储，prefix 用于多应用共享实例时隔离键空间
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Name 实现名称
func (s *RedisStore) Name() string {
	return "redis"
}

// Get 读取字符串值
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set 写入字符串值
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SetNX 仅当键不存在时写入
func (s *RedisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// GetDel 原子读取并删除
func (s *RedisStore) GetDel(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel %s: %w", key, err)
	}
	return value, true, nil
}

// Delete 删除键
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// GetInt 读取整数计数
func (s *RedisStore) GetInt(ctx context.Context, key string) (int64, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis key %s holds non-integer value: %w", key, err)
	}
	return n, nil
}

// IncrByFloor 原子带下限加减
func (s *RedisStore) IncrByFloor(ctx context.Context, key string, delta, floor int64) (int64, error) {
	result, err := incrByFloorScript.Run(ctx, s.client, []string{s.key(key)}, delta, floor).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incrbyfloor %s: %w", key, err)
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, fmt.Errorf("redis incrbyfloor %s: unexpected reply %v", key, result)
	}
	applied, _ := values[0].(int64)
	current, _ := values[1].(int64)
	if applied != 1 {
		return current, ErrFloorViolated
	}
	return current, nil
}

// PushFront 向列表头部插入一个元素
func (s *RedisStore) PushFront(ctx context.Context, key, value string) error {
	if err := s.client.LPush(ctx, s.key(key), value).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", key, err)
	}
	return nil
}

// PushFrontUnique 判重后向列表头部插入一个元素
func (s *RedisStore) PushFrontUnique(ctx context.Context, key, value string) (bool, error) {
	result, err := pushFrontUniqueScript.Run(ctx, s.client, []string{s.key(key)}, value).Int64()
	if err != nil {
		return false, fmt.Errorf("redis pushfrontunique %s: %w", key, err)
	}
	return result == 1, nil
}

// ListRange 按插入倒序返回区间元素
func (s *RedisStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := s.client.LRange(ctx, s.key(key), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", key, err)
	}
	return values, nil
}
