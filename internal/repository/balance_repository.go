package repository

import (
	"context"

	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/models"
)

// BalanceRepository 余额数据访问接口
type BalanceRepository interface {
	Get(ctx context.Context, email string) (models.Cents, error)
	// ApplyDelta 原子调整余额，结果为负时不修改并透传 kvstore.ErrFloorViolated。
	// 返回调整后的余额。
	ApplyDelta(ctx context.Context, email string, delta models.Cents) (models.Cents, error)
}

// KVBalanceRepository 键值存储余额仓储实现
type KVBalanceRepository struct {
	store kvstore.Store
}

// NewBalanceRepository 创建余额仓储
func NewBalanceRepository(store kvstore.Store) *KVBalanceRepository {
	return &KVBalanceRepository{store: store}
}

// Get 读取余额（无记录账户视为 0）
func (r *KVBalanceRepository) Get(ctx context.Context, email string) (models.Cents, error) {
	value, err := r.store.GetInt(ctx, balanceKey(email))
	if err != nil {
		return 0, err
	}
	return models.Cents(value), nil
}

// ApplyDelta 原子调整余额（下限 0）
func (r *KVBalanceRepository) ApplyDelta(ctx context.Context, email string, delta models.Cents) (models.Cents, error) {
	after, err := r.store.IncrByFloor(ctx, balanceKey(email), int64(delta), 0)
	if err != nil {
		return models.Cents(after), err
	}
	return models.Cents(after), nil
}
