package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/models"
)

// 预写记录阶段常量
const (
	PendingPhaseWritten = "written" // 余额尚未调整
	PendingPhaseApplied = "applied" // 余额已调整，交易记录待落账
)

// TransactionRepository 交易账本数据访问接口（仅追加）
type TransactionRepository interface {
	// Append 幂等落账：同一交易重复调用不会在索引中产生重复条目。
	// 返回 ID 是否为本次新插入索引。
	Append(ctx context.Context, txn *models.Transaction) (bool, error)
	Get(ctx context.Context, email, id string) (*models.Transaction, error)
	// History 按时间倒序返回最近 limit 条记录，limit <= 0 表示全部。
	// 索引中已不可解析的记录跳过。
	History(ctx context.Context, email string, limit int) ([]models.Transaction, error)

	WritePending(ctx context.Context, pending *models.PendingTxn) error
	MarkPendingApplied(ctx context.Context, pending *models.PendingTxn) error
	ClearPending(ctx context.Context, id string) error
	// DrainPending 取出并清空全部预写记录（启动恢复用）
	DrainPending(ctx context.Context) ([]models.PendingTxn, error)
	// RequeuePending 将取出的预写记录按原阶段放回（回收尚不到恢复
	// 年龄的条目）
	RequeuePending(ctx context.Context, pending *models.PendingTxn) error
}

// KVTransactionRepository 键值存储交易仓储实现
type KVTransactionRepository struct {
	store kvstore.Store
}

// NewTransactionRepository 创建交易仓储
func NewTransactionRepository(store kvstore.Store) *KVTransactionRepository {
	return &KVTransactionRepository{store: store}
}

// Append 落账一条交易：先写记录再插入索引头部。记录写入可重复
// 执行（同 ID 覆盖同内容），索引插入带判重，整体幂等——记录已
// 存在而索引缺失的半落账状态重新调用即可修复。
func (r *KVTransactionRepository) Append(ctx context.Context, txn *models.Transaction) (bool, error) {
	payload, err := json.Marshal(txn)
	if err != nil {
		return false, fmt.Errorf("marshal transaction: %w", err)
	}
	if err := r.store.Set(ctx, txnKey(txn.Email, txn.ID), string(payload), 0); err != nil {
		return false, err
	}
	return r.store.PushFrontUnique(ctx, txnIndexKey(txn.Email), txn.ID)
}

// Get 按ID读取交易记录，不存在返回 nil
func (r *KVTransactionRepository) Get(ctx context.Context, email, id string) (*models.Transaction, error) {
	value, found, err := r.store.Get(ctx, txnKey(email, id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var txn models.Transaction
	if err := json.Unmarshal([]byte(value), &txn); err != nil {
		return nil, fmt.Errorf("unmarshal transaction %s: %w", id, err)
	}
	return &txn, nil
}

// History 按时间倒序返回交易记录
func (r *KVTransactionRepository) History(ctx context.Context, email string, limit int) ([]models.Transaction, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := r.store.ListRange(ctx, txnIndexKey(email), 0, stop)
	if err != nil {
		return nil, err
	}
	txns := make([]models.Transaction, 0, len(ids))
	for _, id := range ids {
		txn, err := r.Get(ctx, email, id)
		if err != nil {
			return nil, err
		}
		if txn == nil {
			continue
		}
		txns = append(txns, *txn)
	}
	return txns, nil
}

// WritePending 写入预写记录并登记到恢复索引
func (r *KVTransactionRepository) WritePending(ctx context.Context, pending *models.PendingTxn) error {
	pending.Phase = PendingPhaseWritten
	return r.RequeuePending(ctx, pending)
}

// RequeuePending 按当前阶段写回预写记录并确保其在恢复索引中
func (r *KVTransactionRepository) RequeuePending(ctx context.Context, pending *models.PendingTxn) error {
	if err := r.writePending(ctx, pending); err != nil {
		return err
	}
	_, err := r.store.PushFrontUnique(ctx, txnWALIndexKey, pending.Txn.ID)
	return err
}

// MarkPendingApplied 余额调整成功后更新预写记录阶段
func (r *KVTransactionRepository) MarkPendingApplied(ctx context.Context, pending *models.PendingTxn) error {
	pending.Phase = PendingPhaseApplied
	return r.writePending(ctx, pending)
}

func (r *KVTransactionRepository) writePending(ctx context.Context, pending *models.PendingTxn) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending txn: %w", err)
	}
	return r.store.Set(ctx, txnWALKey(pending.Txn.ID), string(payload), 0)
}

// ClearPending 交易落账后删除预写记录
func (r *KVTransactionRepository) ClearPending(ctx context.Context, id string) error {
	return r.store.Delete(ctx, txnWALKey(id))
}

// DrainPending 取出并清空全部预写记录。索引中保留的但预写键已删除的
// ID 说明交易已正常落账，直接跳过。
func (r *KVTransactionRepository) DrainPending(ctx context.Context) ([]models.PendingTxn, error) {
	ids, err := r.store.ListRange(ctx, txnWALIndexKey, 0, -1)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, txnWALIndexKey); err != nil {
		return nil, err
	}
	pendings := make([]models.PendingTxn, 0)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		value, found, err := r.store.GetDel(ctx, txnWALKey(id))
		if err != nil {
			return pendings, err
		}
		if !found {
			continue
		}
		var pending models.PendingTxn
		if err := json.Unmarshal([]byte(value), &pending); err != nil {
			return pendings, fmt.Errorf("unmarshal pending txn %s: %w", id, err)
		}
		pendings = append(pendings, pending)
	}
	return pendings, nil
}
