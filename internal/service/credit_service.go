package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/repository"

	"github.com/google/uuid"
)

// 存储瞬时故障的本地重试参数
const (
	storeRetryAttempts = 3
	storeRetryBaseWait = 50 * time.Millisecond
)

// CreditService 账本门面：余额变动与交易落账的唯一入口。
// 先原子调整余额、后追加交易记录，两步之间用预写记录桥接，
// 启动时 RecoverPendingTransactions 补齐缺失的交易。
type CreditService struct {
	balanceRepo repository.BalanceRepository
	txnRepo     repository.TransactionRepository
}

// CreditChangeInput 余额变动输入（金额一律为正数）
type CreditChangeInput struct {
	Email     string
	Amount    models.Cents
	Source    string
	Reference string
	Remark    string
}

// NewCreditService 创建账本门面
func NewCreditService(balanceRepo repository.BalanceRepository, txnRepo repository.TransactionRepository) *CreditService {
	return &CreditService{balanceRepo: balanceRepo, txnRepo: txnRepo}
}

// NormalizeEmail 账户邮箱归一化（小写、去首尾空白）
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credit 入账
func (s *CreditService) Credit(ctx context.Context, input CreditChangeInput) (*models.Transaction, error) {
	return s.apply(ctx, input, models.TxnTypeCreditAdded, int64(input.Amount))
}

// Debit 出账。余额不足时返回 ErrInsufficientCredit 且余额不变。
func (s *CreditService) Debit(ctx context.Context, input CreditChangeInput) (*models.Transaction, error) {
	return s.apply(ctx, input, models.TxnTypeCreditUsed, -int64(input.Amount))
}

// Refund 退回信用额度（管理端调整）
func (s *CreditService) Refund(ctx context.Context, input CreditChangeInput) (*models.Transaction, error) {
	return s.apply(ctx, input, models.TxnTypeCreditRefund, int64(input.Amount))
}

func (s *CreditService) apply(ctx context.Context, input CreditChangeInput, txnType string, delta int64) (*models.Transaction, error) {
	if s == nil || s.balanceRepo == nil || s.txnRepo == nil {
		return nil, ErrStoreUnavailable
	}
	email := NormalizeEmail(input.Email)
	if email == "" || input.Amount <= 0 {
		return nil, ErrCreditInvalid
	}

	now := time.Now()
	txn := models.Transaction{
		ID:        uuid.NewString(),
		Email:     email,
		Type:      txnType,
		Source:    strings.TrimSpace(input.Source),
		Amount:    models.Cents(delta),
		Reference: strings.TrimSpace(input.Reference),
		Remark:    strings.TrimSpace(input.Remark),
		CreatedAt: now,
	}
	pending := &models.PendingTxn{Txn: txn, WrittenAt: now}

	if err := s.withStoreRetry(ctx, func() error {
		return s.txnRepo.WritePending(ctx, pending)
	}); err != nil {
		logger.Warnw("credit write-ahead failed", "email", email, "txn_id", txn.ID, "error", err)
		return nil, ErrStoreUnavailable
	}

	after, err := s.balanceRepo.ApplyDelta(ctx, email, models.Cents(delta))
	if err != nil {
		if errors.Is(err, kvstore.ErrFloorViolated) {
			// 余额未被触碰，预写记录可直接撤销
			if clearErr := s.txnRepo.ClearPending(ctx, txn.ID); clearErr != nil {
				logger.Warnw("clear pending failed after rejected debit", "txn_id", txn.ID, "error", clearErr)
			}
			return nil, ErrInsufficientCredit
		}
		logger.Warnw("apply delta failed", "email", email, "txn_id", txn.ID, "error", err)
		return nil, ErrStoreUnavailable
	}

	txn.BalanceAfter = after
	pending.Txn = txn
	if err := s.txnRepo.MarkPendingApplied(ctx, pending); err != nil {
		logger.Warnw("mark pending applied failed", "txn_id", txn.ID, "error", err)
	}

	// 余额已变动，落账失败由预写记录在恢复时补齐，不回滚余额
	if err := s.withStoreRetry(ctx, func() error {
		_, appendErr := s.txnRepo.Append(ctx, &txn)
		return appendErr
	}); err != nil {
		logger.Errorw("transaction append failed, left for recovery", "email", email, "txn_id", txn.ID, "error", err)
		return &txn, nil
	}

	if err := s.txnRepo.ClearPending(ctx, txn.ID); err != nil {
		logger.Warnw("clear pending failed", "txn_id", txn.ID, "error", err)
	}
	return &txn, nil
}

// GetBalance 查询余额快照（无交易账户返回 {0, nil}）
func (s *CreditService) GetBalance(ctx context.Context, email string) (*models.BalanceInfo, error) {
	if s == nil || s.balanceRepo == nil {
		return nil, ErrStoreUnavailable
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrCreditInvalid
	}
	balance, err := s.balanceRepo.Get(ctx, email)
	if err != nil {
		logger.Warnw("get balance failed", "email", email, "error", err)
		return nil, ErrStoreUnavailable
	}
	info := &models.BalanceInfo{Cents: balance}
	latest, err := s.txnRepo.History(ctx, email, 1)
	if err == nil && len(latest) > 0 {
		info.LastUpdatedAt = &latest[0].CreatedAt
	}
	return info, nil
}

// GetHistory 按时间倒序返回交易记录，limit <= 0 表示全部
func (s *CreditService) GetHistory(ctx context.Context, email string, limit int) ([]models.Transaction, error) {
	if s == nil || s.txnRepo == nil {
		return nil, ErrStoreUnavailable
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrCreditInvalid
	}
	history, err := s.txnRepo.History(ctx, email, limit)
	if err != nil {
		logger.Warnw("get history failed", "email", email, "error", err)
		return nil, ErrStoreUnavailable
	}
	return history, nil
}

// RecoverPendingTransactions 回放预写记录：余额已调整的交易重新
// 幂等落账（记录与索引缺哪个补哪个）；余额调整前就失败的预写仅
// 告警后丢弃。grace 大于零时，写入时间在 grace 之内的条目视为仍在
// 处理中，原样放回不动——带宽限的在线巡检绝不能碰还在进行的请求。
// 启动恢复传 0（此时没有在途请求）。返回补齐的交易数。
func (s *CreditService) RecoverPendingTransactions(ctx context.Context, grace time.Duration) (int, error) {
	if s == nil || s.txnRepo == nil {
		return 0, ErrStoreUnavailable
	}
	pendings, err := s.txnRepo.DrainPending(ctx)
	if err != nil {
		return 0, ErrStoreUnavailable
	}
	cutoff := time.Now().Add(-grace)
	recovered := 0
	for i := range pendings {
		pending := pendings[i]
		if grace > 0 && pending.WrittenAt.After(cutoff) {
			if requeueErr := s.txnRepo.RequeuePending(ctx, &pending); requeueErr != nil {
				logger.Errorw("requeue in-flight pending failed", "txn_id", pending.Txn.ID, "error", requeueErr)
			}
			continue
		}
		if pending.Phase != repository.PendingPhaseApplied {
			logger.Warnw("dropping pending txn that never applied", "txn_id", pending.Txn.ID, "email", pending.Txn.Email)
			continue
		}
		indexed, err := s.txnRepo.Append(ctx, &pending.Txn)
		if err != nil {
			logger.Errorw("recovery append failed", "txn_id", pending.Txn.ID, "error", err)
			continue
		}
		if indexed {
			recovered++
		}
	}
	if recovered > 0 {
		logger.Infow("recovered pending transactions", "count", recovered)
	}
	return recovered, nil
}

// withStoreRetry 对瞬时存储故障做有限次退避重试
func (s *CreditService) withStoreRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < storeRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * storeRetryBaseWait):
			}
		}
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}
