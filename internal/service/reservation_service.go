package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/repository"
)

// ReservationService 结账预留服务。预留是对可用余额的建议性圈占，
// 不预先扣减余额；真正的非负保证在提交时由账本门面的原子出账承担。
// 未提交的预留由存储 TTL 自动回收，对余额零影响。
type ReservationService struct {
	repo   repository.ReservationRepository
	credit *CreditService
	ttl    time.Duration
}

// ReserveInput 创建预留输入。ReservationID 由结账方提供（外部折扣码ID）。
type ReserveInput struct {
	Email          string
	RequestedCents models.Cents
	ReservationID  string
	CheckoutRef    string
}

// NewReservationService 创建预留服务
func NewReservationService(repo repository.ReservationRepository, credit *CreditService, ttl time.Duration) *ReservationService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReservationService{repo: repo, credit: credit, ttl: ttl}
}

// Reserve 创建预留：金额取 min(请求金额, 当前余额)。余额为零时
// 返回 ErrNothingToReserve。余额读取是建议性的，不构成原子持有。
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*models.Reservation, error) {
	if s == nil || s.repo == nil || s.credit == nil {
		return nil, ErrStoreUnavailable
	}
	email := NormalizeEmail(input.Email)
	id := strings.TrimSpace(input.ReservationID)
	if email == "" || id == "" || input.RequestedCents <= 0 {
		return nil, ErrReservationInvalid
	}

	info, err := s.credit.GetBalance(ctx, email)
	if err != nil {
		return nil, err
	}
	if info.Cents <= 0 {
		return nil, ErrNothingToReserve
	}
	amount := input.RequestedCents
	if info.Cents < amount {
		amount = info.Cents
	}

	now := time.Now()
	reservation := &models.Reservation{
		ID:          id,
		Email:       email,
		Amount:      amount,
		CheckoutRef: strings.TrimSpace(input.CheckoutRef),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, reservation, s.ttl); err != nil {
		logger.Warnw("reservation create failed", "reservation_id", id, "error", err)
		// SetNX 失败且无底层错误说明同 ID 预留已存在
		if existing, getErr := s.repo.Get(ctx, id); getErr == nil && existing != nil {
			return nil, ErrReservationConflict
		}
		return nil, ErrStoreUnavailable
	}
	return reservation, nil
}

// Commit 提交预留：原子取出预留后走账本出账。预留不存在或已过期
// 返回 ErrReservationNotFound；余额在预留后被其他提交耗尽时出账
// 失败并如实上报 ErrInsufficientCredit，不做重试。
func (s *ReservationService) Commit(ctx context.Context, reservationID string) (*models.Transaction, error) {
	if s == nil || s.repo == nil || s.credit == nil {
		return nil, ErrStoreUnavailable
	}
	id := strings.TrimSpace(reservationID)
	if id == "" {
		return nil, ErrReservationInvalid
	}

	reservation, err := s.repo.Claim(ctx, id)
	if err != nil {
		logger.Warnw("reservation claim failed", "reservation_id", id, "error", err)
		return nil, ErrStoreUnavailable
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}

	txn, err := s.credit.Debit(ctx, CreditChangeInput{
		Email:     reservation.Email,
		Amount:    reservation.Amount,
		Source:    models.TxnSourcePurchase,
		Reference: reservation.CheckoutRef,
		Remark:    "checkout credit applied",
	})
	if err != nil {
		logger.Warnw("reservation commit debit failed", "reservation_id", id, "email", reservation.Email, "error", err)
		// 瞬时存储故障时出账未发生，把被取出的预留放回去，
		// 结账方重试提交仍能找到它
		if errors.Is(err, ErrStoreUnavailable) {
			s.restoreReservation(ctx, reservation)
		}
		return nil, err
	}
	return txn, nil
}

// restoreReservation 按剩余 TTL 写回已取出但未提交成功的预留
func (s *ReservationService) restoreReservation(ctx context.Context, reservation *models.Reservation) {
	remaining := time.Until(reservation.ExpiresAt)
	if remaining <= 0 {
		return
	}
	if err := s.repo.Create(ctx, reservation, remaining); err != nil {
		logger.Errorw("reservation restore failed", "reservation_id", reservation.ID, "error", err)
	}
}

// Get 查询预留（不存在或已过期返回 ErrReservationNotFound）
func (s *ReservationService) Get(ctx context.Context, reservationID string) (*models.Reservation, error) {
	if s == nil || s.repo == nil {
		return nil, ErrStoreUnavailable
	}
	id := strings.TrimSpace(reservationID)
	if id == "" {
		return nil, ErrReservationInvalid
	}
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

// Release 主动释放预留（结账取消时调用，等价于提前过期）
func (s *ReservationService) Release(ctx context.Context, reservationID string) error {
	if s == nil || s.repo == nil {
		return ErrStoreUnavailable
	}
	id := strings.TrimSpace(reservationID)
	if id == "" {
		return ErrReservationInvalid
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}
