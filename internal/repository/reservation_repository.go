package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/models"
)

// ReservationRepository 结账预留仓储接口。预留键携带 TTL，
// 到期由存储自动回收。
type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.Reservation, error)
	// Claim 原子取出并删除预留，保证同一预留只会被提交一次。
	// 预留不存在（或已过期）时返回 nil。
	Claim(ctx context.Context, id string) (*models.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// KVReservationRepository 键值存储预留仓储实现
type KVReservationRepository struct {
	store kvstore.Store
}

// NewReservationRepository 创建预留仓储
func NewReservationRepository(store kvstore.Store) *KVReservationRepository {
	return &KVReservationRepository{store: store}
}

// Create 写入预留（ID 为 uuid，不存在碰撞，仍用 SetNX 防御重放）
func (r *KVReservationRepository) Create(ctx context.Context, reservation *models.Reservation, ttl time.Duration) error {
	payload, err := json.Marshal(reservation)
	if err != nil {
		return fmt.Errorf("marshal reservation: %w", err)
	}
	ok, err := r.store.SetNX(ctx, reservationKey(reservation.ID), string(payload), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("reservation id %s already exists", reservation.ID)
	}
	return nil
}

// Get 按ID读取预留，不存在返回 nil
func (r *KVReservationRepository) Get(ctx context.Context, id string) (*models.Reservation, error) {
	value, found, err := r.store.Get(ctx, reservationKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return unmarshalReservation(id, value)
}

// Claim 原子取出并删除预留
func (r *KVReservationRepository) Claim(ctx context.Context, id string) (*models.Reservation, error) {
	value, found, err := r.store.GetDel(ctx, reservationKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return unmarshalReservation(id, value)
}

// Delete 删除预留（提前释放）
func (r *KVReservationRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, reservationKey(id))
}

func unmarshalReservation(id, value string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := json.Unmarshal([]byte(value), &reservation); err != nil {
		return nil, fmt.Errorf("unmarshal reservation %s: %w", id, err)
	}
	return &reservation, nil
}
