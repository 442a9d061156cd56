package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/node-dojo/dojo-store-api/internal/constants"
	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/models"
)

// GiftCardRepository 礼品卡仓储接口
type GiftCardRepository interface {
	// Create 仅当卡号未被占用时写入，返回是否写入成功（false 表示碰撞）
	Create(ctx context.Context, card *models.GiftCard) (bool, error)
	Get(ctx context.Context, code string) (*models.GiftCard, error)
	Update(ctx context.Context, card *models.GiftCard) error
	// List 按签发倒序返回最近 limit 张卡，limit <= 0 表示全部
	List(ctx context.Context, limit int) ([]models.GiftCard, error)
	// ClaimRedemption 抢占兑换权，同一卡号只有第一个调用方成功
	ClaimRedemption(ctx context.Context, code, email string) (bool, error)
	// ReleaseRedemption 入账失败时释放兑换权，允许重试
	ReleaseRedemption(ctx context.Context, code string) error
}

// KVGiftCardRepository 键值存储礼品卡仓储实现
type KVGiftCardRepository struct {
	store kvstore.Store
}

// NewGiftCardRepository 创建礼品卡仓储
func NewGiftCardRepository(store kvstore.Store) *KVGiftCardRepository {
	return &KVGiftCardRepository{store: store}
}

// Create 占用卡号并登记到签发索引
func (r *KVGiftCardRepository) Create(ctx context.Context, card *models.GiftCard) (bool, error) {
	payload, err := json.Marshal(card)
	if err != nil {
		return false, fmt.Errorf("marshal gift card: %w", err)
	}
	ok, err := r.store.SetNX(ctx, giftCardKey(card.Code), string(payload), 0)
	if err != nil || !ok {
		return false, err
	}
	if err := r.store.PushFront(ctx, constants.KeyGiftCardIndex, card.Code); err != nil {
		return true, err
	}
	return true, nil
}

// Get 按卡号读取礼品卡，不存在返回 nil
func (r *KVGiftCardRepository) Get(ctx context.Context, code string) (*models.GiftCard, error) {
	value, found, err := r.store.Get(ctx, giftCardKey(code))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var card models.GiftCard
	if err := json.Unmarshal([]byte(value), &card); err != nil {
		return nil, fmt.Errorf("unmarshal gift card %s: %w", code, err)
	}
	return &card, nil
}

// Update 覆盖写入礼品卡（兑换状态变更）
func (r *KVGiftCardRepository) Update(ctx context.Context, card *models.GiftCard) error {
	payload, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal gift card: %w", err)
	}
	return r.store.Set(ctx, giftCardKey(card.Code), string(payload), 0)
}

// ClaimRedemption 用 SetNX 抢占兑换权
func (r *KVGiftCardRepository) ClaimRedemption(ctx context.Context, code, email string) (bool, error) {
	return r.store.SetNX(ctx, constants.KeyPrefixCardClaim+code, email, 0)
}

// ReleaseRedemption 释放兑换权
func (r *KVGiftCardRepository) ReleaseRedemption(ctx context.Context, code string) error {
	return r.store.Delete(ctx, constants.KeyPrefixCardClaim+code)
}

// List 按签发倒序返回礼品卡
func (r *KVGiftCardRepository) List(ctx context.Context, limit int) ([]models.GiftCard, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	codes, err := r.store.ListRange(ctx, constants.KeyGiftCardIndex, 0, stop)
	if err != nil {
		return nil, err
	}
	cards := make([]models.GiftCard, 0, len(codes))
	for _, code := range codes {
		card, err := r.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		if card == nil {
			continue
		}
		cards = append(cards, *card)
	}
	return cards, nil
}
