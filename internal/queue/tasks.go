package queue

import (
	"encoding/json"

	"github.com/node-dojo/dojo-store-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGiftCardDelivery 礼品卡交付邮件任务
	TaskGiftCardDelivery = constants.TaskGiftCardDelivery
	// TaskRedemptionReceipt 兑换回执邮件任务
	TaskRedemptionReceipt = constants.TaskRedemptionReceipt
)

// GiftCardDeliveryPayload 礼品卡交付邮件任务载荷
type GiftCardDeliveryPayload struct {
	Email      string   `json:"email"`
	Codes      []string `json:"codes"`
	ValueCents int64    `json:"value_cents"`
	OrderID    string   `json:"order_id"`
	Locale     string   `json:"locale"`
}

// RedemptionReceiptPayload 兑换回执邮件任务载荷
type RedemptionReceiptPayload struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	ValueCents      int64  `json:"value_cents"`
	NewBalanceCents int64  `json:"new_balance_cents"`
	Locale          string `json:"locale"`
}

// NewGiftCardDeliveryTask 创建礼品卡交付邮件任务
func NewGiftCardDeliveryTask(payload GiftCardDeliveryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftCardDelivery, body), nil
}

// NewRedemptionReceiptTask 创建兑换回执邮件任务
func NewRedemptionReceiptTask(payload RedemptionReceiptPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedemptionReceipt, body), nil
}
