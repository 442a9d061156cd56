package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/provider"
	"github.com/node-dojo/dojo-store-api/internal/queue"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskGiftCardDelivery, c.handleGiftCardDelivery)
	mux.HandleFunc(queue.TaskRedemptionReceipt, c.handleRedemptionReceipt)
}

func (c *Consumer) handleGiftCardDelivery(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_card_delivery_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftCardDeliveryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_card_delivery_unmarshal_failed", "error", err)
		return err
	}
	receiver := strings.TrimSpace(payload.Email)
	if receiver == "" || len(payload.Codes) == 0 {
		logger.Debugw("worker_gift_card_delivery_skip_invalid_payload", "email", receiver, "codes", len(payload.Codes))
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_gift_card_delivery_skip_email_service_nil", "email", receiver)
		return nil
	}
	for _, code := range payload.Codes {
		input := service.GiftCardDeliveryInput{
			Code:    code,
			Value:   models.Cents(payload.ValueCents),
			OrderID: payload.OrderID,
		}
		if err := c.EmailService.SendGiftCardDeliveryEmail(receiver, input, payload.Locale); err != nil {
			if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
				logger.Debugw("worker_gift_card_delivery_skip_disabled", "email", receiver)
				return nil
			}
			// 收件人被拒绝没有重试价值
			if errors.Is(err, service.ErrEmailRecipientRejected) {
				logger.Warnw("worker_gift_card_delivery_recipient_rejected", "email", receiver)
				return nil
			}
			logger.Warnw("worker_gift_card_delivery_send_failed", "email", receiver, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleRedemptionReceipt(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redemption_receipt_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedemptionReceiptPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redemption_receipt_unmarshal_failed", "error", err)
		return err
	}
	receiver := strings.TrimSpace(payload.Email)
	if receiver == "" || strings.TrimSpace(payload.Code) == "" {
		logger.Debugw("worker_redemption_receipt_skip_invalid_payload", "email", receiver, "code", payload.Code)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_redemption_receipt_skip_email_service_nil", "email", receiver)
		return nil
	}
	input := service.RedemptionReceiptInput{
		Code:            payload.Code,
		ValueAdded:      models.Cents(payload.ValueCents),
		NewBalanceCents: models.Cents(payload.NewBalanceCents),
	}
	if err := c.EmailService.SendRedemptionReceiptEmail(receiver, input, payload.Locale); err != nil {
		if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
			logger.Debugw("worker_redemption_receipt_skip_disabled", "email", receiver)
			return nil
		}
		if errors.Is(err, service.ErrEmailRecipientRejected) {
			logger.Warnw("worker_redemption_receipt_recipient_rejected", "email", receiver)
			return nil
		}
		logger.Warnw("worker_redemption_receipt_send_failed", "email", receiver, "error", err)
		return err
	}
	return nil
}
