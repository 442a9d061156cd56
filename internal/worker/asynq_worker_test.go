package worker

import (
	"context"
	"testing"

	"github.com/node-dojo/dojo-store-api/internal/provider"
	"github.com/node-dojo/dojo-store-api/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleGiftCardDeliveryBadPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskGiftCardDelivery, []byte("{not json"))
	if err := consumer.handleGiftCardDelivery(context.Background(), task); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestHandleGiftCardDeliverySkipsEmptyPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, err := queue.NewGiftCardDeliveryTask(queue.GiftCardDeliveryPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	// 空收件人不可重试，直接吞掉
	if err := consumer.handleGiftCardDelivery(context.Background(), task); err != nil {
		t.Fatalf("empty payload must be skipped, got %v", err)
	}
}

func TestHandleRedemptionReceiptSkipsWhenEmailServiceMissing(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, err := queue.NewRedemptionReceiptTask(queue.RedemptionReceiptPayload{
		Email:           "member@example.com",
		Code:            "DOJO-AAAA-BBBB-CCCC",
		ValueCents:      5000,
		NewBalanceCents: 5000,
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleRedemptionReceipt(context.Background(), task); err != nil {
		t.Fatalf("missing email service must not fail the task, got %v", err)
	}
}
