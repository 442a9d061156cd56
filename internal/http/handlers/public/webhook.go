package public

import (
	"errors"
	"strings"

	"github.com/node-dojo/dojo-store-api/internal/cache"
	"github.com/node-dojo/dojo-store-api/internal/http/response"
	"github.com/node-dojo/dojo-store-api/internal/i18n"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/queue"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

// 回调事件提供方标识，用于重放去重键
const (
	webhookProviderCheckout    = "checkout"
	webhookProviderFulfillment = "fulfillment"
)

// CheckoutCompletedRequest 结账完成回调。reservation_id 对应预留时的外部折扣码ID。
type CheckoutCompletedRequest struct {
	EventID       string `json:"event_id" binding:"required"`
	ReservationID string `json:"reservation_id" binding:"required"`
	OrderID       string `json:"order_id"`
}

// CheckoutCompleted 结账完成：落实预留的信用额度扣减。
// 预留提交本身只会成功一次，事件去重仅用于提前挡掉重放。
func (h *Handler) CheckoutCompleted(c *gin.Context) {
	var req CheckoutCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	claimed, err := cache.ClaimWebhookEvent(c.Request.Context(), webhookProviderCheckout, req.EventID)
	if err != nil {
		requestLog(c).Warnw("webhook_claim_failed", "event_id", req.EventID, "error", err)
	} else if !claimed {
		respondError(c, response.CodeConflict, "error.webhook_duplicate", nil)
		return
	}

	txn, err := h.ReservationService.Commit(c.Request.Context(), strings.TrimSpace(req.ReservationID))
	if err != nil {
		// 提交失败时释放事件标记，允许回调方重试同一事件。
		if releaseErr := cache.ReleaseWebhookEvent(c.Request.Context(), webhookProviderCheckout, req.EventID); releaseErr != nil {
			requestLog(c).Warnw("webhook_release_failed", "event_id", req.EventID, "error", releaseErr)
		}
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			respondError(c, response.CodeNotFound, "error.reservation_not_found", nil)
		case errors.Is(err, service.ErrInsufficientCredit):
			respondError(c, response.CodeUnprocessable, "error.insufficient_credit", nil)
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.webhook_failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"transaction": txn,
	})
}

// GiftCardFulfilledRequest 礼品卡订单履约回调
type GiftCardFulfilledRequest struct {
	EventID        string `json:"event_id" binding:"required"`
	OrderID        string `json:"order_id" binding:"required"`
	PurchaserEmail string `json:"purchaser_email" binding:"required"`
	RecipientEmail string `json:"recipient_email"`
	Quantity       int    `json:"quantity" binding:"required"`
	ValueCents     int64  `json:"value_cents" binding:"required"`
}

// GiftCardFulfilled 礼品卡订单履约：签发卡并投递送达邮件。
func (h *Handler) GiftCardFulfilled(c *gin.Context) {
	var req GiftCardFulfilledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	claimed, err := cache.ClaimWebhookEvent(c.Request.Context(), webhookProviderFulfillment, req.EventID)
	if err != nil {
		requestLog(c).Warnw("webhook_claim_failed", "event_id", req.EventID, "error", err)
	} else if !claimed {
		respondError(c, response.CodeConflict, "error.webhook_duplicate", nil)
		return
	}

	cards, err := h.GiftCardService.IssueGiftCards(c.Request.Context(), service.IssueGiftCardsInput{
		Quantity:       req.Quantity,
		Value:          models.Cents(req.ValueCents),
		PurchaserEmail: strings.TrimSpace(req.PurchaserEmail),
		OrderID:        strings.TrimSpace(req.OrderID),
	})
	if err != nil {
		if releaseErr := cache.ReleaseWebhookEvent(c.Request.Context(), webhookProviderFulfillment, req.EventID); releaseErr != nil {
			requestLog(c).Warnw("webhook_release_failed", "event_id", req.EventID, "error", releaseErr)
		}
		switch {
		case errors.Is(err, service.ErrGiftCardInvalid):
			respondError(c, response.CodeBadRequest, "error.gift_card_invalid", nil)
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.gift_card_create_failed", err)
		}
		return
	}

	h.enqueueGiftCardDelivery(c, req, cards)

	response.Success(c, gin.H{
		"gift_cards": cards,
		"count":      len(cards),
	})
}

// enqueueGiftCardDelivery 签发成功后投递送达邮件任务。收件人默认购卡人。
func (h *Handler) enqueueGiftCardDelivery(c *gin.Context, req GiftCardFulfilledRequest, cards []models.GiftCard) {
	if h.QueueClient == nil || len(cards) == 0 {
		return
	}
	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" {
		recipient = strings.TrimSpace(req.PurchaserEmail)
	}
	codes := make([]string, 0, len(cards))
	for _, card := range cards {
		codes = append(codes, card.Code)
	}
	err := h.QueueClient.EnqueueGiftCardDelivery(queue.GiftCardDeliveryPayload{
		Email:      recipient,
		Codes:      codes,
		ValueCents: req.ValueCents,
		OrderID:    req.OrderID,
		Locale:     i18n.ResolveLocale(c),
	})
	if err != nil {
		requestLog(c).Warnw("gift_card_delivery_enqueue_failed", "order_id", req.OrderID, "error", err)
	}
}
