package public

import (
	"errors"
	"strings"

	"github.com/node-dojo/dojo-store-api/internal/constants"
	"github.com/node-dojo/dojo-store-api/internal/http/response"
	"github.com/node-dojo/dojo-store-api/internal/i18n"
	"github.com/node-dojo/dojo-store-api/internal/queue"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RedeemGiftCardRequest 兑换礼品卡请求
type RedeemGiftCardRequest struct {
	Code           string                `json:"code" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// RedeemGiftCard 用户兑换礼品卡
func (h *Handler) RedeemGiftCard(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}
	var req RedeemGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneGiftCardRedeem, req.CaptchaPayload.toServicePayload()); captchaErr != nil {
			switch {
			case errors.Is(captchaErr, service.ErrCaptchaRequired):
				respondError(c, response.CodeBadRequest, "error.captcha_required", nil)
			case errors.Is(captchaErr, service.ErrCaptchaInvalid):
				respondError(c, response.CodeBadRequest, "error.captcha_invalid", nil)
			default:
				respondError(c, response.CodeInternal, "error.captcha_config_invalid", captchaErr)
			}
			return
		}
	}

	result, err := h.GiftCardService.RedeemGiftCard(c.Request.Context(), service.GiftCardRedeemInput{
		Email: email,
		Code:  strings.TrimSpace(req.Code),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardInvalid):
			respondError(c, response.CodeBadRequest, "error.gift_card_invalid", nil)
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "error.gift_card_not_found", nil)
		case errors.Is(err, service.ErrGiftCardRedeemed):
			respondError(c, response.CodeBadRequest, "error.gift_card_redeemed", nil)
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.gift_card_redeem_failed", err)
		}
		return
	}

	h.enqueueRedemptionReceipt(c, email, result)

	response.Success(c, gin.H{
		"gift_card":    result.Card,
		"transaction":  result.Txn,
		"credit_added": result.ValueAddedCents,
		"new_balance":  result.NewBalanceCents,
	})
}

// enqueueRedemptionReceipt 兑换成功后投递回执邮件任务。投递失败只记日志，不影响兑换结果。
func (h *Handler) enqueueRedemptionReceipt(c *gin.Context, email string, result *service.GiftCardRedeemResult) {
	if h.QueueClient == nil || result == nil || result.Card == nil {
		return
	}
	err := h.QueueClient.EnqueueRedemptionReceipt(queue.RedemptionReceiptPayload{
		Email:           email,
		Code:            result.Card.Code,
		ValueCents:      int64(result.ValueAddedCents),
		NewBalanceCents: int64(result.NewBalanceCents),
		Locale:          i18n.ResolveLocale(c),
	})
	if err != nil {
		requestLog(c).Warnw("gift_card_receipt_enqueue_failed", "code", result.Card.Code, "error", err)
	}
}
