package admin

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/node-dojo/dojo-store-api/internal/http/handlers/shared"
	"github.com/node-dojo/dojo-store-api/internal/http/response"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

const adminHistoryMaxLimit = 500

// 管理端额度调整方向
const (
	adjustDirectionAdd    = "add"
	adjustDirectionDeduct = "deduct"
	adjustDirectionRefund = "refund"
)

// AdjustCreditRequest 管理端额度调整请求
type AdjustCreditRequest struct {
	Email       string `json:"email" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Direction   string `json:"direction" binding:"required"`
	Reference   string `json:"reference"`
	Remark      string `json:"remark"`
}

// GetAccountCredit 查询账户余额
func (h *Handler) GetAccountCredit(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		return
	}

	balance, err := h.CreditService.GetBalance(c.Request.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.credit_fetch_failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"email":   service.NormalizeEmail(email),
		"balance": balance,
	})
}

// GetAccountTransactions 查询账户流水（新在前）
func (h *Handler) GetAccountTransactions(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	limit = handlershared.NormalizeLimit(limit, h.Config.Ledger.HistoryDefaultLimit, adminHistoryMaxLimit)

	transactions, err := h.CreditService.GetHistory(c.Request.Context(), email, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.credit_fetch_failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"email":        service.NormalizeEmail(email),
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// AdjustCredit 管理端调整账户额度（加款/扣款/退款）
func (h *Handler) AdjustCredit(c *gin.Context) {
	adminEmail, ok := getAdminEmail(c)
	if !ok {
		return
	}
	var req AdjustCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	input := service.CreditChangeInput{
		Email:     req.Email,
		Amount:    models.Cents(req.AmountCents),
		Source:    models.TxnSourceAdmin,
		Reference: strings.TrimSpace(req.Reference),
		Remark:    strings.TrimSpace(req.Remark),
	}

	var txn *models.Transaction
	var err error
	switch strings.TrimSpace(strings.ToLower(req.Direction)) {
	case adjustDirectionAdd:
		txn, err = h.CreditService.Credit(c.Request.Context(), input)
	case adjustDirectionDeduct:
		txn, err = h.CreditService.Debit(c.Request.Context(), input)
	case adjustDirectionRefund:
		input.Source = models.TxnSourceRefund
		txn, err = h.CreditService.Refund(c.Request.Context(), input)
	default:
		respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCreditInvalid):
			respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		case errors.Is(err, service.ErrInsufficientCredit):
			respondError(c, response.CodeUnprocessable, "error.insufficient_credit", nil)
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("admin_credit_adjusted",
		"admin", adminEmail,
		"email", txn.Email,
		"direction", req.Direction,
		"amount_cents", req.AmountCents,
	)
	response.Success(c, txn)
}

// GetAdminReservation 查询预留详情
func (h *Handler) GetAdminReservation(c *gin.Context) {
	reservationID := strings.TrimSpace(c.Param("id"))
	if reservationID == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		return
	}

	reservation, err := h.ReservationService.Get(c.Request.Context(), reservationID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			respondError(c, response.CodeNotFound, "error.reservation_not_found", nil)
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.reservation_failed", err)
		}
		return
	}

	response.Success(c, reservation)
}

// ReleaseAdminReservation 取消预留（仅删除建议性标记，不动余额）
func (h *Handler) ReleaseAdminReservation(c *gin.Context) {
	reservationID := strings.TrimSpace(c.Param("id"))
	if reservationID == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		return
	}

	if err := h.ReservationService.Release(c.Request.Context(), reservationID); err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			respondError(c, response.CodeNotFound, "error.reservation_not_found", nil)
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.reservation_failed", err)
		}
		return
	}

	response.Success(c, gin.H{"released": true})
}
