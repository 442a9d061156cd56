package public

import (
	"errors"
	"strconv"

	handlershared "github.com/node-dojo/dojo-store-api/internal/http/handlers/shared"
	"github.com/node-dojo/dojo-store-api/internal/http/response"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

const historyMaxLimit = 200

// GetMyCredit 获取当前用户信用额度余额
func (h *Handler) GetMyCredit(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
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
	response.Success(c, balance)
}

// GetMyCreditTransactions 获取当前用户信用额度流水（新在前）
func (h *Handler) GetMyCreditTransactions(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	limit = handlershared.NormalizeLimit(limit, h.Config.Ledger.HistoryDefaultLimit, historyMaxLimit)

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
		"transactions": transactions,
		"count":        len(transactions),
	})
}
