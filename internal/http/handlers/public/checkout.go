package public

import (
	"errors"
	"strings"

	"github.com/node-dojo/dojo-store-api/internal/http/response"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ReserveCreditRequest 结账预留请求。reservation_id 由结账方提供（外部折扣码ID）。
type ReserveCreditRequest struct {
	RequestedCents int64  `json:"requested_cents" binding:"required"`
	ReservationID  string `json:"reservation_id" binding:"required"`
	CheckoutRef    string `json:"checkout_ref"`
}

// ReserveCredit 结账时预留信用额度
func (h *Handler) ReserveCredit(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}
	var req ReserveCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	reservation, err := h.ReservationService.Reserve(c.Request.Context(), service.ReserveInput{
		Email:          email,
		RequestedCents: models.Cents(req.RequestedCents),
		ReservationID:  strings.TrimSpace(req.ReservationID),
		CheckoutRef:    strings.TrimSpace(req.CheckoutRef),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationInvalid):
			respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		case errors.Is(err, service.ErrNothingToReserve):
			respondError(c, response.CodeUnprocessable, "error.nothing_to_reserve", nil)
		case errors.Is(err, service.ErrReservationConflict):
			respondError(c, response.CodeConflict, "error.reservation_conflict", nil)
		case errors.Is(err, service.ErrStoreUnavailable):
			respondError(c, response.CodeUnavailable, "error.store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.reservation_failed", err)
		}
		return
	}

	response.Success(c, reservation)
}

// GetReservation 查询当前用户的预留。仅允许查询属于自己的预留。
func (h *Handler) GetReservation(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}
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
	if reservation.Email != email {
		respondError(c, response.CodeNotFound, "error.reservation_not_found", nil)
		return
	}

	response.Success(c, reservation)
}
