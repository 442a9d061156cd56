package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/node-dojo/dojo-store-api/internal/http/handlers/shared"
	"github.com/node-dojo/dojo-store-api/internal/http/response"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

const giftCardListMaxLimit = 500

// GenerateGiftCardsRequest 生成礼品卡请求
type GenerateGiftCardsRequest struct {
	Quantity   int    `json:"quantity" binding:"required"`
	ValueCents int64  `json:"value_cents" binding:"required"`
	Note       string `json:"note"`
}

// ExportGiftCardsRequest 导出礼品卡请求
type ExportGiftCardsRequest struct {
	Codes  []string `json:"codes" binding:"required"`
	Format string   `json:"format" binding:"required"`
}

// GenerateGiftCards 管理端生成礼品卡
func (h *Handler) GenerateGiftCards(c *gin.Context) {
	adminEmail, ok := getAdminEmail(c)
	if !ok {
		return
	}
	var req GenerateGiftCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	cards, err := h.GiftCardService.IssueGiftCards(c.Request.Context(), service.IssueGiftCardsInput{
		Quantity: req.Quantity,
		Value:    models.Cents(req.ValueCents),
		IssuedBy: adminEmail,
		Note:     strings.TrimSpace(req.Note),
	})
	if err != nil {
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

	response.Success(c, gin.H{
		"gift_cards": cards,
		"count":      len(cards),
	})
}

// GetGiftCards 获取礼品卡列表（签发倒序）
func (h *Handler) GetGiftCards(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	limit = handlershared.NormalizeLimit(limit, 100, giftCardListMaxLimit)

	cards, err := h.GiftCardService.ListGiftCards(c.Request.Context(), limit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.credit_fetch_failed", err)
		return
	}

	status := strings.TrimSpace(strings.ToLower(c.Query("status")))
	if status != "" {
		filtered := cards[:0]
		for _, card := range cards {
			if card.Status == status {
				filtered = append(filtered, card)
			}
		}
		cards = filtered
	}

	response.Success(c, gin.H{
		"gift_cards": cards,
		"count":      len(cards),
	})
}

// GetGiftCard 按卡号获取礼品卡详情
func (h *Handler) GetGiftCard(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		return
	}

	card, err := h.GiftCardService.GetGiftCard(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "error.gift_card_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.credit_fetch_failed", err)
		}
		return
	}

	response.Success(c, card)
}

// ExportGiftCards 导出礼品卡（csv/txt 文件下载）
func (h *Handler) ExportGiftCards(c *gin.Context) {
	var req ExportGiftCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	content, contentType, err := h.GiftCardService.ExportGiftCards(c.Request.Context(), req.Codes, req.Format)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftCardNotFound):
			respondError(c, response.CodeNotFound, "error.gift_card_not_found", nil)
		case errors.Is(err, service.ErrGiftCardInvalid):
			respondError(c, response.CodeBadRequest, "error.gift_card_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.gift_card_export_failed", err)
		}
		return
	}

	filename := fmt.Sprintf("gift_cards_%s.%s", time.Now().Format("20060102_150405"), strings.ToLower(strings.TrimSpace(req.Format)))
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, content)
}
