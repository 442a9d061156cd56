package service

import (
	"context"
	crand "crypto/rand"
	"encoding/csv"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/constants"
	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/repository"
)

const (
	giftCardCodeMaxAttempts   = 5
	giftCardIssueMaxQuantity  = 1000
	giftCardRedeemMaxAttempts = 3
)

// GiftCardService 礼品卡服务
type GiftCardService struct {
	repo   repository.GiftCardRepository
	credit *CreditService
}

// IssueGiftCardsInput 签发礼品卡输入
type IssueGiftCardsInput struct {
	Quantity       int
	Value          models.Cents
	PurchaserEmail string
	OrderID        string
	IssuedBy       string
	Note           string
}

// GiftCardRedeemInput 礼品卡兑换输入
type GiftCardRedeemInput struct {
	Email string
	Code  string
}

// GiftCardRedeemResult 礼品卡兑换结果
type GiftCardRedeemResult struct {
	Card            *models.GiftCard
	Txn             *models.Transaction
	NewBalanceCents models.Cents
	ValueAddedCents models.Cents
}

// NewGiftCardService 创建礼品卡服务
func NewGiftCardService(repo repository.GiftCardRepository, credit *CreditService) *GiftCardService {
	return &GiftCardService{repo: repo, credit: credit}
}

// IssueGiftCards 签发礼品卡。只创建卡记录，不触碰任何余额。
func (s *GiftCardService) IssueGiftCards(ctx context.Context, input IssueGiftCardsInput) ([]models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardCreateFailed
	}
	if input.Quantity <= 0 || input.Quantity > giftCardIssueMaxQuantity {
		return nil, ErrGiftCardInvalid
	}
	if input.Value <= 0 {
		return nil, ErrGiftCardInvalid
	}

	now := time.Now()
	cards := make([]models.GiftCard, 0, input.Quantity)
	for i := 0; i < input.Quantity; i++ {
		card := models.GiftCard{
			Value:          input.Value,
			Status:         models.GiftCardStatusActive,
			PurchaserEmail: NormalizeEmail(input.PurchaserEmail),
			OrderID:        strings.TrimSpace(input.OrderID),
			IssuedBy:       NormalizeEmail(input.IssuedBy),
			Note:           strings.TrimSpace(input.Note),
			CreatedAt:      now,
		}
		created := false
		for attempt := 0; attempt < giftCardCodeMaxAttempts; attempt++ {
			code, err := generateGiftCardCode()
			if err != nil {
				return nil, ErrGiftCardCreateFailed
			}
			card.Code = code
			ok, err := s.repo.Create(ctx, &card)
			if err != nil {
				logger.Warnw("gift card create failed", "code", card.Code, "error", err)
				return nil, ErrStoreUnavailable
			}
			if ok {
				created = true
				break
			}
			// 卡号碰撞，换一个再试
			logger.Warnw("gift card code collision", "code", card.Code)
		}
		if !created {
			return nil, ErrGiftCardCreateFailed
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// GetGiftCard 按卡号查询礼品卡
func (s *GiftCardService) GetGiftCard(ctx context.Context, code string) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrStoreUnavailable
	}
	normalized := NormalizeGiftCardCode(code)
	if normalized == "" {
		return nil, ErrGiftCardNotFound
	}
	card, err := s.repo.Get(ctx, normalized)
	if err != nil {
		logger.Warnw("gift card lookup failed", "code", normalized, "error", err)
		return nil, ErrStoreUnavailable
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	return card, nil
}

// ListGiftCards 按签发倒序返回礼品卡
func (s *GiftCardService) ListGiftCards(ctx context.Context, limit int) ([]models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrStoreUnavailable
	}
	cards, err := s.repo.List(ctx, limit)
	if err != nil {
		logger.Warnw("gift card list failed", "error", err)
		return nil, ErrStoreUnavailable
	}
	return cards, nil
}

// RedeemGiftCard 兑换礼品卡：校验状态 → 抢占兑换权 → 入账 → 标记已兑换。
// 标记步骤失败会重试到底，保证重放请求能看到已兑换状态。
func (s *GiftCardService) RedeemGiftCard(ctx context.Context, input GiftCardRedeemInput) (*GiftCardRedeemResult, error) {
	if s == nil || s.repo == nil || s.credit == nil {
		return nil, ErrStoreUnavailable
	}
	email := NormalizeEmail(input.Email)
	code := NormalizeGiftCardCode(input.Code)
	if email == "" {
		return nil, ErrGiftCardInvalid
	}
	if code == "" {
		return nil, ErrGiftCardNotFound
	}

	card, err := s.GetGiftCard(ctx, code)
	if err != nil {
		return nil, err
	}
	// 已兑换状态是唯一权威判定，重放请求在这里被拦下
	if card.Redeemed() {
		return nil, ErrGiftCardRedeemed
	}
	if card.Value <= 0 {
		return nil, ErrGiftCardInvalid
	}

	claimed, err := s.repo.ClaimRedemption(ctx, code, email)
	if err != nil {
		logger.Warnw("gift card claim failed", "code", code, "error", err)
		return nil, ErrStoreUnavailable
	}
	if !claimed {
		return nil, ErrGiftCardRedeemed
	}

	txn, err := s.credit.Credit(ctx, CreditChangeInput{
		Email:     email,
		Amount:    card.Value,
		Source:    models.TxnSourceGiftCard,
		Reference: code,
		Remark:    "gift card redemption",
	})
	if err != nil {
		// 入账未发生，释放兑换权允许重试
		if releaseErr := s.repo.ReleaseRedemption(ctx, code); releaseErr != nil {
			logger.Errorw("gift card claim release failed", "code", code, "error", releaseErr)
		}
		return nil, err
	}

	now := time.Now()
	card.Status = models.GiftCardStatusRedeemed
	card.RedeemedAt = &now
	card.RedeemedBy = email
	card.TxnID = txn.ID

	// 入账已成立，兑换标记必须写到成功为止
	var updateErr error
	for attempt := 0; attempt < giftCardRedeemMaxAttempts; attempt++ {
		if updateErr = s.repo.Update(ctx, card); updateErr == nil {
			break
		}
		logger.Warnw("gift card mark redeemed failed", "code", code, "attempt", attempt+1, "error", updateErr)
	}
	if updateErr != nil {
		logger.Errorw("gift card left unmarked after credit", "code", code, "txn_id", txn.ID, "error", updateErr)
		return nil, ErrGiftCardUpdateFailed
	}

	return &GiftCardRedeemResult{
		Card:            card,
		Txn:             txn,
		NewBalanceCents: txn.BalanceAfter,
		ValueAddedCents: card.Value,
	}, nil
}

// ExportGiftCards 导出礼品卡（csv 或 txt）
func (s *GiftCardService) ExportGiftCards(ctx context.Context, codes []string, format string) ([]byte, string, error) {
	if s == nil || s.repo == nil {
		return nil, "", ErrStoreUnavailable
	}
	normalizedFormat := strings.TrimSpace(strings.ToLower(format))
	if normalizedFormat != constants.ExportFormatCSV && normalizedFormat != constants.ExportFormatTXT {
		return nil, "", ErrGiftCardInvalid
	}
	cards := make([]models.GiftCard, 0, len(codes))
	for _, raw := range codes {
		code := NormalizeGiftCardCode(raw)
		if code == "" {
			continue
		}
		card, err := s.repo.Get(ctx, code)
		if err != nil {
			return nil, "", ErrStoreUnavailable
		}
		if card == nil {
			continue
		}
		cards = append(cards, *card)
	}
	if len(cards) == 0 {
		return nil, "", ErrGiftCardNotFound
	}

	if normalizedFormat == constants.ExportFormatTXT {
		lines := make([]string, 0, len(cards))
		for _, card := range cards {
			lines = append(lines, card.Code)
		}
		return []byte(strings.Join(lines, "\n")), "text/plain; charset=utf-8", nil
	}

	builder := &strings.Builder{}
	writer := csv.NewWriter(builder)
	if err := writer.Write([]string{"code", "value", "status", "purchaser_email", "order_id", "redeemed_by", "redeemed_at", "created_at"}); err != nil {
		return nil, "", ErrGiftCardCreateFailed
	}
	for _, card := range cards {
		redeemedAt := ""
		if card.RedeemedAt != nil {
			redeemedAt = card.RedeemedAt.Format(time.RFC3339)
		}
		record := []string{
			card.Code,
			card.Value.String(),
			card.Status,
			card.PurchaserEmail,
			card.OrderID,
			card.RedeemedBy,
			redeemedAt,
			card.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", ErrGiftCardCreateFailed
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", ErrGiftCardCreateFailed
	}
	return []byte(builder.String()), "text/csv; charset=utf-8", nil
}

// NormalizeGiftCardCode 卡号归一化（大写、去首尾空白）
func NormalizeGiftCardCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateGiftCardCode 生成 DOJO-XXXX-XXXX-XXXX 形式的卡号。
// 字符表剔除了 0/O/1/I 等易混淆字符，随机源为 crypto/rand。
func generateGiftCardCode() (string, error) {
	alphabet := constants.GiftCardCodeAlphabet
	size := big.NewInt(int64(len(alphabet)))
	groups := make([]string, 0, constants.GiftCardCodeGroups+1)
	groups = append(groups, constants.GiftCardCodePrefix)
	for g := 0; g < constants.GiftCardCodeGroups; g++ {
		var group strings.Builder
		for c := 0; c < constants.GiftCardGroupLength; c++ {
			n, err := crand.Int(crand.Reader, size)
			if err != nil {
				return "", fmt.Errorf("gift card code entropy: %w", err)
			}
			group.WriteByte(alphabet[n.Int64()])
		}
		groups = append(groups, group.String())
	}
	return strings.Join(groups, "-"), nil
}
