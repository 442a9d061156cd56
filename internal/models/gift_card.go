package models

import (
	"time"
)

const (
	GiftCardStatusActive   = "active"
	GiftCardStatusRedeemed = "redeemed"
)

// GiftCard 礼品卡（存储于键 giftcard:{code}）。签发后除兑换状态外只读。
type GiftCard struct {
	Code           string     `json:"code"`                      // 卡号（DOJO-XXXX-XXXX-XXXX）
	Value          Cents      `json:"value_cents"`               // 面额（美分）
	Status         string     `json:"status"`                    // 状态 active/redeemed
	PurchaserEmail string     `json:"purchaser_email,omitempty"` // 购卡人邮箱
	OrderID        string     `json:"order_id,omitempty"`        // 购卡订单号
	IssuedBy       string     `json:"issued_by,omitempty"`       // 后台签发人（手工签发时）
	Note           string     `json:"note,omitempty"`            // 备注
	CreatedAt      time.Time  `json:"created_at"`                // 签发时间
	RedeemedAt     *time.Time `json:"redeemed_at,omitempty"`     // 兑换时间
	RedeemedBy     string     `json:"redeemed_by,omitempty"`     // 兑换账户邮箱
	TxnID          string     `json:"txn_id,omitempty"`          // 兑换对应的交易ID
}

// Redeemed 是否已兑换（以兑换时间为准）
func (g *GiftCard) Redeemed() bool {
	return g != nil && (g.Status == GiftCardStatusRedeemed || g.RedeemedAt != nil)
}
