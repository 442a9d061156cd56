package models

import (
	"time"
)

// 交易类型常量
const (
	TxnTypeCreditAdded  = "credit_added"
	TxnTypeCreditUsed   = "credit_used"
	TxnTypeCreditRefund = "credit_refund"
)

// 交易来源常量
const (
	TxnSourceGiftCard = "gift_card"
	TxnSourcePurchase = "purchase"
	TxnSourceRefund   = "refund"
	TxnSourceAdmin    = "admin_adjust"
)

// Transaction 账本交易记录（存储于键 txn:{email}:{id}，索引 txn-index:{email}）。
// 创建后不可修改或删除。
type Transaction struct {
	ID           string    `json:"id"`                  // 交易ID（uuid）
	Email        string    `json:"email"`               // 账户邮箱（小写）
	Type         string    `json:"type"`                // 交易类型 credit_added/credit_used/credit_refund
	Source       string    `json:"source"`              // 来源 gift_card/purchase/refund/admin_adjust
	Amount       Cents     `json:"amount_cents"`        // 变动金额（入账为正，出账为负）
	BalanceAfter Cents     `json:"balance_after_cents"` // 变动后余额
	Reference    string    `json:"reference,omitempty"` // 业务关联（卡号/订单号/预留ID）
	Remark       string    `json:"remark,omitempty"`    // 备注
	CreatedAt    time.Time `json:"created_at"`          // 发生时间
}

// BalanceInfo 余额快照
type BalanceInfo struct {
	Cents         Cents      `json:"balance_cents"`             // 当前余额
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"` // 最近一次变动时间（无交易为空）
}

// PendingTxn 交易落账前的预写记录（存储于键 txn-wal:{id}，落账后删除）
type PendingTxn struct {
	Txn       Transaction `json:"txn"`        // 待落账交易
	Phase     string      `json:"phase"`      // 阶段 written/applied
	WrittenAt time.Time   `json:"written_at"` // 预写时间
}
