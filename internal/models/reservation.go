package models

import (
	"time"
)

// Reservation 结账预留（存储于键 pending:{id}，带 TTL）。
// ID 由结账方提供（外部折扣码ID），同一 ID 同时至多一条。
type Reservation struct {
	ID          string    `json:"id"`            // 预留ID（外部折扣码ID）
	Email       string    `json:"email"`         // 账户邮箱（小写）
	Amount      Cents     `json:"amount_cents"`  // 预留金额（正数，≤ 创建时余额）
	CheckoutRef string    `json:"checkout_ref"`  // 外部结账引用
	CreatedAt   time.Time `json:"created_at"`    // 创建时间
	ExpiresAt   time.Time `json:"expires_at"`    // 过期时间
}
