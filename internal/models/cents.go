package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents 统一金额类型（整数美分，避免浮点误差）
type Cents int64

// NewCentsFromDecimal 从十进制金额创建（四舍五入到分）
func NewCentsFromDecimal(amount decimal.Decimal) Cents {
	return Cents(amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// ParseCents 解析十进制金额字符串（如 "25.00"）为美分
func ParseCents(s string) (Cents, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	scaled := d.Mul(decimal.NewFromInt(100))
	if !scaled.Equal(scaled.Round(0)) {
		return 0, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	return Cents(scaled.IntPart()), nil
}

// Decimal 转换为十进制金额
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(decimal.NewFromInt(100))
}

// String 返回 2 位小数格式（如 "25.00"）
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// MarshalJSON 以整数美分输出
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(c))
}

// UnmarshalJSON 解析美分（整数）或金额字符串
func (c *Cents) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseCents(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Cents(n)
	return nil
}
