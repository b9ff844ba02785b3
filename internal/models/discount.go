package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type DiscountCode struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"`
	DiscountValue int64     `json:"discountValue" db:"discount_value"`
	UsageCount    int       `json:"usageCount" db:"usage_count"`
	UsageLimit    int       `json:"usageLimit" db:"usage_limit"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Redeemable reports whether the code still has unused redemptions.
func (d *DiscountCode) Redeemable() bool {
	return d.UsageCount < d.UsageLimit
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AppliedDiscount is the discount remembered in a session after a preview.
type AppliedDiscount struct {
	Code          string `json:"code"`
	DiscountValue int64  `json:"discountValue"`
}
