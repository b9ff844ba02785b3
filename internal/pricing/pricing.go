// Package pricing computes the order breakdown shown at checkout: tax, flat
// shipping with a free-shipping threshold, a fixed-value discount and an
// optional loyalty point redemption.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront/internal/loyalty"
	"github.com/Cheertaboi/storefront/internal/models"
)

type Policy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold int64
	ShippingFee           int64
	Loyalty               loyalty.Policy
}

func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.NewFromFloat(0.10),
		FreeShippingThreshold: 2_000_000,
		ShippingFee:           50_000,
		Loyalty:               loyalty.DefaultPolicy(),
	}
}

type Input struct {
	Subtotal      int64
	DiscountValue int64
	UsePoints     bool
	PointBalance  int64
}

type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

func (c *Calculator) Policy() Policy {
	return c.policy
}

// Tax is round(subtotal * TaxRate), half away from zero.
func (c *Calculator) Tax(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).Mul(c.policy.TaxRate).Round(0).IntPart()
}

func (c *Calculator) ShippingFee(subtotal int64) int64 {
	if subtotal >= c.policy.FreeShippingThreshold {
		return 0
	}
	return c.policy.ShippingFee
}

// ClampDiscount caps a discount at the subtotal. The same cap applies to the
// apply-discount preview and to checkout.
func ClampDiscount(discount, subtotal int64) int64 {
	if discount < 0 {
		return 0
	}
	if subtotal < 0 {
		subtotal = 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// Calculate is pure: the same input always yields the same breakdown.
func (c *Calculator) Calculate(in Input) models.Breakdown {
	b := models.Breakdown{
		Subtotal:    in.Subtotal,
		Tax:         c.Tax(in.Subtotal),
		ShippingFee: c.ShippingFee(in.Subtotal),
	}
	b.TotalBeforeDiscount = b.Subtotal + b.Tax + b.ShippingFee
	b.DiscountValue = ClampDiscount(in.DiscountValue, in.Subtotal)

	if in.UsePoints && in.PointBalance > 0 {
		b.UsedPoints, b.UsedPointsValue = c.policy.Loyalty.Redeem(
			in.PointBalance, b.TotalBeforeDiscount-b.DiscountValue)
	}

	b.Total = b.TotalBeforeDiscount - b.DiscountValue - b.UsedPointsValue
	if b.Total < 0 {
		b.Total = 0
	}
	b.EarnedPoints = c.policy.Loyalty.Earned(in.Subtotal)
	return b
}
