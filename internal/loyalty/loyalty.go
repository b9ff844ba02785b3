// Package loyalty holds the point arithmetic of the loyalty programme: one
// point is worth a fixed currency amount, points are earned as a share of the
// order subtotal and can be redeemed against an order total.
package loyalty

import "github.com/shopspring/decimal"

const (
	DefaultPointValue = 1000
)

var DefaultEarnRate = decimal.NewFromFloat(0.10)

type Policy struct {
	// PointValue is the currency value of a single point.
	PointValue int64
	// EarnRate is the share of the subtotal credited back as points.
	EarnRate decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{PointValue: DefaultPointValue, EarnRate: DefaultEarnRate}
}

// Redeem spends the whole balance, capped so its value never exceeds maxValue.
// When capped, usedValue is maxValue itself and usedPoints is the floor of
// maxValue in points.
func (p Policy) Redeem(balance, maxValue int64) (usedPoints, usedValue int64) {
	if balance <= 0 || p.PointValue <= 0 {
		return 0, 0
	}
	if maxValue < 0 {
		maxValue = 0
	}
	usedPoints = balance
	usedValue = balance * p.PointValue
	if usedValue > maxValue {
		usedValue = maxValue
		usedPoints = usedValue / p.PointValue
	}
	return usedPoints, usedValue
}

// Earned is floor(subtotal * EarnRate / PointValue), always on the
// pre-discount subtotal.
func (p Policy) Earned(subtotal int64) int64 {
	if subtotal <= 0 || p.PointValue <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).
		Mul(p.EarnRate).
		Div(decimal.NewFromInt(p.PointValue)).
		Floor().
		IntPart()
}

// Settle applies a redemption and a credit to a balance; never below zero.
func Settle(balance, used, earned int64) int64 {
	next := balance - used + earned
	if next < 0 {
		return 0
	}
	return next
}
