package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedeem(t *testing.T) {
	p := DefaultPolicy()

	t.Run("Uncapped", func(t *testing.T) {
		points, value := p.Redeem(300, 1_150_000)
		assert.Equal(t, int64(300), points)
		assert.Equal(t, int64(300_000), value)
	})

	t.Run("Capped at remaining total", func(t *testing.T) {
		points, value := p.Redeem(2000, 1_150_000)
		assert.Equal(t, int64(1150), points)
		assert.Equal(t, int64(1_150_000), value)
	})

	t.Run("Cap not a multiple of point value", func(t *testing.T) {
		points, value := p.Redeem(2000, 1_150_500)
		assert.Equal(t, int64(1150), points)
		assert.Equal(t, int64(1_150_500), value)
	})

	t.Run("Negative cap", func(t *testing.T) {
		points, value := p.Redeem(10, -5)
		assert.Zero(t, points)
		assert.Zero(t, value)
	})

	t.Run("Empty balance", func(t *testing.T) {
		points, value := p.Redeem(0, 1_000_000)
		assert.Zero(t, points)
		assert.Zero(t, value)
	})
}

func TestEarned(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, int64(100), p.Earned(1_000_000))
	assert.Equal(t, int64(0), p.Earned(9_999))
	assert.Equal(t, int64(1), p.Earned(19_999))
	assert.Equal(t, int64(250), p.Earned(2_500_000))
}

func TestSettleNeverNegative(t *testing.T) {
	cases := []struct {
		balance, used, earned, want int64
	}{
		{balance: 2000, used: 1150, earned: 100, want: 950},
		{balance: 0, used: 0, earned: 100, want: 100},
		{balance: 5, used: 10, earned: 0, want: 0},
		{balance: 0, used: 0, earned: 0, want: 0},
	}
	for _, c := range cases {
		got := Settle(c.balance, c.used, c.earned)
		assert.Equal(t, c.want, got)
		assert.GreaterOrEqual(t, got, int64(0))
	}
}
