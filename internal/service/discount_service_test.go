package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront/internal/models"
)

func TestDiscountValidate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.discount(t, "ABC12", 500_000, 1)

	v, err := env.discounts.Validate(ctx, " abc12 ")
	require.NoError(t, err)
	assert.True(t, v.Valid)

	v, err = env.discounts.Validate(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Nil(t, v.Discount)

	d, err := env.store.Discounts().FindByCode(ctx, "ABC12")
	require.NoError(t, err)
	require.NoError(t, env.store.Discounts().Redeem(ctx, d.ID))

	v, err = env.discounts.Validate(ctx, "ABC12")
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, models.ErrDiscountExhausted.Error(), v.Message)
}

func TestDiscountPreview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, "Mouse", models.Variant{Name: "Black", Price: 300_000, Stock: 9})
	env.discount(t, "BIG", 500_000, 5)
	env.discount(t, "USED", 10_000, 1)
	used, err := env.store.Discounts().FindByCode(ctx, "USED")
	require.NoError(t, err)
	require.NoError(t, env.store.Discounts().Redeem(ctx, used.ID))

	cart := cartOf(lineFor(p, 0, 1))

	t.Run("Discount capped at subtotal", func(t *testing.T) {
		preview, err := env.discounts.Preview(ctx, "big", cart)
		require.NoError(t, err)
		assert.Equal(t, "BIG", preview.Code)
		assert.Equal(t, int64(300_000), preview.DiscountValue)
		assert.Equal(t, int64(30_000), preview.Tax)
		assert.Equal(t, int64(50_000), preview.ShippingFee)
		assert.Equal(t, int64(80_000), preview.GrandTotal)
	})

	t.Run("Nothing redeemed", func(t *testing.T) {
		d, err := env.store.Discounts().FindByCode(ctx, "BIG")
		require.NoError(t, err)
		assert.Equal(t, 0, d.UsageCount)
	})

	t.Run("Errors", func(t *testing.T) {
		var verr *models.ValidationError
		_, err := env.discounts.Preview(ctx, "BIG", models.Cart{})
		assert.ErrorAs(t, err, &verr)
		_, err = env.discounts.Preview(ctx, "  ", cart)
		assert.ErrorAs(t, err, &verr)
		_, err = env.discounts.Preview(ctx, "MISSING", cart)
		assert.ErrorIs(t, err, models.ErrDiscountInvalid)
		_, err = env.discounts.Preview(ctx, "USED", cart)
		assert.ErrorIs(t, err, models.ErrDiscountExhausted)
	})
}

func TestDiscountUpsert(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	d, err := env.discounts.Upsert(ctx, DiscountInput{Code: "tet", DiscountValue: 100_000})
	require.NoError(t, err)
	assert.Equal(t, "TET", d.Code)
	assert.Equal(t, 1, d.UsageLimit)

	require.NoError(t, env.store.Discounts().Redeem(ctx, d.ID))

	d, err = env.discounts.Upsert(ctx, DiscountInput{Code: "TET", DiscountValue: 200_000, UsageLimit: 4})
	require.NoError(t, err)
	got, err := env.store.Discounts().FindByCode(ctx, "TET")
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), got.DiscountValue)
	assert.Equal(t, 4, got.UsageLimit)
	assert.Equal(t, 1, got.UsageCount, "usage survives an upsert")

	list, err := env.discounts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	var verr *models.ValidationError
	_, err = env.discounts.Upsert(ctx, DiscountInput{Code: "", DiscountValue: 1})
	assert.ErrorAs(t, err, &verr)
	_, err = env.discounts.Upsert(ctx, DiscountInput{Code: "X", DiscountValue: 0})
	assert.ErrorAs(t, err, &verr)
}

func TestDiscountLimitBelowUsage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.discount(t, "TWICE", 50_000, 3)
	require.NoError(t, env.store.Discounts().Redeem(ctx, d.ID))
	require.NoError(t, env.store.Discounts().Redeem(ctx, d.ID))

	_, err := env.discounts.Upsert(ctx, DiscountInput{Code: "TWICE", DiscountValue: 50_000, UsageLimit: 1})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}
