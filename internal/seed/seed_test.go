package seed

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/pricing"
	"github.com/Cheertaboi/storefront/internal/repository/memory"
)

type plainPasswords struct{}

func (plainPasswords) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainPasswords) Check(h, p string) (bool, error) { return h == "hashed:"+p, nil }

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	calc := pricing.NewCalculator(pricing.DefaultPolicy())
	opts := Options{AdminEmail: "admin@example.com", AdminPassword: "admin123"}

	require.NoError(t, Run(ctx, store, plainPasswords{}, calc, opts, logger))
	require.NoError(t, Run(ctx, store, plainPasswords{}, calc, opts, logger))

	admin, err := store.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, "hashed:admin123", admin.PasswordHash)
	assert.Equal(t, int64(2000), admin.LoyaltyPoints)

	n, err := store.Products().Count(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	products, err := store.Products().List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, products[0].Variants[0].Stock)
	assert.Equal(t, 3, products[0].Variants[1].Stock)

	d, err := store.Discounts().FindByCode(ctx, "ABC12")
	require.NoError(t, err)
	assert.Equal(t, 1, d.UsageCount)
	assert.Equal(t, 10, d.UsageLimit)

	orders, err := store.Orders().ListByUser(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusDelivered, orders[0].Status)
	assert.Len(t, orders[0].History, 4)

	cats, err := store.Categories().List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}
