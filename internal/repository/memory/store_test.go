package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront/internal/models"
)

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := &models.User{FullName: "Lan", Email: "lan@example.com", LoyaltyPoints: 5, IsActive: true}
	require.NoError(t, store.Users().Create(ctx, user))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx models.Store) error {
		require.NoError(t, tx.Users().SetLoyaltyPoints(ctx, user.ID, 99))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.LoyaltyPoints)

	require.NoError(t, store.InTx(ctx, func(tx models.Store) error {
		return tx.Users().SetLoyaltyPoints(ctx, user.ID, 7)
	}))
	got, err = store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.LoyaltyPoints)
}

func TestRollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.InTx(ctx, func(tx models.Store) error {
			close(started)
			<-release
			return errors.New("boom")
		})
	}()
	<-started

	created := make(chan error, 1)
	go func() {
		created <- store.Users().Create(ctx, &models.User{FullName: "By", Email: "by@example.com", IsActive: true})
	}()

	select {
	case <-created:
		t.Fatal("write outside the transaction did not wait for it")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	require.Error(t, <-txDone)
	require.NoError(t, <-created)

	_, err := store.Users().FindByEmail(ctx, "by@example.com")
	assert.NoError(t, err)
}

func TestUserEmailUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Users().Create(ctx, &models.User{Email: "a@b.c"}))
	err := store.Users().Create(ctx, &models.User{Email: "A@B.C"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	u, err := store.Users().FindByEmail(ctx, "A@b.C")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", u.Email)
}

func TestDiscountRedeemStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	dc := &models.DiscountCode{Code: "SALE", DiscountValue: 1000, UsageLimit: 2}
	require.NoError(t, store.Discounts().Upsert(ctx, dc))

	require.NoError(t, store.Discounts().Redeem(ctx, dc.ID))
	require.NoError(t, store.Discounts().Redeem(ctx, dc.ID))
	assert.ErrorIs(t, store.Discounts().Redeem(ctx, dc.ID), models.ErrDiscountExhausted)

	got, err := store.Discounts().FindByCode(ctx, "SALE")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	// upsert keeps the counter
	require.NoError(t, store.Discounts().Upsert(ctx, &models.DiscountCode{Code: "SALE", DiscountValue: 5, UsageLimit: 4}))
	got, err = store.Discounts().FindByCode(ctx, "SALE")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	assert.Equal(t, int64(5), got.DiscountValue)
	assert.Equal(t, dc.ID, got.ID)
}

func TestStockConditionalDecrement(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := &models.Product{Name: "Phone", Variants: []models.Variant{{Name: "64GB", Price: 10, Stock: 2}}}
	require.NoError(t, store.Products().Create(ctx, p))

	require.NoError(t, store.Products().DecrementStock(ctx, p.ID, 0, 2))
	assert.ErrorIs(t, store.Products().DecrementStock(ctx, p.ID, 0, 1), models.ErrInsufficientStock)
	assert.ErrorIs(t, store.Products().DecrementStock(ctx, p.ID, 3, 1), models.ErrInsufficientStock)

	require.NoError(t, store.Products().IncrementStock(ctx, p.ID, 0, 1))
	got, err := store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Variants[0].Stock)
}

func TestProductListFilterSortPage(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"Alpha Phone", "beta phone", "Gamma Laptop", "Delta Phone"} {
		require.NoError(t, store.Products().Create(ctx, &models.Product{
			Name:      name,
			Category:  "phones",
			Price:     int64(100 * (i + 1)),
			IsActive:  name != "Delta Phone",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	f := models.ProductFilter{Query: "PHONE", ActiveOnly: true, Sort: models.SortPriceDesc}
	list, err := store.Products().List(ctx, f)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "beta phone", list[0].Name)

	n, err := store.Products().Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f = models.ProductFilter{Limit: 2, Offset: 2}
	list, err = store.Products().List(ctx, f)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "beta phone", list[0].Name)
	assert.Equal(t, "Alpha Phone", list[1].Name)
}

func TestOrderHistoryAppendOnly(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now().UTC()
	order := models.NewOrder(uuid.New(), "a@b.c", "addr", nil, models.Breakdown{Total: 10}, now)
	require.NoError(t, store.Orders().Create(ctx, order))

	require.NoError(t, order.Transition(models.StatusConfirmed, now.Add(time.Second)))
	require.NoError(t, store.Orders().UpdateStatus(ctx, order, models.StatusPending))

	got, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	require.Len(t, got.History, 2)
	assert.Equal(t, models.StatusPending, got.History[0].Status)
}

func TestOrderUpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now().UTC()
	order := models.NewOrder(uuid.New(), "a@b.c", "addr", nil, models.Breakdown{Total: 10}, now)
	require.NoError(t, store.Orders().Create(ctx, order))

	// two writers both read Pending and both decide to cancel
	first, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	second, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, first.Transition(models.StatusCancelled, now))
	require.NoError(t, second.Transition(models.StatusCancelled, now))

	require.NoError(t, store.Orders().UpdateStatus(ctx, first, models.StatusPending))
	err = store.Orders().UpdateStatus(ctx, second, models.StatusPending)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	got, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 2)

	err = store.Orders().UpdateStatus(ctx, &models.Order{ID: uuid.New()}, models.StatusPending)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}
