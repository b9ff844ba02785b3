package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront/internal/models"
)

func TestCartAddGuest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, "Laptop",
		models.Variant{Name: "16GB", Price: 20_000_000, Stock: 2},
		models.Variant{Name: "32GB", Price: 26_000_000, Stock: 0},
	)

	cart, err := env.carts.Add(ctx, nil, models.Cart{}, AddItemInput{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "16GB", cart.Items[0].VariantName)
	assert.Equal(t, int64(20_000_000), cart.Items[0].Price)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart, err = env.carts.Add(ctx, nil, cart, AddItemInput{ProductID: p.ID, VariantIndex: intPtr(0)})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "same variant merges into one line")
	assert.Equal(t, 2, cart.Items[0].Quantity)

	_, err = env.carts.Add(ctx, nil, cart, AddItemInput{ProductID: p.ID, VariantIndex: intPtr(0)})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "this variant is out of stock", verr.Message)

	_, err = env.carts.Add(ctx, nil, models.Cart{}, AddItemInput{ProductID: p.ID, VariantIndex: intPtr(0), Quantity: 3})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "only 2 left for this variant", verr.Message)

	_, err = env.carts.Add(ctx, nil, models.Cart{}, AddItemInput{ProductID: p.ID, VariantIndex: intPtr(7)})
	assert.ErrorAs(t, err, &verr)

	_, err = env.carts.Add(ctx, nil, models.Cart{}, AddItemInput{ProductID: p.ID, Quantity: -1})
	assert.ErrorAs(t, err, &verr)

	_, err = env.carts.Add(ctx, nil, models.Cart{}, AddItemInput{ProductID: uuid.New()})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestCartAddInactiveProduct(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, "Old", models.Variant{Name: "Base", Price: 1, Stock: 1})
	p.IsActive = false
	require.NoError(t, env.store.Products().Update(ctx, p))

	_, err := env.carts.Add(ctx, nil, models.Cart{}, AddItemInput{ProductID: p.ID})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestCartPersistedForUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "lan@example.com", 0)
	p := env.product(t, "Laptop", models.Variant{Name: "16GB", Price: 1_000, Stock: 10})

	_, err := env.carts.Add(ctx, &u.ID, models.Cart{}, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	cart, err := env.carts.View(ctx, &u.ID, models.Cart{})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2_000), cart.Total())

	cart, err = env.carts.Update(ctx, &u.ID, models.Cart{}, map[int]int{0: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	_, err = env.carts.Update(ctx, &u.ID, models.Cart{}, map[int]int{3: 1})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	cart, err = env.carts.Update(ctx, &u.ID, models.Cart{}, map[int]int{0: 0})
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	stored, err := env.store.Carts().FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())
}

func TestCartMerge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "lan@example.com", 0)
	laptop := env.product(t, "Laptop", models.Variant{Name: "16GB", Price: 1_000, Stock: 10})
	mouse := env.product(t, "Mouse", models.Variant{Name: "Black", Price: 100, Stock: 10})

	persisted := cartOf(lineFor(laptop, 0, 1))
	persisted.UserID = &u.ID
	require.NoError(t, env.store.Carts().Save(ctx, &persisted))

	merged, err := env.carts.Merge(ctx, u.ID, cartOf(lineFor(laptop, 0, 2), lineFor(mouse, 0, 1)))
	require.NoError(t, err)
	require.Len(t, merged.Items, 2)
	assert.Equal(t, laptop.ID, merged.Items[0].ProductID)
	assert.Equal(t, 3, merged.Items[0].Quantity)
	assert.Equal(t, mouse.ID, merged.Items[1].ProductID)

	stored, err := env.store.Carts().FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, merged.Total(), stored.Total())
}
