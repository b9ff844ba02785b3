package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/realtime"
)

func (e *testEnv) catalogProduct(t *testing.T, name, category string, price int64, created time.Time) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Category: category, Brand: "Acer", Price: price, IsActive: true, CreatedAt: created}
	require.NoError(t, e.store.Products().Create(context.Background(), p))
	return p
}

func TestCatalogHome(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		env.catalogProduct(t, "Laptop", "laptop", 1_000, start.Add(time.Duration(i)*time.Hour))
		env.catalogProduct(t, "Monitor", "monitor", 1_000, start.Add(time.Duration(i)*time.Hour))
	}
	hidden := env.catalogProduct(t, "Hidden", "hdd", 1_000, start.Add(48*time.Hour))
	hidden.IsActive = false
	require.NoError(t, env.store.Products().Update(ctx, hidden))

	home, err := env.catalog.Home(ctx)
	require.NoError(t, err)
	assert.Len(t, home.Latest, 8)
	assert.Len(t, home.Sections["laptop"], 4)
	assert.Len(t, home.Sections["monitor"], 4)
	assert.Empty(t, home.Sections["hdd"])
	for _, p := range home.Latest {
		assert.NotEqual(t, hidden.ID, p.ID)
	}
}

func TestCatalogList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		env.catalogProduct(t, "Laptop", "laptop", int64(1_000*(i+1)), start.Add(time.Duration(i)*time.Hour))
	}
	env.catalogProduct(t, "Mouse", "mouse", 500, start)

	page, err := env.catalog.List(ctx, ProductQuery{Category: "laptop"})
	require.NoError(t, err)
	assert.Equal(t, 15, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Products, ProductsPerPage)
	assert.Equal(t, int64(15_000), page.Products[0].Price, "newest first")

	page, err = env.catalog.List(ctx, ProductQuery{Category: "laptop", Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 3)

	min, max := int64(2_000), int64(4_000)
	page, err = env.catalog.List(ctx, ProductQuery{PriceMin: &min, PriceMax: &max, Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, page.Products, 3)
	assert.Equal(t, int64(2_000), page.Products[0].Price)

	page, err = env.catalog.List(ctx, ProductQuery{Query: "mou", Sort: "bogus"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Mouse", page.Products[0].Name)

	page, err = env.catalog.List(ctx, ProductQuery{Query: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Products)
}

func TestCatalogGetHidesInactive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.catalogProduct(t, "Old", "laptop", 1, time.Now())
	p.IsActive = false
	require.NoError(t, env.store.Products().Update(ctx, p))

	_, err := env.catalog.Get(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	_, err = env.catalog.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestAddReview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "lan@example.com", 0)
	p := env.catalogProduct(t, "Laptop", "laptop", 1_000, time.Now())

	events, cancel := env.hub.Subscribe(p.ID.String())
	defer cancel()

	review, update, err := env.catalog.AddReview(ctx, p.ID, ReviewInput{User: u, Rating: intPtr(4), Comment: "Great"})
	require.NoError(t, err)
	assert.Equal(t, u.FullName, review.Name)
	assert.Equal(t, 4.0, update.AverageRating)
	assert.Equal(t, 1, update.NumRatings)

	got := <-events
	assert.Equal(t, realtime.EventNewReview, got.Name)
	got = <-events
	assert.Equal(t, realtime.EventRatingUpdated, got.Name)

	// anonymous ratings are not counted
	review, update, err = env.catalog.AddReview(ctx, p.ID, ReviewInput{Rating: intPtr(1), Comment: "Meh"})
	require.NoError(t, err)
	assert.Equal(t, "Guest", review.Name)
	assert.Nil(t, review.Rating)
	assert.Equal(t, 4.0, update.AverageRating)
	assert.Equal(t, 1, update.NumRatings)

	_, update, err = env.catalog.AddReview(ctx, p.ID, ReviewInput{User: u, Name: "Lan", Rating: intPtr(5), Comment: "Even better"})
	require.NoError(t, err)
	assert.Equal(t, 4.5, update.AverageRating)
	assert.Equal(t, 2, update.NumRatings)

	stored, err := env.store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Reviews, 3)
	assert.Equal(t, 4.5, stored.AverageRating)

	var verr *models.ValidationError
	_, _, err = env.catalog.AddReview(ctx, p.ID, ReviewInput{User: u, Rating: intPtr(6), Comment: "x"})
	assert.ErrorAs(t, err, &verr)
	_, _, err = env.catalog.AddReview(ctx, p.ID, ReviewInput{User: u, Comment: "   "})
	assert.ErrorAs(t, err, &verr)
	_, _, err = env.catalog.AddReview(ctx, uuid.New(), ReviewInput{Comment: "hello"})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}
