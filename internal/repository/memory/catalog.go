package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront/internal/models"
)

type productRepo struct {
	st *state
}

func productMatches(p models.Product, f models.ProductFilter) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hit := strings.Contains(strings.ToLower(p.Name), q)
		if !hit && f.SearchDescription {
			hit = strings.Contains(strings.ToLower(p.Description), q)
		}
		if !hit {
			return false
		}
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.PriceMin != nil && p.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && p.Price > *f.PriceMax {
		return false
	}
	return true
}

func productLess(s models.ProductSort) func(a, b models.Product) bool {
	switch s {
	case models.SortNameAsc:
		return func(a, b models.Product) bool { return a.Name < b.Name }
	case models.SortNameDesc:
		return func(a, b models.Product) bool { return a.Name > b.Name }
	case models.SortPriceAsc:
		return func(a, b models.Product) bool { return a.Price < b.Price }
	case models.SortPriceDesc:
		return func(a, b models.Product) bool { return a.Price > b.Price }
	case models.SortRatingAsc:
		return func(a, b models.Product) bool { return a.AverageRating < b.AverageRating }
	case models.SortRatingDesc:
		return func(a, b models.Product) bool { return a.AverageRating > b.AverageRating }
	default:
		return func(a, b models.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}

func (r *productRepo) List(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	d := r.st.lock()
	defer r.st.unlock()

	products := []models.Product{}
	for _, p := range d.products {
		if productMatches(p, f) {
			p = cloneProduct(p)
			p.Reviews = nil
			products = append(products, p)
		}
	}
	less := productLess(f.Sort)
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID.String() < b.ID.String()
	})

	if f.Limit > 0 {
		start := f.Offset
		if start > len(products) {
			start = len(products)
		}
		end := start + f.Limit
		if end > len(products) {
			end = len(products)
		}
		products = products[start:end]
	}
	return products, nil
}

func (r *productRepo) Count(_ context.Context, f models.ProductFilter) (int, error) {
	d := r.st.lock()
	defer r.st.unlock()

	n := 0
	for _, p := range d.products {
		if productMatches(p, f) {
			n++
		}
	}
	return n, nil
}

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	d := r.st.lock()
	defer r.st.unlock()

	p, ok := d.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *productRepo) Create(_ context.Context, p *models.Product) error {
	d := r.st.lock()
	defer r.st.unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	stored := cloneProduct(*p)
	stored.Reviews = []models.Review{}
	d.products[p.ID] = stored
	return nil
}

func (r *productRepo) Update(_ context.Context, p *models.Product) error {
	d := r.st.lock()
	defer r.st.unlock()

	cur, ok := d.products[p.ID]
	if !ok {
		return models.ErrProductNotFound
	}
	next := cloneProduct(*p)
	next.Reviews = cur.Reviews
	next.AverageRating = cur.AverageRating
	next.NumRatings = cur.NumRatings
	next.CreatedAt = cur.CreatedAt
	d.products[p.ID] = next
	return nil
}

func (r *productRepo) Delete(_ context.Context, id uuid.UUID) error {
	d := r.st.lock()
	defer r.st.unlock()

	if _, ok := d.products[id]; !ok {
		return models.ErrProductNotFound
	}
	delete(d.products, id)
	return nil
}

func (r *productRepo) AddReview(_ context.Context, productID uuid.UUID, rv *models.Review) error {
	d := r.st.lock()
	defer r.st.unlock()

	p, ok := d.products[productID]
	if !ok {
		return models.ErrProductNotFound
	}
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	p.Reviews = append(p.Reviews, *rv)
	d.products[productID] = cloneProduct(p)
	return nil
}

func (r *productRepo) UpdateRating(_ context.Context, productID uuid.UUID, average float64, count int) error {
	d := r.st.lock()
	defer r.st.unlock()

	p, ok := d.products[productID]
	if !ok {
		return models.ErrProductNotFound
	}
	p.AverageRating, p.NumRatings = average, count
	d.products[productID] = p
	return nil
}

func (r *productRepo) DecrementStock(_ context.Context, productID uuid.UUID, variantIndex, qty int) error {
	d := r.st.lock()
	defer r.st.unlock()

	p, ok := d.products[productID]
	if !ok || variantIndex < 0 || variantIndex >= len(p.Variants) || p.Variants[variantIndex].Stock < qty {
		return models.ErrInsufficientStock
	}
	p.Variants[variantIndex].Stock -= qty
	return nil
}

func (r *productRepo) IncrementStock(_ context.Context, productID uuid.UUID, variantIndex, qty int) error {
	d := r.st.lock()
	defer r.st.unlock()

	p, ok := d.products[productID]
	if !ok || variantIndex < 0 || variantIndex >= len(p.Variants) {
		return nil
	}
	p.Variants[variantIndex].Stock += qty
	return nil
}

type categoryRepo struct {
	st *state
}

func (r *categoryRepo) List(_ context.Context) ([]models.Category, error) {
	d := r.st.lock()
	defer r.st.unlock()

	out := make([]models.Category, 0, len(d.categories))
	for _, c := range d.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) Upsert(_ context.Context, c *models.Category) error {
	d := r.st.lock()
	defer r.st.unlock()

	for id, cur := range d.categories {
		if cur.Slug == c.Slug {
			cur.Name = c.Name
			d.categories[id] = cur
			*c = cur
			return nil
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	d.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	d := r.st.lock()
	defer r.st.unlock()

	if _, ok := d.categories[id]; !ok {
		return models.ErrCategoryNotFound
	}
	delete(d.categories, id)
	return nil
}
