package models

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a purchasable configuration of a product with its own price and stock.
type Variant struct {
	Name  string `json:"name" db:"name"`
	Price int64  `json:"price" db:"price"`
	Stock int    `json:"stock" db:"stock"`
}

type Review struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"userId,omitempty" db:"user_id"`
	Name      string     `json:"name" db:"name"`
	Rating    *int       `json:"rating" db:"rating"`
	Comment   string     `json:"comment" db:"comment"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Brand         string    `json:"brand" db:"brand"`
	Category      string    `json:"category" db:"category"`
	Price         int64     `json:"price" db:"price"`
	Description   string    `json:"description" db:"description"`
	Images        []string  `json:"images" db:"-"`
	Variants      []Variant `json:"variants" db:"-"`
	Reviews       []Review  `json:"reviews,omitempty" db:"-"`
	AverageRating float64   `json:"averageRating" db:"average_rating"`
	NumRatings    int       `json:"numRatings" db:"num_ratings"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Variant returns the variant at idx, if it exists.
func (p *Product) Variant(idx int) (Variant, bool) {
	if idx < 0 || idx >= len(p.Variants) {
		return Variant{}, false
	}
	return p.Variants[idx], true
}

// RecomputeRating averages the ratings of rated reviews only.
func (p *Product) RecomputeRating() {
	sum, n := 0, 0
	for _, r := range p.Reviews {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return
	}
	p.AverageRating = float64(sum) / float64(n)
	p.NumRatings = n
}

type ProductSort string

const (
	SortNewest     ProductSort = ""
	SortNameAsc    ProductSort = "name_asc"
	SortNameDesc   ProductSort = "name_desc"
	SortPriceAsc   ProductSort = "price_asc"
	SortPriceDesc  ProductSort = "price_desc"
	SortRatingAsc  ProductSort = "rating_asc"
	SortRatingDesc ProductSort = "rating_desc"
)

type ProductFilter struct {
	Query      string
	Category   string
	Brand      string
	PriceMin   *int64
	PriceMax   *int64
	ActiveOnly bool
	// SearchDescription extends Query matching to the description (admin search).
	SearchDescription bool
	Sort              ProductSort
	Offset            int
	Limit             int
}

type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
