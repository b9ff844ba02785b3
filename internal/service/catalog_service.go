package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/realtime"
)

const (
	ProductsPerPage    = 12
	homeLatestCount    = 8
	homeSectionCount   = 4
	anonymousReviewer  = "Guest"
	maxReviewRating    = 5
	minReviewRating    = 1
	maxReviewCommentSz = 2000
)

// HomeSections are the categories featured on the home page.
var HomeSections = []string{"laptop", "monitor", "hdd"}

// Broadcaster pushes an event to everyone watching a room.
type Broadcaster interface {
	Broadcast(room, name string, payload interface{}) int
}

type CatalogService struct {
	store  models.Store
	hub    Broadcaster
	logger log.FieldLogger
	now    func() time.Time
}

func NewCatalogService(store models.Store, hub Broadcaster, logger log.FieldLogger) *CatalogService {
	return &CatalogService{store: store, hub: hub, logger: logger, now: time.Now}
}

type Home struct {
	Latest   []models.Product            `json:"latest"`
	Sections map[string][]models.Product `json:"sections"`
}

// Home loads the latest products and each featured category concurrently.
func (s *CatalogService) Home(ctx context.Context) (*Home, error) {
	home := &Home{Sections: make(map[string][]models.Product, len(HomeSections))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		latest, err := s.store.Products().List(ctx, models.ProductFilter{ActiveOnly: true, Limit: homeLatestCount})
		home.Latest = latest
		return err
	})
	for _, category := range HomeSections {
		category := category
		g.Go(func() error {
			products, err := s.store.Products().List(ctx, models.ProductFilter{
				ActiveOnly: true,
				Category:   category,
				Limit:      homeSectionCount,
			})
			if err != nil {
				return err
			}
			mu.Lock()
			home.Sections[category] = products
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return home, nil
}

type ProductQuery struct {
	Query    string
	Category string
	Brand    string
	PriceMin *int64
	PriceMax *int64
	Sort     string
	Page     int
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	TotalCount int              `json:"totalCount"`
}

func parseSort(s string) models.ProductSort {
	switch sort := models.ProductSort(s); sort {
	case models.SortNameAsc, models.SortNameDesc, models.SortPriceAsc, models.SortPriceDesc,
		models.SortRatingAsc, models.SortRatingDesc:
		return sort
	default:
		return models.SortNewest
	}
}

// List returns one page of active products; the page and the total count are
// fetched concurrently.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	filter := models.ProductFilter{
		Query:      strings.TrimSpace(q.Query),
		Category:   strings.TrimSpace(q.Category),
		Brand:      strings.TrimSpace(q.Brand),
		PriceMin:   q.PriceMin,
		PriceMax:   q.PriceMax,
		ActiveOnly: true,
		Sort:       parseSort(q.Sort),
		Offset:     (page - 1) * ProductsPerPage,
		Limit:      ProductsPerPage,
	}

	var products []models.Product
	var total int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.store.Products().List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Products().Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages := (total + ProductsPerPage - 1) / ProductsPerPage
	if pages < 1 {
		pages = 1
	}
	return &ProductPage{Products: products, Page: page, TotalPages: pages, TotalCount: total}, nil
}

// Get returns an active product with its reviews.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}

type ReviewInput struct {
	// User is nil for anonymous reviewers, whose ratings are dropped.
	User    *models.User
	Name    string
	Rating  *int
	Comment string
}

type RatingUpdate struct {
	AverageRating float64 `json:"averageRating"`
	NumRatings    int     `json:"numRatings"`
}

// AddReview stores the review, recomputes the rating over rated reviews and
// notifies viewers of the product page.
func (s *CatalogService) AddReview(ctx context.Context, productID uuid.UUID, in ReviewInput) (*models.Review, *RatingUpdate, error) {
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, nil, models.NewValidationError("comment", "comment is required")
	}
	if len(comment) > maxReviewCommentSz {
		return nil, nil, models.NewValidationError("comment", "comment is too long")
	}

	review := &models.Review{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}
	if in.User != nil {
		id := in.User.ID
		review.UserID = &id
		if review.Name == "" {
			review.Name = in.User.FullName
		}
		if in.Rating != nil {
			if *in.Rating < minReviewRating || *in.Rating > maxReviewRating {
				return nil, nil, models.NewValidationError("rating", "rating must be between 1 and 5")
			}
			r := *in.Rating
			review.Rating = &r
		}
	}
	if review.Name == "" {
		review.Name = anonymousReviewer
	}

	var update RatingUpdate
	err := s.store.InTx(ctx, func(tx models.Store) error {
		if err := tx.Products().AddReview(ctx, productID, review); err != nil {
			return err
		}
		p, err := tx.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		p.RecomputeRating()
		update = RatingUpdate{AverageRating: p.AverageRating, NumRatings: p.NumRatings}
		return tx.Products().UpdateRating(ctx, productID, p.AverageRating, p.NumRatings)
	})
	if err != nil {
		return nil, nil, err
	}

	room := productID.String()
	n := s.hub.Broadcast(room, realtime.EventNewReview, review)
	s.hub.Broadcast(room, realtime.EventRatingUpdated, update)
	s.logger.WithFields(log.Fields{"product": productID, "viewers": n}).Debug("review broadcast")
	return review, &update, nil
}
