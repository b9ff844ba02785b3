package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/models"
)

// CartService keeps persisted carts for signed-in users. Guests pass their
// session cart in and store the returned cart back in the session.
type CartService struct {
	store  models.Store
	logger log.FieldLogger
	now    func() time.Time
}

func NewCartService(store models.Store, logger log.FieldLogger) *CartService {
	return &CartService{store: store, logger: logger, now: time.Now}
}

type AddItemInput struct {
	ProductID    uuid.UUID
	VariantIndex *int
	// Quantity defaults to 1 when zero.
	Quantity int
}

func (s *CartService) load(ctx context.Context, userID *uuid.UUID, session models.Cart) (models.Cart, error) {
	if userID == nil {
		return session.Clone(), nil
	}
	cart, err := s.store.Carts().FindByUser(ctx, *userID)
	if err != nil {
		return models.Cart{}, err
	}
	return *cart, nil
}

func (s *CartService) save(ctx context.Context, userID *uuid.UUID, cart *models.Cart) error {
	cart.UpdatedAt = s.now().UTC()
	if userID == nil {
		return nil
	}
	id := *userID
	cart.UserID = &id
	return s.store.InTx(ctx, func(tx models.Store) error {
		return tx.Carts().Save(ctx, cart)
	})
}

// Add puts a product line in the cart after checking variant stock against
// what the cart already holds.
func (s *CartService) Add(ctx context.Context, userID *uuid.UUID, session models.Cart, in AddItemInput) (models.Cart, error) {
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return models.Cart{}, models.NewValidationError("quantity", "quantity must be at least 1")
	}

	p, err := s.store.Products().FindByID(ctx, in.ProductID)
	if err != nil {
		return models.Cart{}, err
	}
	if !p.IsActive {
		return models.Cart{}, models.ErrProductNotFound
	}

	item := models.CartItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty}
	var variant *models.Variant
	if len(p.Variants) > 0 {
		idx := 0
		if in.VariantIndex != nil {
			idx = *in.VariantIndex
		}
		v, ok := p.Variant(idx)
		if !ok {
			return models.Cart{}, models.NewValidationError("variantIndex", "unknown variant")
		}
		variant = &v
		item.VariantIndex = &idx
		item.VariantName = v.Name
		item.Price = v.Price
	}

	cart, err := s.load(ctx, userID, session)
	if err != nil {
		return models.Cart{}, err
	}

	if variant != nil {
		inCart := cart.QuantityOf(item.ProductID, item.VariantIndex)
		if inCart+qty > variant.Stock {
			remain := variant.Stock - inCart
			if remain <= 0 {
				return models.Cart{}, models.NewValidationError("quantity", "this variant is out of stock")
			}
			return models.Cart{}, models.NewValidationError("quantity", fmt.Sprintf("only %d left for this variant", remain))
		}
	}

	cart.Add(item)
	if err := s.save(ctx, userID, &cart); err != nil {
		return models.Cart{}, err
	}
	s.logger.WithFields(log.Fields{"product": p.ID, "qty": qty, "cartQty": cart.Quantity()}).Debug("cart item added")
	return cart, nil
}

// View returns the persisted cart for users and the session cart for guests.
func (s *CartService) View(ctx context.Context, userID *uuid.UUID, session models.Cart) (models.Cart, error) {
	return s.load(ctx, userID, session)
}

// Update applies positional quantities; zero removes a line.
func (s *CartService) Update(ctx context.Context, userID *uuid.UUID, session models.Cart, quantities map[int]int) (models.Cart, error) {
	cart, err := s.load(ctx, userID, session)
	if err != nil {
		return models.Cart{}, err
	}
	for idx := range quantities {
		if idx < 0 || idx >= len(cart.Items) {
			return models.Cart{}, models.NewValidationError("quantities", fmt.Sprintf("no cart line at position %d", idx))
		}
	}
	cart.SetQuantities(quantities)
	if err := s.save(ctx, userID, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

// Merge folds the session cart into the user's persisted cart. It runs once,
// when the user signs in.
func (s *CartService) Merge(ctx context.Context, userID uuid.UUID, session models.Cart) (models.Cart, error) {
	var merged models.Cart
	err := s.store.InTx(ctx, func(tx models.Store) error {
		persisted, err := tx.Carts().FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		merged = models.MergeCarts(*persisted, session)
		if merged.IsEmpty() {
			return nil
		}
		id := userID
		merged.UserID = &id
		merged.UpdatedAt = s.now().UTC()
		return tx.Carts().Save(ctx, &merged)
	})
	if err != nil {
		return models.Cart{}, err
	}
	return merged, nil
}
