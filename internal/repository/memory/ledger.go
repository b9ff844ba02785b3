package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront/internal/models"
)

type discountRepo struct {
	st *state
}

func (r *discountRepo) FindByCode(_ context.Context, code string) (*models.DiscountCode, error) {
	d := r.st.lock()
	defer r.st.unlock()

	dc, ok := d.discounts[code]
	if !ok {
		return nil, models.ErrDiscountNotFound
	}
	return &dc, nil
}

func (r *discountRepo) List(_ context.Context) ([]models.DiscountCode, error) {
	d := r.st.lock()
	defer r.st.unlock()

	out := make([]models.DiscountCode, 0, len(d.discounts))
	for _, dc := range d.discounts {
		out = append(out, dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *discountRepo) Upsert(_ context.Context, dc *models.DiscountCode) error {
	d := r.st.lock()
	defer r.st.unlock()

	now := time.Now().UTC()
	if cur, ok := d.discounts[dc.Code]; ok {
		cur.DiscountValue = dc.DiscountValue
		cur.UsageLimit = dc.UsageLimit
		cur.UpdatedAt = now
		d.discounts[dc.Code] = cur
		*dc = cur
		return nil
	}
	if dc.ID == uuid.Nil {
		dc.ID = uuid.New()
	}
	dc.UsageCount = 0
	dc.CreatedAt, dc.UpdatedAt = now, now
	d.discounts[dc.Code] = *dc
	return nil
}

func (r *discountRepo) Redeem(_ context.Context, id uuid.UUID) error {
	d := r.st.lock()
	defer r.st.unlock()

	for code, dc := range d.discounts {
		if dc.ID != id {
			continue
		}
		if !dc.Redeemable() {
			return models.ErrDiscountExhausted
		}
		dc.UsageCount++
		dc.UpdatedAt = time.Now().UTC()
		d.discounts[code] = dc
		return nil
	}
	return models.ErrDiscountExhausted
}

type cartRepo struct {
	st *state
}

func (r *cartRepo) FindByUser(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	d := r.st.lock()
	defer r.st.unlock()

	cart, ok := d.carts[userID]
	if !ok {
		id := userID
		return &models.Cart{UserID: &id, Items: []models.CartItem{}}, nil
	}
	out := cart.Clone()
	return &out, nil
}

func (r *cartRepo) Save(_ context.Context, cart *models.Cart) error {
	if cart.UserID == nil {
		return models.NewValidationError("cart", "anonymous carts live in the session")
	}
	d := r.st.lock()
	defer r.st.unlock()

	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = time.Now().UTC()
	}
	d.carts[*cart.UserID] = cart.Clone()
	return nil
}

func (r *cartRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	d := r.st.lock()
	defer r.st.unlock()

	delete(d.carts, userID)
	return nil
}
