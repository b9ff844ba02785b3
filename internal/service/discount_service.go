package service

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/pricing"
)

// DiscountService is the discount ledger: validation, previews, redemption
// and the admin side of discount codes.
type DiscountService struct {
	store  models.Store
	calc   *pricing.Calculator
	logger log.FieldLogger
}

func NewDiscountService(store models.Store, calc *pricing.Calculator, logger log.FieldLogger) *DiscountService {
	return &DiscountService{store: store, calc: calc, logger: logger}
}

// Validate looks the normalized code up. A code is valid only while its
// usage count is below its limit.
func (s *DiscountService) Validate(ctx context.Context, code string) (models.DiscountValidation, error) {
	code = models.NormalizeCode(code)
	if code == "" {
		return models.DiscountValidation{Message: "discount code is empty"}, nil
	}
	d, err := s.store.Discounts().FindByCode(ctx, code)
	if errors.Is(err, models.ErrDiscountNotFound) {
		return models.DiscountValidation{Message: models.ErrDiscountInvalid.Error()}, nil
	}
	if err != nil {
		return models.DiscountValidation{}, err
	}
	if !d.Redeemable() {
		return models.DiscountValidation{Discount: d, Message: models.ErrDiscountExhausted.Error()}, nil
	}
	return models.DiscountValidation{Valid: true, Discount: d, Message: "discount code applied"}, nil
}

// Preview prices the cart with the code applied. Nothing is redeemed.
func (s *DiscountService) Preview(ctx context.Context, code string, cart models.Cart) (*models.DiscountPreview, error) {
	if cart.IsEmpty() {
		return nil, models.NewValidationError("cart", models.ErrEmptyCart.Error())
	}
	if models.NormalizeCode(code) == "" {
		return nil, models.NewValidationError("code", "please enter a discount code")
	}

	v, err := s.Validate(ctx, code)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		if v.Discount != nil {
			return nil, models.ErrDiscountExhausted
		}
		return nil, models.ErrDiscountInvalid
	}

	subtotal := cart.Total()
	discount := pricing.ClampDiscount(v.Discount.DiscountValue, subtotal)
	preview := &models.DiscountPreview{
		Code:          v.Discount.Code,
		DiscountValue: discount,
		Subtotal:      subtotal,
		Tax:           s.calc.Tax(subtotal),
		ShippingFee:   s.calc.ShippingFee(subtotal),
	}
	preview.GrandTotal = preview.Subtotal + preview.Tax + preview.ShippingFee - discount
	if preview.GrandTotal < 0 {
		preview.GrandTotal = 0
	}
	return preview, nil
}

// Redeem records one use of d inside tx. It is a no-op when no discount
// value was actually applied.
func (s *DiscountService) Redeem(ctx context.Context, tx models.Store, d *models.DiscountCode, applied int64) error {
	if d == nil || applied <= 0 {
		return nil
	}
	return tx.Discounts().Redeem(ctx, d.ID)
}

func (s *DiscountService) List(ctx context.Context) ([]models.DiscountCode, error) {
	return s.store.Discounts().List(ctx)
}

type DiscountInput struct {
	Code          string
	DiscountValue int64
	// UsageLimit falls back to 1 when not positive.
	UsageLimit int
}

// Upsert creates a code or replaces the value and limit of an existing one.
func (s *DiscountService) Upsert(ctx context.Context, in DiscountInput) (*models.DiscountCode, error) {
	code := models.NormalizeCode(in.Code)
	if code == "" {
		return nil, models.NewValidationError("code", "code is required")
	}
	if in.DiscountValue <= 0 {
		return nil, models.NewValidationError("discountValue", "discount value must be positive")
	}
	limit := in.UsageLimit
	if limit <= 0 {
		limit = 1
	}

	d := &models.DiscountCode{Code: code, DiscountValue: in.DiscountValue, UsageLimit: limit}
	err := s.store.InTx(ctx, func(tx models.Store) error {
		cur, err := tx.Discounts().FindByCode(ctx, code)
		if err != nil && !errors.Is(err, models.ErrDiscountNotFound) {
			return err
		}
		if cur != nil && limit < cur.UsageCount {
			return models.NewValidationError("usageLimit", "limit is below the number of uses already recorded")
		}
		return tx.Discounts().Upsert(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(log.Fields{"code": d.Code, "value": d.DiscountValue, "limit": d.UsageLimit}).Info("discount code saved")
	return d, nil
}
