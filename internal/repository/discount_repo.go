package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront/internal/models"
)

type DiscountRepo struct {
	db dbtx
}

func NewDiscountRepo(db dbtx) *DiscountRepo {
	return &DiscountRepo{db: db}
}

const discountColumns = `id, code, discount_value, usage_count, usage_limit, created_at, updated_at`

func (r *DiscountRepo) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var d models.DiscountCode

	query := `
		SELECT ` + discountColumns + `
		FROM discount_codes
		WHERE code = $1
	`
	if err := r.db.GetContext(ctx, &d, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDiscountNotFound
		}
		return nil, errors.Wrap(err, "select discount")
	}
	return &d, nil
}

func (r *DiscountRepo) List(ctx context.Context) ([]models.DiscountCode, error) {
	discounts := []models.DiscountCode{}
	query := `SELECT ` + discountColumns + ` FROM discount_codes ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &discounts, query); err != nil {
		return nil, errors.Wrap(err, "list discounts")
	}
	return discounts, nil
}

// Upsert creates the code or replaces value and limit of an existing one.
// The usage counter is never reset.
func (r *DiscountRepo) Upsert(ctx context.Context, d *models.DiscountCode) error {
	query := `
		INSERT INTO discount_codes (id, code, discount_value, usage_count, usage_limit, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, NOW(), NOW())
		ON CONFLICT (code) DO UPDATE
		SET discount_value = EXCLUDED.discount_value,
		    usage_limit    = EXCLUDED.usage_limit,
		    updated_at     = NOW()
		RETURNING ` + discountColumns
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	row := r.db.QueryRowxContext(ctx, query, d.ID, d.Code, d.DiscountValue, d.UsageLimit)
	if err := row.StructScan(d); err != nil {
		return errors.Wrap(err, "upsert discount")
	}
	return nil
}

// Redeem is a single conditional write, so concurrent checkouts cannot push
// usage past the limit.
func (r *DiscountRepo) Redeem(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE discount_codes
		SET usage_count = usage_count + 1,
		    updated_at  = NOW()
		WHERE id = $1 AND usage_count < usage_limit
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, "redeem discount")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "redeem discount")
	}
	if !ok {
		return models.ErrDiscountExhausted
	}
	return nil
}
