package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront/internal/models"
)

type CartRepo struct {
	db dbtx
}

func NewCartRepo(db dbtx) *CartRepo {
	return &CartRepo{db: db}
}

type cartItemRow struct {
	models.CartItem
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *CartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var rows []cartItemRow
	query := `
		SELECT product_id, variant_index, name, variant_name, price, quantity, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "select cart")
	}

	id := userID
	cart := &models.Cart{UserID: &id, Items: make([]models.CartItem, 0, len(rows))}
	for _, row := range rows {
		cart.Items = append(cart.Items, row.CartItem)
		if row.UpdatedAt.After(cart.UpdatedAt) {
			cart.UpdatedAt = row.UpdatedAt
		}
	}
	return cart, nil
}

// Save replaces the stored lines; callers run it inside a transaction.
func (r *CartRepo) Save(ctx context.Context, cart *models.Cart) error {
	if cart.UserID == nil {
		return errors.New("save cart: anonymous carts live in the session")
	}
	if err := r.DeleteByUser(ctx, *cart.UserID); err != nil {
		return err
	}
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = time.Now().UTC()
	}
	insert := `
		INSERT INTO cart_items (user_id, position, product_id, variant_index, name, variant_name, price, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i, it := range cart.Items {
		if _, err := r.db.ExecContext(ctx, insert,
			*cart.UserID, i, it.ProductID, it.VariantIndex, it.Name, it.VariantName, it.Price, it.Quantity, cart.UpdatedAt,
		); err != nil {
			return errors.Wrap(err, "insert cart item")
		}
	}
	return nil
}

func (r *CartRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return errors.Wrap(err, "delete cart")
}
