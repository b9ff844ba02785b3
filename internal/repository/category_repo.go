package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront/internal/models"
)

type CategoryRepo struct {
	db dbtx
}

func NewCategoryRepo(db dbtx) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	query := `SELECT id, name, slug, created_at FROM categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

func (r *CategoryRepo) Upsert(ctx context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
		INSERT INTO categories (id, name, slug, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.Slug).StructScan(c); err != nil {
		return errors.Wrap(err, "upsert category")
	}
	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if !ok {
		return models.ErrCategoryNotFound
	}
	return nil
}
