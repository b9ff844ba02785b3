package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront/internal/models"
)

type ProductRepo struct {
	db dbtx
}

func NewProductRepo(db dbtx) *ProductRepo {
	return &ProductRepo{db: db}
}

type productRow struct {
	ID            uuid.UUID      `db:"id"`
	Name          string         `db:"name"`
	Brand         string         `db:"brand"`
	Category      string         `db:"category"`
	Price         int64          `db:"price"`
	Description   string         `db:"description"`
	Images        pq.StringArray `db:"images"`
	AverageRating float64        `db:"average_rating"`
	NumRatings    int            `db:"num_ratings"`
	IsActive      bool           `db:"is_active"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (row productRow) toModel() models.Product {
	images := []string(row.Images)
	if images == nil {
		images = []string{}
	}
	return models.Product{
		ID:            row.ID,
		Name:          row.Name,
		Brand:         row.Brand,
		Category:      row.Category,
		Price:         row.Price,
		Description:   row.Description,
		Images:        images,
		Variants:      []models.Variant{},
		AverageRating: row.AverageRating,
		NumRatings:    row.NumRatings,
		IsActive:      row.IsActive,
		CreatedAt:     row.CreatedAt,
	}
}

const productColumns = `id, name, brand, category, price, description, images,
	average_rating, num_ratings, is_active, created_at`

var productOrder = map[models.ProductSort]string{
	models.SortNewest:     "created_at DESC",
	models.SortNameAsc:    "name ASC",
	models.SortNameDesc:   "name DESC",
	models.SortPriceAsc:   "price ASC",
	models.SortPriceDesc:  "price DESC",
	models.SortRatingAsc:  "average_rating ASC",
	models.SortRatingDesc: "average_rating DESC",
}

func productWhere(f models.ProductFilter) where {
	var w where
	if f.ActiveOnly {
		w.add("is_active = ?", true)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		if f.SearchDescription {
			w.add("(name ILIKE ? OR description ILIKE ?)", p, p)
		} else {
			w.add("name ILIKE ?", p)
		}
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.Brand != "" {
		w.add("brand = ?", f.Brand)
	}
	if f.PriceMin != nil {
		w.add("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		w.add("price <= ?", *f.PriceMax)
	}
	return w
}

func (r *ProductRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	w := productWhere(f)
	order, ok := productOrder[f.Sort]
	if !ok {
		order = productOrder[models.SortNewest]
	}
	query := `SELECT ` + productColumns + ` FROM products` + w.String() + ` ORDER BY ` + order + `, id`
	args := w.args
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(append([]interface{}{}, w.args...), f.Limit, f.Offset)
	}

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	products := make([]models.Product, 0, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	ids := make([]string, 0, len(rows))
	for i, row := range rows {
		products = append(products, row.toModel())
		index[row.ID] = i
		ids = append(ids, row.ID.String())
	}
	if len(ids) == 0 {
		return products, nil
	}

	var variants []variantRow
	variantQuery := `
		SELECT product_id, name, price, stock
		FROM product_variants
		WHERE product_id = ANY($1::uuid[])
		ORDER BY product_id, variant_index
	`
	if err := r.db.SelectContext(ctx, &variants, variantQuery, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "select variants")
	}
	for _, v := range variants {
		p := &products[index[v.ProductID]]
		p.Variants = append(p.Variants, v.Variant)
	}
	return products, nil
}

func (r *ProductRepo) Count(ctx context.Context, f models.ProductFilter) (int, error) {
	w := productWhere(f)
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM products`+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "count products")
	}
	return n, nil
}

type variantRow struct {
	ProductID uuid.UUID `db:"product_id"`
	models.Variant
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row productRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "select product")
	}
	p := row.toModel()

	variantQuery := `SELECT name, price, stock FROM product_variants WHERE product_id = $1 ORDER BY variant_index`
	if err := r.db.SelectContext(ctx, &p.Variants, variantQuery, id); err != nil {
		return nil, errors.Wrap(err, "select variants")
	}

	p.Reviews = []models.Review{}
	reviewQuery := `
		SELECT id, user_id, name, rating, comment, created_at
		FROM product_reviews
		WHERE product_id = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &p.Reviews, reviewQuery, id); err != nil {
		return nil, errors.Wrap(err, "select reviews")
	}
	return &p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Brand, p.Category, p.Price, p.Description, pq.StringArray(p.Images),
		p.AverageRating, p.NumRatings, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert product")
	}
	return r.writeVariants(ctx, p)
}

// Update rewrites the editable fields and the variant list. Ratings are owned
// by the review flow and left untouched.
func (r *ProductRepo) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, brand = $3, category = $4, price = $5, description = $6,
		    images = $7, is_active = $8
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Brand, p.Category, p.Price, p.Description, pq.StringArray(p.Images), p.IsActive,
	)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	if !ok {
		return models.ErrProductNotFound
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
		return errors.Wrap(err, "clear variants")
	}
	return r.writeVariants(ctx, p)
}

func (r *ProductRepo) writeVariants(ctx context.Context, p *models.Product) error {
	insert := `
		INSERT INTO product_variants (product_id, variant_index, name, price, stock)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, v := range p.Variants {
		if _, err := r.db.ExecContext(ctx, insert, p.ID, i, v.Name, v.Price, v.Stock); err != nil {
			return errors.Wrapf(err, "insert variant %d", i)
		}
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if !ok {
		return models.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepo) AddReview(ctx context.Context, productID uuid.UUID, rv *models.Review) error {
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	query := `
		INSERT INTO product_reviews (id, product_id, user_id, name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, rv.ID, productID, rv.UserID, rv.Name, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.ErrProductNotFound
		}
		return errors.Wrap(err, "insert review")
	}
	return nil
}

func (r *ProductRepo) UpdateRating(ctx context.Context, productID uuid.UUID, average float64, count int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET average_rating = $2, num_ratings = $3 WHERE id = $1`,
		productID, average, count,
	)
	return errors.Wrap(err, "update rating")
}

// DecrementStock is a conditional write: zero affected rows means the variant
// is missing or has fewer than qty units left.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID uuid.UUID, variantIndex, qty int) error {
	query := `
		UPDATE product_variants
		SET stock = stock - $3
		WHERE product_id = $1 AND variant_index = $2 AND stock >= $3
	`
	res, err := r.db.ExecContext(ctx, query, productID, variantIndex, qty)
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	if !ok {
		return models.ErrInsufficientStock
	}
	return nil
}

func (r *ProductRepo) IncrementStock(ctx context.Context, productID uuid.UUID, variantIndex, qty int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE product_variants SET stock = stock + $3 WHERE product_id = $1 AND variant_index = $2`,
		productID, variantIndex, qty,
	)
	return errors.Wrap(err, "increment stock")
}
