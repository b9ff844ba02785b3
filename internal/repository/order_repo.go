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

type OrderRepo struct {
	db dbtx
}

func NewOrderRepo(db dbtx) *OrderRepo {
	return &OrderRepo{db: db}
}

type orderRow struct {
	ID              uuid.UUID     `db:"id"`
	UserID          uuid.UUID     `db:"user_id"`
	Email           string        `db:"email"`
	ShippingAddress string        `db:"shipping_address"`
	DiscountCodeID  uuid.NullUUID `db:"discount_code_id"`
	Status          string        `db:"status"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
	models.Breakdown
}

func (row orderRow) toModel() models.Order {
	o := models.Order{
		ID:              row.ID,
		UserID:          row.UserID,
		Email:           row.Email,
		ShippingAddress: row.ShippingAddress,
		Pricing:         row.Breakdown,
		Status:          models.OrderStatus(row.Status),
		Items:           []models.OrderItem{},
		History:         []models.HistoryEntry{},
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.DiscountCodeID.Valid {
		id := row.DiscountCodeID.UUID
		o.DiscountCodeID = &id
	}
	return o
}

const orderColumns = `id, user_id, email, shipping_address, subtotal, tax, shipping_fee,
	discount_value, used_points, used_points_value, earned_points, total_before_discount,
	total, discount_code_id, status, created_at, updated_at`

func (r *OrderRepo) Create(ctx context.Context, o *models.Order) error {
	insertOrder := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	p := o.Pricing
	_, err := r.db.ExecContext(ctx, insertOrder,
		o.ID, o.UserID, o.Email, o.ShippingAddress, p.Subtotal, p.Tax, p.ShippingFee,
		p.DiscountValue, p.UsedPoints, p.UsedPointsValue, p.EarnedPoints, p.TotalBeforeDiscount,
		p.Total, o.DiscountCodeID, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	insertItem := `
		INSERT INTO order_items (order_id, position, product_id, variant_index, name, variant_name, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, it := range o.Items {
		if _, err := r.db.ExecContext(ctx, insertItem,
			o.ID, i, it.ProductID, it.VariantIndex, it.Name, it.VariantName, it.Price, it.Quantity,
		); err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}

	for _, h := range o.History {
		if err := r.appendHistory(ctx, o.ID, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) appendHistory(ctx context.Context, orderID uuid.UUID, h models.HistoryEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_status_history (order_id, status, updated_at) VALUES ($1, $2, $3)`,
		orderID, string(h.Status), h.UpdatedAt,
	)
	return errors.Wrap(err, "append order history")
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "select order")
	}
	orders, err := r.withDetails(ctx, []orderRow{row})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	return r.withDetails(ctx, rows)
}

func (r *OrderRepo) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.From != nil {
		w.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("created_at < ?", *f.To)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM orders`+w.String()), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	args := append(append([]interface{}{}, w.args...), f.Limit, f.Offset)
	query := r.db.Rebind(`SELECT ` + orderColumns + ` FROM orders` + w.String() +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`)

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	orders, err := r.withDetails(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus writes the status column and inserts only the newest history
// entry; existing history rows are never rewritten. The status guard makes
// a concurrent change of the same order lose instead of applying twice.
func (r *OrderRepo) UpdateStatus(ctx context.Context, o *models.Order, from models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		o.ID, string(o.Status), o.UpdatedAt, string(from),
	)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if !ok {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID); err != nil {
			return errors.Wrap(err, "update order status")
		}
		if !exists {
			return models.ErrOrderNotFound
		}
		return models.ErrInvalidTransition
	}
	return r.appendHistory(ctx, o.ID, o.LastHistory())
}

func (r *OrderRepo) Summary(ctx context.Context) (models.SalesSummary, error) {
	var s models.SalesSummary
	query := `SELECT COUNT(*) AS total_orders, COALESCE(SUM(total), 0) AS total_revenue FROM orders`
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return s, errors.Wrap(err, "order summary")
	}
	return s, nil
}

func (r *OrderRepo) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	query := `
		SELECT oi.product_id,
		       MIN(oi.name)                   AS name,
		       SUM(oi.quantity)               AS quantity,
		       SUM(oi.price * oi.quantity)    AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> $2
		GROUP BY oi.product_id
		ORDER BY quantity DESC
		LIMIT $1
	`
	top := []models.TopProduct{}
	if err := r.db.SelectContext(ctx, &top, query, limit, string(models.StatusCancelled)); err != nil {
		return nil, errors.Wrap(err, "top products")
	}
	return top, nil
}

type orderItemRow struct {
	OrderID uuid.UUID `db:"order_id"`
	models.OrderItem
}

type historyRow struct {
	OrderID uuid.UUID `db:"order_id"`
	models.HistoryEntry
}

func (r *OrderRepo) withDetails(ctx context.Context, rows []orderRow) ([]models.Order, error) {
	orders := make([]models.Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}
	ids := make([]string, 0, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i, row := range rows {
		orders = append(orders, row.toModel())
		ids = append(ids, row.ID.String())
		index[row.ID] = i
	}

	var items []orderItemRow
	itemsQuery := `
		SELECT order_id, product_id, variant_index, name, variant_name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`
	if err := r.db.SelectContext(ctx, &items, itemsQuery, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	for _, it := range items {
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, it.OrderItem)
	}

	var history []historyRow
	historyQuery := `
		SELECT order_id, status, updated_at
		FROM order_status_history
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, id
	`
	if err := r.db.SelectContext(ctx, &history, historyQuery, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "select order history")
	}
	for _, h := range history {
		o := &orders[index[h.OrderID]]
		o.History = append(o.History, h.HistoryEntry)
	}
	return orders, nil
}
