package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront/internal/models"
)

type orderRepo struct {
	st *state
}

func (r *orderRepo) Create(_ context.Context, o *models.Order) error {
	d := r.st.lock()
	defer r.st.unlock()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	d.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	d := r.st.lock()
	defer r.st.unlock()

	o, ok := d.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func newestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}

func (r *orderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	d := r.st.lock()
	defer r.st.unlock()

	orders := []models.Order{}
	for _, o := range d.orders {
		if o.UserID == userID {
			orders = append(orders, cloneOrder(o))
		}
	}
	newestFirst(orders)
	return orders, nil
}

func (r *orderRepo) List(_ context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	d := r.st.lock()
	defer r.st.unlock()

	matched := []models.Order{}
	for _, o := range d.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !o.CreatedAt.Before(*f.To) {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	newestFirst(matched)

	total := len(matched)
	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, o *models.Order, from models.OrderStatus) error {
	d := r.st.lock()
	defer r.st.unlock()

	cur, ok := d.orders[o.ID]
	if !ok {
		return models.ErrOrderNotFound
	}
	if cur.Status != from {
		return models.ErrInvalidTransition
	}
	cur.Status = o.Status
	cur.UpdatedAt = o.UpdatedAt
	cur.History = append(cur.History, o.LastHistory())
	d.orders[o.ID] = cur
	return nil
}

func (r *orderRepo) Summary(_ context.Context) (models.SalesSummary, error) {
	d := r.st.lock()
	defer r.st.unlock()

	var s models.SalesSummary
	for _, o := range d.orders {
		s.TotalOrders++
		s.TotalRevenue += o.Pricing.Total
	}
	return s, nil
}

func (r *orderRepo) TopProducts(_ context.Context, limit int) ([]models.TopProduct, error) {
	d := r.st.lock()
	defer r.st.unlock()

	byProduct := make(map[uuid.UUID]*models.TopProduct)
	for _, o := range d.orders {
		if o.Status == models.StatusCancelled {
			continue
		}
		for _, it := range o.Items {
			tp, ok := byProduct[it.ProductID]
			if !ok {
				tp = &models.TopProduct{ProductID: it.ProductID, Name: it.Name}
				byProduct[it.ProductID] = tp
			}
			tp.Quantity += int64(it.Quantity)
			tp.Revenue += it.LineTotal()
		}
	}

	top := make([]models.TopProduct, 0, len(byProduct))
	for _, tp := range byProduct {
		top = append(top, *tp)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].Name < top[j].Name
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}
