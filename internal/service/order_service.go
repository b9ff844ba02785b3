package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/models"
)

const AdminOrdersPerPage = 20

type OrderService struct {
	store  models.Store
	logger log.FieldLogger
	now    func() time.Time
	loc    *time.Location
}

// NewOrderService uses loc to resolve calendar ranges such as "today".
func NewOrderService(store models.Store, loc *time.Location, logger log.FieldLogger) *OrderService {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{store: store, logger: logger, now: time.Now, loc: loc}
}

func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.store.Orders().ListByUser(ctx, userID)
}

// GetForUser hides orders of other users behind ErrOrderNotFound.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	o, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, models.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.store.Orders().FindByID(ctx, orderID)
}

type OrderQuery struct {
	// Status is empty or "all" for every status.
	Status string
	// Range is one of today, yesterday, week, month; From/To win when both set.
	Range string
	From  string
	To    string
	Page  int
}

type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	TotalPages int            `json:"totalPages"`
	TotalCount int            `json:"totalCount"`
}

const dateLayout = "2006-01-02"

// dateRange returns the half-open [from, to) window for q, or nils when unbounded.
func (s *OrderService) dateRange(q OrderQuery) (*time.Time, *time.Time, error) {
	now := s.now().In(s.loc)
	day := func(t time.Time, offset int) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day()+offset, 0, 0, 0, 0, s.loc)
	}

	var from, to time.Time
	switch {
	case q.From != "" && q.To != "":
		f, err := time.ParseInLocation(dateLayout, q.From, s.loc)
		if err != nil {
			return nil, nil, models.NewValidationError("from", "expected YYYY-MM-DD")
		}
		t, err := time.ParseInLocation(dateLayout, q.To, s.loc)
		if err != nil {
			return nil, nil, models.NewValidationError("to", "expected YYYY-MM-DD")
		}
		from, to = f, day(t, 1)
	case q.Range == "today":
		from, to = day(now, 0), day(now, 1)
	case q.Range == "yesterday":
		from, to = day(now, -1), day(now, 0)
	case q.Range == "week":
		// weeks start on Monday
		offset := -((int(now.Weekday()) + 6) % 7)
		from = day(now, offset)
		to = day(from, 7)
	case q.Range == "month":
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
		to = from.AddDate(0, 1, 0)
	case q.Range == "" || q.Range == "all":
		return nil, nil, nil
	default:
		return nil, nil, models.NewValidationError("range", "unknown range")
	}
	return &from, &to, nil
}

func (s *OrderService) AdminList(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	filter := models.OrderFilter{Limit: AdminOrdersPerPage}
	if q.Status != "" && q.Status != "all" {
		st, ok := models.ParseOrderStatus(q.Status)
		if !ok {
			return nil, models.NewValidationError("status", "unknown order status")
		}
		filter.Status = st
	}
	from, to, err := s.dateRange(q)
	if err != nil {
		return nil, err
	}
	filter.From, filter.To = from, to

	page := q.Page
	if page < 1 {
		page = 1
	}
	filter.Offset = (page - 1) * AdminOrdersPerPage

	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	pages := (total + AdminOrdersPerPage - 1) / AdminOrdersPerPage
	if pages < 1 {
		pages = 1
	}
	return &OrderPage{
		Orders:     orders,
		Page:       page,
		PerPage:    AdminOrdersPerPage,
		TotalPages: pages,
		TotalCount: total,
	}, nil
}

// UpdateStatus applies one transition from the status table and appends its
// history entry. Cancelling puts the reserved variant stock back.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, models.NewValidationError("status", "unknown order status")
	}

	var order *models.Order
	err := s.store.InTx(ctx, func(tx models.Store) error {
		o, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.Transition(next, s.now().UTC()); err != nil {
			return errors.Wrapf(err, "%s -> %s", from, next)
		}
		// claim the transition before touching stock
		if err := tx.Orders().UpdateStatus(ctx, o, from); err != nil {
			return errors.Wrapf(err, "%s -> %s", from, next)
		}
		if next == models.StatusCancelled {
			for _, it := range o.Items {
				if it.VariantIndex == nil {
					continue
				}
				if err := tx.Products().IncrementStock(ctx, it.ProductID, *it.VariantIndex, it.Quantity); err != nil {
					return err
				}
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(log.Fields{"order": order.ID, "status": order.Status}).Info("order status updated")
	return order, nil
}
