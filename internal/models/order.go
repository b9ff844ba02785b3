package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusShipping  OrderStatus = "Shipping"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered, StatusCancelled},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

// ParseOrderStatus accepts only the enumerated statuses.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderTransitions[st]
	return st, ok
}

func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID    uuid.UUID `json:"productId" db:"product_id"`
	VariantIndex *int      `json:"variantIndex" db:"variant_index"`
	Name         string    `json:"name" db:"name"`
	VariantName  string    `json:"variantName" db:"variant_name"`
	Price        int64     `json:"price" db:"price"`
	Quantity     int       `json:"quantity" db:"quantity"`
}

func (it OrderItem) LineTotal() int64 {
	return it.Price * int64(it.Quantity)
}

// HistoryEntry is an immutable record of a past status value.
type HistoryEntry struct {
	Status    OrderStatus `json:"status" db:"status"`
	UpdatedAt time.Time   `json:"updatedAt" db:"updated_at"`
}

// Breakdown is the pricing result stored with an order.
type Breakdown struct {
	Subtotal            int64 `json:"subtotal" db:"subtotal"`
	Tax                 int64 `json:"tax" db:"tax"`
	ShippingFee         int64 `json:"shippingFee" db:"shipping_fee"`
	DiscountValue       int64 `json:"discountValue" db:"discount_value"`
	UsedPoints          int64 `json:"usedPoints" db:"used_points"`
	UsedPointsValue     int64 `json:"usedPointsValue" db:"used_points_value"`
	EarnedPoints        int64 `json:"earnedPoints" db:"earned_points"`
	TotalBeforeDiscount int64 `json:"totalBeforeDiscount" db:"total_before_discount"`
	Total               int64 `json:"total" db:"total"`
}

type Order struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"userId"`
	Email           string         `json:"email"`
	ShippingAddress string         `json:"shippingAddress"`
	Items           []OrderItem    `json:"items"`
	Pricing         Breakdown      `json:"pricing"`
	DiscountCodeID  *uuid.UUID     `json:"discountCodeId,omitempty"`
	Status          OrderStatus    `json:"status"`
	History         []HistoryEntry `json:"history"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NewOrder builds a Pending order with its single initial history entry.
func NewOrder(userID uuid.UUID, email, address string, items []OrderItem, pricing Breakdown, now time.Time) *Order {
	return &Order{
		ID:              uuid.New(),
		UserID:          userID,
		Email:           email,
		ShippingAddress: address,
		Items:           items,
		Pricing:         pricing,
		Status:          StatusPending,
		History:         []HistoryEntry{{Status: StatusPending, UpdatedAt: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Transition moves the order to next and appends exactly one history entry.
// Terminal statuses accept no further changes.
func (o *Order) Transition(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.Status = next
	o.UpdatedAt = now
	o.History = append(o.History, HistoryEntry{Status: next, UpdatedAt: now})
	return nil
}

// LastHistory returns the most recent history entry.
func (o *Order) LastHistory() HistoryEntry {
	return o.History[len(o.History)-1]
}

// OrderItemsFromCart snapshots cart lines into order lines.
func OrderItemsFromCart(cart Cart) []OrderItem {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, it := range cart.Clone().Items {
		items = append(items, OrderItem{
			ProductID:    it.ProductID,
			VariantIndex: it.VariantIndex,
			Name:         it.Name,
			VariantName:  it.VariantName,
			Price:        it.Price,
			Quantity:     it.Quantity,
		})
	}
	return items
}

type OrderFilter struct {
	Status OrderStatus
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}

type TopProduct struct {
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Quantity  int64     `json:"quantity" db:"quantity"`
	Revenue   int64     `json:"revenue" db:"revenue"`
}

type SalesSummary struct {
	TotalOrders  int64 `json:"totalOrders" db:"total_orders"`
	TotalRevenue int64 `json:"totalRevenue" db:"total_revenue"`
}
