package models

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ProductID    uuid.UUID `json:"productId" db:"product_id"`
	VariantIndex *int      `json:"variantIndex" db:"variant_index"`
	Name         string    `json:"name" db:"name"`
	VariantName  string    `json:"variantName" db:"variant_name"`
	Price        int64     `json:"price" db:"price"`
	Quantity     int       `json:"quantity" db:"quantity"`
}

// SameLine reports whether two items refer to the same product and variant.
func (it CartItem) SameLine(productID uuid.UUID, variantIndex *int) bool {
	if it.ProductID != productID {
		return false
	}
	if it.VariantIndex == nil || variantIndex == nil {
		return it.VariantIndex == nil && variantIndex == nil
	}
	return *it.VariantIndex == *variantIndex
}

func (it CartItem) LineTotal() int64 {
	return it.Price * int64(it.Quantity)
}

// Cart is owned by a user (persisted) or by an anonymous session (UserID nil).
// Total is never stored; it is recomputed from the items.
type Cart struct {
	UserID    *uuid.UUID `json:"-"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

func (c *Cart) Quantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// QuantityOf sums quantities already in the cart for a product/variant pair.
func (c *Cart) QuantityOf(productID uuid.UUID, variantIndex *int) int {
	n := 0
	for _, it := range c.Items {
		if it.SameLine(productID, variantIndex) {
			n += it.Quantity
		}
	}
	return n
}

// Add increases the quantity of a matching line or appends a new one.
func (c *Cart) Add(item CartItem) {
	for i := range c.Items {
		if c.Items[i].SameLine(item.ProductID, item.VariantIndex) {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// SetQuantities applies positional quantities; a quantity of zero or less
// removes the line. Positions missing from the map are left untouched.
func (c *Cart) SetQuantities(quantities map[int]int) {
	kept := c.Items[:0]
	for idx, it := range c.Items {
		if q, ok := quantities[idx]; ok {
			if q <= 0 {
				continue
			}
			it.Quantity = q
		}
		kept = append(kept, it)
	}
	c.Items = kept
}

func (c *Cart) Clone() Cart {
	out := Cart{UpdatedAt: c.UpdatedAt}
	if c.UserID != nil {
		id := *c.UserID
		out.UserID = &id
	}
	out.Items = make([]CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.VariantIndex != nil {
			v := *it.VariantIndex
			it.VariantIndex = &v
		}
		out.Items = append(out.Items, it)
	}
	return out
}

// MergeCarts reconciles a persisted cart with a session cart under one identity.
// Lines with the same product and variant have their quantities summed; the
// persisted lines keep their order and new session lines are appended.
func MergeCarts(persisted, session Cart) Cart {
	merged := persisted.Clone()
	for _, it := range session.Clone().Items {
		merged.Add(it)
	}
	return merged
}
