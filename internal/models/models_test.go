package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestMergeCarts(t *testing.T) {
	laptop, mouse, ssd := uuid.New(), uuid.New(), uuid.New()

	persisted := Cart{Items: []CartItem{
		{ProductID: laptop, VariantIndex: intPtr(0), Price: 100, Quantity: 1},
		{ProductID: mouse, Price: 10, Quantity: 2},
	}}
	session := Cart{Items: []CartItem{
		{ProductID: laptop, VariantIndex: intPtr(0), Price: 100, Quantity: 2},
		{ProductID: laptop, VariantIndex: intPtr(1), Price: 120, Quantity: 1},
		{ProductID: ssd, Price: 50, Quantity: 1},
	}}

	merged := MergeCarts(persisted, session)

	require.Len(t, merged.Items, 4)
	assert.Equal(t, 3, merged.Items[0].Quantity)
	assert.Equal(t, mouse, merged.Items[1].ProductID)
	assert.Equal(t, 1, *merged.Items[2].VariantIndex)
	assert.Equal(t, ssd, merged.Items[3].ProductID)
	assert.Equal(t, int64(300+20+120+50), merged.Total())

	// inputs are untouched
	assert.Equal(t, 1, persisted.Items[0].Quantity)
	assert.Len(t, session.Items, 3)
}

func TestCartSetQuantities(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	cart := Cart{Items: []CartItem{
		{ProductID: a, Price: 10, Quantity: 1},
		{ProductID: b, Price: 20, Quantity: 1},
		{ProductID: c, Price: 30, Quantity: 1},
	}}

	cart.SetQuantities(map[int]int{0: 4, 1: 0})

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, c, cart.Items[1].ProductID)
	assert.Equal(t, 5, cart.Quantity())
}

func TestCartSameLineNilVariant(t *testing.T) {
	id := uuid.New()
	item := CartItem{ProductID: id}

	assert.True(t, item.SameLine(id, nil))
	assert.False(t, item.SameLine(id, intPtr(0)))
	assert.False(t, item.SameLine(uuid.New(), nil))
}

func TestOrderTransitions(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	order := NewOrder(uuid.New(), "a@b.c", "addr", nil, Breakdown{}, now)
	require.Len(t, order.History, 1)
	assert.Equal(t, StatusPending, order.Status)

	t.Run("Forward path", func(t *testing.T) {
		for i, next := range []OrderStatus{StatusConfirmed, StatusShipping, StatusDelivered} {
			require.NoError(t, order.Transition(next, now.Add(time.Duration(i+1)*time.Minute)))
		}
		require.Len(t, order.History, 4)
		assert.Equal(t, StatusDelivered, order.LastHistory().Status)
		for i := 1; i < len(order.History); i++ {
			assert.True(t, order.History[i].UpdatedAt.After(order.History[i-1].UpdatedAt))
		}
	})

	t.Run("Terminal rejects changes", func(t *testing.T) {
		err := order.Transition(StatusCancelled, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Len(t, order.History, 4)
	})

	t.Run("Cancel from non-terminal", func(t *testing.T) {
		o := NewOrder(uuid.New(), "", "", nil, Breakdown{}, now)
		require.NoError(t, o.Transition(StatusConfirmed, now))
		require.NoError(t, o.Transition(StatusCancelled, now))
		assert.True(t, o.Status.Terminal())
	})

	t.Run("No skipping or repeating", func(t *testing.T) {
		o := NewOrder(uuid.New(), "", "", nil, Breakdown{}, now)
		assert.ErrorIs(t, o.Transition(StatusShipping, now), ErrInvalidTransition)
		assert.ErrorIs(t, o.Transition(StatusPending, now), ErrInvalidTransition)
		assert.Len(t, o.History, 1)
	})
}

func TestParseOrderStatus(t *testing.T) {
	st, ok := ParseOrderStatus("Shipping")
	assert.True(t, ok)
	assert.Equal(t, StatusShipping, st)

	_, ok = ParseOrderStatus("shipping")
	assert.False(t, ok)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SALE5", NormalizeCode("  sale5 "))
}

func TestRecomputeRating(t *testing.T) {
	p := Product{Reviews: []Review{{Rating: intPtr(5)}, {Rating: nil}, {Rating: intPtr(2)}}}
	p.RecomputeRating()
	assert.InDelta(t, 3.5, p.AverageRating, 0.0001)
	assert.Equal(t, 2, p.NumRatings)
}

func TestAddressFormat(t *testing.T) {
	a := Address{FullName: "An", Phone: "090", Street: "1 Le Loi", Ward: "Ben Nghe", District: "1", Province: "HCM"}
	assert.Equal(t, "An - 090 - 1 Le Loi, Ben Nghe, 1, HCM", a.Format())
	assert.False(t, a.IsBlank())
	assert.True(t, Address{FullName: "x"}.IsBlank())
}
