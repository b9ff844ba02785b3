// Package memory is an in-process implementation of models.Store used for
// local runs and tests. Values are copied on the way in and out so callers
// never share state with the store.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront/internal/models"
)

type data struct {
	users      map[uuid.UUID]models.User
	addresses  map[uuid.UUID][]models.Address
	orders     map[uuid.UUID]models.Order
	discounts  map[string]models.DiscountCode
	carts      map[uuid.UUID]models.Cart
	products   map[uuid.UUID]models.Product
	categories map[uuid.UUID]models.Category
}

func newData() *data {
	return &data{
		users:      make(map[uuid.UUID]models.User),
		addresses:  make(map[uuid.UUID][]models.Address),
		orders:     make(map[uuid.UUID]models.Order),
		discounts:  make(map[string]models.DiscountCode),
		carts:      make(map[uuid.UUID]models.Cart),
		products:   make(map[uuid.UUID]models.Product),
		categories: make(map[uuid.UUID]models.Category),
	}
}

func (d *data) clone() *data {
	out := newData()
	for k, v := range d.users {
		out.users[k] = cloneUser(v)
	}
	for k, v := range d.addresses {
		out.addresses[k] = append([]models.Address(nil), v...)
	}
	for k, v := range d.orders {
		out.orders[k] = cloneOrder(v)
	}
	for k, v := range d.discounts {
		out.discounts[k] = v
	}
	for k, v := range d.carts {
		out.carts[k] = v.Clone()
	}
	for k, v := range d.products {
		out.products[k] = cloneProduct(v)
	}
	for k, v := range d.categories {
		out.categories[k] = v
	}
	return out
}

type shared struct {
	mu   sync.Mutex
	txMu sync.Mutex
	d    *data
}

// state is one store handle's view of the shared data. Calls made outside a
// transaction wait for any running transaction, so its rollback can never
// discard them.
type state struct {
	sh   *shared
	inTx bool
}

// Store satisfies models.Store. Transactions are serialized and roll back by
// restoring a snapshot taken when they began.
type Store struct {
	st *state
}

func NewStore() *Store {
	return &Store{st: &state{sh: &shared{d: newData()}}}
}

func (s *Store) Users() models.UserRepository { return &userRepo{st: s.st} }
func (s *Store) Orders() models.OrderRepository { return &orderRepo{st: s.st} }
func (s *Store) Discounts() models.DiscountRepository { return &discountRepo{st: s.st} }
func (s *Store) Carts() models.CartRepository { return &cartRepo{st: s.st} }
func (s *Store) Products() models.ProductRepository { return &productRepo{st: s.st} }
func (s *Store) Categories() models.CategoryRepository { return &categoryRepo{st: s.st} }

func (s *Store) InTx(ctx context.Context, fn func(tx models.Store) error) error {
	if s.st.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sh := s.st.sh
	sh.txMu.Lock()
	defer sh.txMu.Unlock()

	sh.mu.Lock()
	snapshot := sh.d.clone()
	sh.mu.Unlock()

	if err := fn(&Store{st: &state{sh: sh, inTx: true}}); err != nil {
		sh.mu.Lock()
		sh.d = snapshot
		sh.mu.Unlock()
		return err
	}
	return nil
}

func (st *state) lock() *data {
	if !st.inTx {
		st.sh.txMu.Lock()
	}
	st.sh.mu.Lock()
	return st.sh.d
}

func (st *state) unlock() {
	st.sh.mu.Unlock()
	if !st.inTx {
		st.sh.txMu.Unlock()
	}
}

func cloneUser(u models.User) models.User {
	if u.ResetCode != nil {
		c := *u.ResetCode
		u.ResetCode = &c
	}
	if u.ResetCodeExpires != nil {
		t := *u.ResetCodeExpires
		u.ResetCodeExpires = &t
	}
	u.Addresses = append([]models.Address(nil), u.Addresses...)
	return u
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.VariantIndex = cloneIntPtr(it.VariantIndex)
		items[i] = it
	}
	o.Items = items
	o.History = append([]models.HistoryEntry{}, o.History...)
	if o.DiscountCodeID != nil {
		id := *o.DiscountCodeID
		o.DiscountCodeID = &id
	}
	return o
}

func cloneProduct(p models.Product) models.Product {
	p.Images = append([]string{}, p.Images...)
	p.Variants = append([]models.Variant{}, p.Variants...)
	reviews := make([]models.Review, len(p.Reviews))
	for i, r := range p.Reviews {
		r.Rating = cloneIntPtr(r.Rating)
		if r.UserID != nil {
			id := *r.UserID
			r.UserID = &id
		}
		reviews[i] = r
	}
	p.Reviews = reviews
	return p
}
