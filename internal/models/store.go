package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, filter UserFilter) ([]User, error)
	// Count counts users, restricted to those created at or after since when set.
	Count(ctx context.Context, since *time.Time) (int64, error)

	// LockLoyaltyPoints reads the balance and holds it until the surrounding
	// transaction ends.
	LockLoyaltyPoints(ctx context.Context, id uuid.UUID) (int64, error)
	SetLoyaltyPoints(ctx context.Context, id uuid.UUID, points int64) error

	ListAddresses(ctx context.Context, userID uuid.UUID) ([]Address, error)
	InsertAddress(ctx context.Context, addr *Address) error
	UpdateAddress(ctx context.Context, addr *Address) error
	DeleteAddress(ctx context.Context, userID, id uuid.UUID) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, int, error)
	// UpdateStatus persists the current status and appends the last history
	// entry, but only while the stored status is still from; otherwise it
	// returns ErrInvalidTransition and writes nothing.
	UpdateStatus(ctx context.Context, order *Order, from OrderStatus) error
	Summary(ctx context.Context) (SalesSummary, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
}

type DiscountRepository interface {
	FindByCode(ctx context.Context, code string) (*DiscountCode, error)
	List(ctx context.Context) ([]DiscountCode, error)
	Upsert(ctx context.Context, discount *DiscountCode) error
	// Redeem increments the usage count only while it is below the limit.
	Redeem(ctx context.Context, id uuid.UUID) error
}

type CartRepository interface {
	// FindByUser returns an empty cart when the user has none.
	FindByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	Count(ctx context.Context, filter ProductFilter) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, productID uuid.UUID, review *Review) error
	UpdateRating(ctx context.Context, productID uuid.UUID, average float64, count int) error
	// DecrementStock removes qty only if at least qty remains.
	DecrementStock(ctx context.Context, productID uuid.UUID, variantIndex, qty int) error
	IncrementStock(ctx context.Context, productID uuid.UUID, variantIndex, qty int) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	// Upsert inserts or renames the category keyed by slug.
	Upsert(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store groups the repositories. InTx runs fn against repositories bound to a
// single transaction that commits only if fn returns nil.
type Store interface {
	Users() UserRepository
	Orders() OrderRepository
	Discounts() DiscountRepository
	Carts() CartRepository
	Products() ProductRepository
	Categories() CategoryRepository
	InTx(ctx context.Context, fn func(tx Store) error) error
}
