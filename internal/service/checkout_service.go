package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/loyalty"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/notify"
	"github.com/Cheertaboi/storefront/internal/pricing"
)

type CheckoutInput struct {
	// SessionUserID is set when the buyer is signed in.
	SessionUserID  *uuid.UUID
	FullName       string
	Email          string
	Address        models.Address
	SavedAddressID *uuid.UUID
	DiscountCode   string
	UsePoints      bool
	Cart           models.Cart
}

type CheckoutResult struct {
	Order *models.Order
	// User carries the balance settled by this order.
	User       *models.User
	NewAccount bool
	// SignIn is false when the buyer was only matched by email; the session
	// must then stay anonymous.
	SignIn bool
}

// customer is the account an order is placed for. Owner is set when the buyer
// is signed in as it or has just created it; only owners may spend points or
// use and grow the saved address book.
type customer struct {
	user    *models.User
	created bool
	owner   bool
}

type CheckoutService struct {
	store     models.Store
	accounts  *AccountService
	discounts *DiscountService
	calc      *pricing.Calculator
	passwords models.PasswordManager
	mail      MailQueue
	logger    log.FieldLogger
	now       func() time.Time
}

func NewCheckoutService(store models.Store, accounts *AccountService, discounts *DiscountService,
	calc *pricing.Calculator, passwords models.PasswordManager, mail MailQueue, logger log.FieldLogger) *CheckoutService {
	return &CheckoutService{
		store:     store,
		accounts:  accounts,
		discounts: discounts,
		calc:      calc,
		passwords: passwords,
		mail:      mail,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout turns a cart into a Pending order. Stock, the order itself, the
// discount redemption, the loyalty balance and the persisted cart are written
// in one transaction; the confirmation mail is queued only after it commits.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	// 1) cart
	if in.Cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}

	// 2) customer
	c, err := s.resolveCustomer(ctx, in)
	if err != nil {
		return nil, err
	}
	user := c.user
	usePoints := in.UsePoints && c.owner

	// 3) shipping address
	address, err := s.resolveAddress(ctx, c, in)
	if err != nil {
		return nil, err
	}

	// 4) discount; an unusable code is ignored, not fatal
	var discount *models.DiscountCode
	if models.NormalizeCode(in.DiscountCode) != "" {
		v, err := s.discounts.Validate(ctx, in.DiscountCode)
		if err != nil {
			return nil, err
		}
		if v.Valid {
			discount = v.Discount
		} else {
			s.logger.WithFields(log.Fields{"code": in.DiscountCode, "reason": v.Message}).Info("discount code not applied")
		}
	}

	// 5) persist everything or nothing
	items := models.OrderItemsFromCart(in.Cart)
	subtotal := in.Cart.Total()
	var order *models.Order
	var balance int64
	err = s.store.InTx(ctx, func(tx models.Store) error {
		current, err := tx.Users().LockLoyaltyPoints(ctx, user.ID)
		if err != nil {
			return err
		}

		var discountValue int64
		if discount != nil {
			discountValue = discount.DiscountValue
		}
		breakdown := s.calc.Calculate(pricing.Input{
			Subtotal:      subtotal,
			DiscountValue: discountValue,
			UsePoints:     usePoints,
			PointBalance:  current,
		})

		for _, it := range items {
			if it.VariantIndex == nil {
				continue
			}
			if err := tx.Products().DecrementStock(ctx, it.ProductID, *it.VariantIndex, it.Quantity); err != nil {
				return errors.Wrapf(err, "%s %s", it.Name, it.VariantName)
			}
		}

		order = models.NewOrder(user.ID, user.Email, address, items, breakdown, s.now().UTC())
		if discount != nil && breakdown.DiscountValue > 0 {
			id := discount.ID
			order.DiscountCodeID = &id
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		if err := s.discounts.Redeem(ctx, tx, discount, breakdown.DiscountValue); err != nil {
			return err
		}

		balance = loyalty.Settle(current, breakdown.UsedPoints, breakdown.EarnedPoints)
		if err := tx.Users().SetLoyaltyPoints(ctx, user.ID, balance); err != nil {
			return err
		}
		return tx.Carts().DeleteByUser(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	user.LoyaltyPoints = balance

	s.logger.WithFields(log.Fields{
		"order":  order.ID,
		"user":   user.ID,
		"total":  order.Pricing.Total,
		"points": order.Pricing.UsedPoints,
	}).Info("order placed")

	// 6) confirmation mail, best effort
	s.queueConfirmation(ctx, user, order)

	return &CheckoutResult{Order: order, User: user, NewAccount: c.created, SignIn: c.owner}, nil
}

// resolveCustomer prefers the signed-in user, then an account with the
// submitted email, and finally creates an account with a random password.
// An email match does not make the buyer the owner of that account.
func (s *CheckoutService) resolveCustomer(ctx context.Context, in CheckoutInput) (customer, error) {
	name := strings.TrimSpace(in.FullName)

	if in.SessionUserID != nil {
		u, err := s.store.Users().FindByID(ctx, *in.SessionUserID)
		switch {
		case err == nil:
			if !u.IsActive {
				return customer{}, models.ErrAccountDisabled
			}
			if name != "" && name != u.FullName {
				u.FullName = name
				if err := s.store.Users().Update(ctx, u); err != nil {
					return customer{}, err
				}
			}
			return customer{user: u, owner: true}, nil
		case !errors.Is(err, models.ErrUserNotFound):
			return customer{}, err
		}
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return customer{}, err
	}
	u, err := s.store.Users().FindByEmail(ctx, email)
	if err == nil {
		if !u.IsActive {
			return customer{}, models.ErrAccountDisabled
		}
		return customer{user: u}, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return customer{}, err
	}

	if name == "" {
		return customer{}, models.NewValidationError("fullName", "full name is required")
	}
	password, err := randomPassword()
	if err != nil {
		return customer{}, err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return customer{}, err
	}
	u = &models.User{
		ID:           uuid.New(),
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			// lost a race with a concurrent checkout for the same email
			u, err = s.store.Users().FindByEmail(ctx, email)
			return customer{user: u}, err
		}
		return customer{}, err
	}
	s.logger.WithField("user", u.ID).Info("account created at checkout")
	return customer{user: u, created: true, owner: true}, nil
}

// resolveAddress picks, in order: the selected saved address, a freshly
// submitted one (saved while the user is under the cap), the default saved
// address, the legacy free-text address. A buyer matched only by email gets
// none of the saved addresses and the submitted one is not stored.
func (s *CheckoutService) resolveAddress(ctx context.Context, c customer, in CheckoutInput) (string, error) {
	u := c.user
	if !c.owner {
		if in.Address.IsBlank() {
			return "", models.ErrMissingAddress
		}
		a := in.Address
		if strings.TrimSpace(a.FullName) == "" {
			a.FullName = strings.TrimSpace(in.FullName)
		}
		if err := validateAddress(a); err != nil {
			return "", err
		}
		return a.Format(), nil
	}

	if in.SavedAddressID != nil {
		a, ok := findAddress(u.Addresses, *in.SavedAddressID)
		if !ok {
			return "", models.ErrAddressNotFound
		}
		return a.Format(), nil
	}

	if !in.Address.IsBlank() {
		a := in.Address
		if strings.TrimSpace(a.FullName) == "" {
			a.FullName = u.FullName
		}
		saved, err := s.accounts.AddAddress(ctx, u.ID, a)
		switch {
		case err == nil:
			u.Addresses = append(u.Addresses, *saved)
			return saved.Format(), nil
		case errors.Is(err, models.ErrAddressLimit):
			return a.Format(), nil
		default:
			return "", err
		}
	}

	if a, ok := u.DefaultAddress(); ok {
		return a.Format(), nil
	}
	if legacy := strings.TrimSpace(u.Address); legacy != "" {
		return legacy, nil
	}
	return "", models.ErrMissingAddress
}

func (s *CheckoutService) queueConfirmation(ctx context.Context, u *models.User, order *models.Order) {
	entry := s.logger.WithField("order", order.ID)
	msg, err := notify.OrderConfirmationMessage(u.FullName, order)
	if err != nil {
		entry.WithError(err).Error("render order confirmation")
		return
	}
	if err := s.mail.Enqueue(ctx, msg); err != nil {
		entry.WithError(err).Warn("could not queue order confirmation")
	}
}
