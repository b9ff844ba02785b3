package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/notify"
)

const (
	minPasswordLen = 6
	resetCodeLen   = 6
	resetCodeTTL   = 15 * time.Minute
)

// MailQueue hands mail to the background sender.
type MailQueue interface {
	Enqueue(ctx context.Context, msg notify.Message) error
}

type AccountService struct {
	store        models.Store
	passwords    models.PasswordManager
	carts        *CartService
	mail         MailQueue
	maxAddresses int
	logger       log.FieldLogger
	now          func() time.Time
}

func NewAccountService(store models.Store, passwords models.PasswordManager, carts *CartService,
	mail MailQueue, maxAddresses int, logger log.FieldLogger) *AccountService {
	return &AccountService{
		store:        store,
		passwords:    passwords,
		carts:        carts,
		mail:         mail,
		maxAddresses: maxAddresses,
		logger:       logger,
		now:          time.Now,
	}
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Address  string
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", models.NewValidationError("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", models.NewValidationError("email", "email is not valid")
	}
	return email, nil
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, models.NewValidationError("fullName", "full name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, models.NewValidationError("password", "password must be at least 6 characters")
	}
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           uuid.New(),
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
		Address:      strings.TrimSpace(in.Address),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.WithField("user", u.ID).Info("user registered")
	return u, nil
}

// Login checks the credentials and folds the guest cart into the user's
// persisted cart. It returns the merged cart.
func (s *AccountService) Login(ctx context.Context, email, password string, session models.Cart) (*models.User, models.Cart, error) {
	u, err := s.store.Users().FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.Cart{}, models.ErrInvalidCredential
	}
	if err != nil {
		return nil, models.Cart{}, err
	}
	ok, err := s.passwords.Check(u.PasswordHash, password)
	if err != nil {
		return nil, models.Cart{}, err
	}
	if !ok {
		return nil, models.Cart{}, models.ErrInvalidCredential
	}
	if !u.IsActive {
		return nil, models.Cart{}, models.ErrAccountDisabled
	}

	cart, err := s.carts.Merge(ctx, u.ID, session)
	if err != nil {
		return nil, models.Cart{}, err
	}
	s.logger.WithFields(log.Fields{"user": u.ID, "cartQty": cart.Quantity()}).Info("user signed in")
	return u, cart, nil
}

func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.store.Users().FindByID(ctx, userID)
}

type ProfileInput struct {
	FullName string
	Address  string
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, models.NewValidationError("fullName", "full name is required")
	}
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.FullName = name
	u.Address = strings.TrimSpace(in.Address)
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func checkNewPassword(next, confirm string) error {
	if len(next) < minPasswordLen {
		return models.NewValidationError("newPassword", "password must be at least 6 characters")
	}
	if next != confirm {
		return models.NewValidationError("confirmPassword", "passwords do not match")
	}
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next, confirm string) error {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := s.passwords.Check(u.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewValidationError("currentPassword", "current password is incorrect")
	}
	if err := checkNewPassword(next, confirm); err != nil {
		return err
	}
	if u.PasswordHash, err = s.passwords.Hash(next); err != nil {
		return err
	}
	return s.store.Users().Update(ctx, u)
}

// ForgotPassword stores a fresh one-time code on the account and mails it.
// Calling it again replaces the previous code.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	u, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := randomDigits(resetCodeLen)
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(resetCodeTTL)
	u.ResetCode, u.ResetCodeExpires = &code, &expires
	if err := s.store.Users().Update(ctx, u); err != nil {
		return err
	}

	msg, err := notify.ResetCodeMessage(u.Email, code, resetCodeTTL)
	if err != nil {
		return err
	}
	if err := s.mail.Enqueue(ctx, msg); err != nil {
		s.logger.WithError(err).WithField("user", u.ID).Warn("could not queue reset code mail")
	}
	return nil
}

func (s *AccountService) checkResetCode(u *models.User, code string) error {
	if u.ResetCode == nil || u.ResetCodeExpires == nil {
		return models.ErrResetCodeInvalid
	}
	if *u.ResetCode != strings.TrimSpace(code) || !s.now().Before(*u.ResetCodeExpires) {
		return models.ErrResetCodeInvalid
	}
	return nil
}

// VerifyResetCode checks a code without consuming it.
func (s *AccountService) VerifyResetCode(ctx context.Context, email, code string) error {
	u, err := s.store.Users().FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, models.ErrUserNotFound) {
		return models.ErrResetCodeInvalid
	}
	if err != nil {
		return err
	}
	return s.checkResetCode(u, code)
}

// ResetPassword sets a new password for an account whose code was verified
// and clears the code. The code must still be unexpired.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, next, confirm string) error {
	if err := checkNewPassword(next, confirm); err != nil {
		return err
	}
	u, err := s.store.Users().FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, models.ErrUserNotFound) {
		return models.ErrResetCodeInvalid
	}
	if err != nil {
		return err
	}
	if err := s.checkResetCode(u, code); err != nil {
		return err
	}
	if u.PasswordHash, err = s.passwords.Hash(next); err != nil {
		return err
	}
	u.ResetCode, u.ResetCodeExpires = nil, nil
	return s.store.Users().Update(ctx, u)
}

func (s *AccountService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.store.Users().ListAddresses(ctx, userID)
}

func validateAddress(a models.Address) error {
	if strings.TrimSpace(a.FullName) == "" {
		return models.NewValidationError("fullName", "recipient name is required")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return models.NewValidationError("phone", "phone is required")
	}
	if a.IsBlank() {
		return models.NewValidationError("street", "address is required")
	}
	return nil
}

// clearDefault unsets the default flag on every address except keep.
func clearDefault(ctx context.Context, tx models.Store, addrs []models.Address, keep uuid.UUID) error {
	for _, a := range addrs {
		if a.IsDefault && a.ID != keep {
			a.IsDefault = false
			if err := tx.Users().UpdateAddress(ctx, &a); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddAddress saves a new address. The first address becomes the default, and
// an address added as default takes the flag from the others.
func (s *AccountService) AddAddress(ctx context.Context, userID uuid.UUID, in models.Address) (*models.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}
	a := in
	a.ID = uuid.New()
	a.UserID = userID

	err := s.store.InTx(ctx, func(tx models.Store) error {
		addrs, err := tx.Users().ListAddresses(ctx, userID)
		if err != nil {
			return err
		}
		if len(addrs) >= s.maxAddresses {
			return models.ErrAddressLimit
		}
		if len(addrs) == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := clearDefault(ctx, tx, addrs, a.ID); err != nil {
				return err
			}
		}
		return tx.Users().InsertAddress(ctx, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func findAddress(addrs []models.Address, id uuid.UUID) (models.Address, bool) {
	for _, a := range addrs {
		if a.ID == id {
			return a, true
		}
	}
	return models.Address{}, false
}

func (s *AccountService) UpdateAddress(ctx context.Context, userID, id uuid.UUID, in models.Address) (*models.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}
	a := in
	a.ID, a.UserID = id, userID

	err := s.store.InTx(ctx, func(tx models.Store) error {
		addrs, err := tx.Users().ListAddresses(ctx, userID)
		if err != nil {
			return err
		}
		cur, ok := findAddress(addrs, id)
		if !ok {
			return models.ErrAddressNotFound
		}
		// the default can only move, not disappear
		if cur.IsDefault {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := clearDefault(ctx, tx, addrs, id); err != nil {
				return err
			}
		}
		return tx.Users().UpdateAddress(ctx, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AccountService) SetDefaultAddress(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx models.Store) error {
		addrs, err := tx.Users().ListAddresses(ctx, userID)
		if err != nil {
			return err
		}
		a, ok := findAddress(addrs, id)
		if !ok {
			return models.ErrAddressNotFound
		}
		if err := clearDefault(ctx, tx, addrs, id); err != nil {
			return err
		}
		a.IsDefault = true
		return tx.Users().UpdateAddress(ctx, &a)
	})
}

// DeleteAddress removes an address; when it was the default, the first
// remaining address is promoted.
func (s *AccountService) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx models.Store) error {
		addrs, err := tx.Users().ListAddresses(ctx, userID)
		if err != nil {
			return err
		}
		a, ok := findAddress(addrs, id)
		if !ok {
			return models.ErrAddressNotFound
		}
		if err := tx.Users().DeleteAddress(ctx, userID, id); err != nil {
			return err
		}
		if !a.IsDefault {
			return nil
		}
		for _, next := range addrs {
			if next.ID != id {
				next.IsDefault = true
				return tx.Users().UpdateAddress(ctx, &next)
			}
		}
		return nil
	})
}
