package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	FullName         string     `json:"fullName" db:"full_name"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Role             Role       `json:"role" db:"role"`
	IsActive         bool       `json:"isActive" db:"is_active"`
	Address          string     `json:"address" db:"address"`
	LoyaltyPoints    int64      `json:"loyaltyPoints" db:"loyalty_points"`
	ResetCode        *string    `json:"-" db:"reset_code"`
	ResetCodeExpires *time.Time `json:"-" db:"reset_code_expires"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	Addresses        []Address  `json:"addresses" db:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DefaultAddress returns the address flagged as default, if any.
func (u *User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

type Address struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	FullName  string    `json:"fullName" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"`
	Province  string    `json:"province" db:"province"`
	District  string    `json:"district" db:"district"`
	Ward      string    `json:"ward" db:"ward"`
	Street    string    `json:"street" db:"street"`
	IsDefault bool      `json:"isDefault" db:"is_default"`
	Position  int       `json:"-" db:"position"`
}

// IsBlank reports whether no location field was filled in.
func (a Address) IsBlank() bool {
	return strings.TrimSpace(a.Street+a.Ward+a.District+a.Province) == ""
}

// Format renders the address as the single line stored on orders.
func (a Address) Format() string {
	return fmt.Sprintf("%s - %s - %s, %s, %s, %s",
		a.FullName, a.Phone, a.Street, a.Ward, a.District, a.Province)
}

type UserFilter struct {
	Query  string
	Role   Role
	Active *bool
}

type PasswordManager interface {
	Hash(plainTextPassword string) (string, error)
	Check(hashedPassword, plainTextPassword string) (bool, error)
}
