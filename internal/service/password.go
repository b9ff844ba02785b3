package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptPasswords implements models.PasswordManager.
type BcryptPasswords struct {
	cost int
}

func NewBcryptPasswords(cost int) *BcryptPasswords {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswords{cost: cost}
}

func (p *BcryptPasswords) Hash(plainTextPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), p.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

func (p *BcryptPasswords) Check(hashedPassword, plainTextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainTextPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "check password")
	}
	return true, nil
}

// randomPassword is the placeholder credential given to accounts created at checkout.
func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "random password")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", errors.Wrap(err, "random code")
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
