package handlers

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/Cheertaboi/storefront/internal/models"
)

func TestStatusFor(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code int
	}{
		{models.NewValidationError("name", "name is required"), http.StatusBadRequest},
		{models.ErrEmptyCart, http.StatusBadRequest},
		{errors.Wrapf(models.ErrInsufficientStock, "%s %s", "Laptop", "16GB"), http.StatusBadRequest},
		{models.ErrUnauthenticated, http.StatusUnauthorized},
		{models.ErrAccountDisabled, http.StatusForbidden},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrProductNotFound, http.StatusNotFound},
		{errors.Wrap(models.ErrOrderNotFound, "select order"), http.StatusNotFound},
		{errors.Wrap(models.ErrInvalidTransition, "Delivered -> Cancelled"), http.StatusConflict},
		{models.ErrDiscountExhausted, http.StatusConflict},
		{models.ErrEmailTaken, http.StatusConflict},
		{models.ErrAddressLimit, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	} {
		code, _ := statusFor(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
	}

	_, msg := statusFor(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal error", msg, "internal causes stay server side")

	_, msg = statusFor(models.NewValidationError("name", "name is required"))
	assert.Equal(t, "name is required", msg)
}
