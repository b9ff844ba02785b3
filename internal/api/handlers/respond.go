package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/api/middleware"
	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/models"
)

const maxBodyBytes = 1 << 20

// envelope is the body of every JSON response: success plus named fields.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, code int, message string, fields envelope) {
	body := envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, code, body)
}

// statusFor maps domain errors to HTTP statuses and client-safe messages.
func statusFor(err error) (int, string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrMissingAddress),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrDiscountInvalid),
		errors.Is(err, models.ErrResetCodeInvalid),
		errors.Is(err, models.ErrInvalidCredential):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrAccountDisabled):
		return http.StatusForbidden, err.Error()
	case models.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrDiscountExhausted),
		errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrAddressLimit):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger log.FieldLogger, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.WithError(err).WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	}
	writeJSON(w, code, envelope{"success": false, "message": msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return models.NewValidationError("body", "invalid request body")
	}
	return nil
}

func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, models.NewValidationError(name, "invalid id")
	}
	return id, nil
}

// base carries what every handler needs: the session cache and a logger.
type base struct {
	sessions *cache.SessionCache
	logger   log.FieldLogger
}

func (b base) session(r *http.Request) *cache.Session {
	if s := middleware.SessionFrom(r.Context()); s != nil {
		return s
	}
	// handlers mounted without the session middleware get a throwaway session
	return &cache.Session{}
}

func (b base) save(s *cache.Session) {
	if s.ID != "" {
		b.sessions.Set(s)
	}
}

// signIn puts u on the session under a fresh session ID.
func (b base) signIn(w http.ResponseWriter, r *http.Request, s *cache.Session, u *models.User) {
	id := u.ID
	s.UserID, s.Role = &id, u.Role
	if s.ID != "" {
		middleware.RenewSession(w, r, b.sessions, s)
	}
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, b.logger, err)
}
