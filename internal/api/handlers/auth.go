package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/api/middleware"
	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/models"
)

type userLookup interface {
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// RequireUser rejects requests whose session has no signed-in, active user.
func RequireUser(users userLookup, sessions *cache.SessionCache, logger log.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := currentUser(w, r, users, sessions, logger); ok {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAdmin rejects requests from anyone but a signed-in admin. The role
// is read from the account, not from the session.
func RequireAdmin(users userLookup, sessions *cache.SessionCache, logger log.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := currentUser(w, r, users, sessions, logger)
			if !ok {
				return
			}
			if !u.IsAdmin() {
				writeError(w, r, logger, models.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentUser loads the session's account and writes the error response when
// there is none. A deleted or blocked account signs the session out, and a
// changed role is copied into the session.
func currentUser(w http.ResponseWriter, r *http.Request, users userLookup,
	sessions *cache.SessionCache, logger log.FieldLogger) (*models.User, bool) {
	s := middleware.SessionFrom(r.Context())
	if s == nil || !s.SignedIn() {
		writeError(w, r, logger, models.ErrUnauthenticated)
		return nil, false
	}

	u, err := users.Profile(r.Context(), *s.UserID)
	switch {
	case models.IsNotFound(err):
		signOut(sessions, s)
		writeError(w, r, logger, models.ErrUnauthenticated)
		return nil, false
	case err != nil:
		writeError(w, r, logger, err)
		return nil, false
	case !u.IsActive:
		signOut(sessions, s)
		writeError(w, r, logger, models.ErrAccountDisabled)
		return nil, false
	}

	if s.Role != u.Role {
		s.Role = u.Role
		if s.ID != "" {
			sessions.Set(s)
		}
	}
	return u, true
}

func signOut(sessions *cache.SessionCache, s *cache.Session) {
	s.UserID, s.Role = nil, ""
	if s.ID != "" {
		sessions.Set(s)
	}
}
