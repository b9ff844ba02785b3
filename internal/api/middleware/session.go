package middleware

import (
	"context"
	"net/http"

	"github.com/Cheertaboi/storefront/internal/cache"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "sid"

type ctxKey int

const (
	sessionKey ctxKey = iota
	secureKey
)

// Sessions loads the browser session, creating one (and its cookie) when the
// request carries none or an expired one.
func Sessions(store *cache.SessionCache, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s *cache.Session
			if c, err := r.Cookie(SessionCookie); err == nil {
				s, _ = store.Get(c.Value)
			}
			if s == nil {
				s = store.New()
				setCookie(w, s.ID, secure)
			}
			ctx := context.WithValue(WithSession(r.Context(), s), secureKey, secure)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func setCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RenewSession gives s a new ID and sends the matching cookie, so an ID
// handed out before sign-in never carries a signed-in user.
func RenewSession(w http.ResponseWriter, r *http.Request, store *cache.SessionCache, s *cache.Session) {
	store.Rotate(s)
	secure, _ := r.Context().Value(secureKey).(bool)
	setCookie(w, s.ID, secure)
}

func WithSession(ctx context.Context, s *cache.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the request's session. Handlers mutate it and save it
// back through the session cache.
func SessionFrom(ctx context.Context) *cache.Session {
	s, _ := ctx.Value(sessionKey).(*cache.Session)
	return s
}
