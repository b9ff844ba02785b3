// Package cache keeps browser sessions in memory.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront/internal/models"
)

// Session is the per-browser state carried between requests.
type Session struct {
	ID              string
	UserID          *uuid.UUID
	Role            models.Role
	Cart            models.Cart
	ResetEmail      string
	AppliedDiscount *models.AppliedDiscount
	ExpiresAt       time.Time
}

func (s *Session) clone() *Session {
	out := *s
	if s.UserID != nil {
		id := *s.UserID
		out.UserID = &id
	}
	out.Cart = s.Cart.Clone()
	if s.AppliedDiscount != nil {
		d := *s.AppliedDiscount
		out.AppliedDiscount = &d
	}
	return &out
}

// SignedIn reports whether the session carries a user.
func (s *Session) SignedIn() bool {
	return s.UserID != nil
}

// SessionCache stores sessions by ID with a sliding TTL.
type SessionCache struct {
	mu    sync.RWMutex
	store map[string]*Session
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionCache(ttl time.Duration) *SessionCache {
	return &SessionCache{
		store: make(map[string]*Session),
		ttl:   ttl,
		now:   time.Now,
	}
}

// New creates an empty session.
func (c *SessionCache) New() *Session {
	s := &Session{ID: uuid.NewString(), Cart: models.Cart{Items: []models.CartItem{}}}
	c.Set(s)
	return s.clone()
}

// Get returns a copy of the session, or false when missing or expired.
func (c *SessionCache) Get(id string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.store[id]
	if !ok || !c.now().Before(s.ExpiresAt) {
		return nil, false
	}
	return s.clone(), true
}

// Set stores a copy of s and extends its expiry.
func (c *SessionCache) Set(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.ExpiresAt = c.now().Add(c.ttl)
	c.store[s.ID] = s.clone()
}

// Rotate moves s to a fresh ID and stores it there; the old ID stops
// resolving. Called whenever the session changes who it is signed in as.
func (c *SessionCache) Rotate(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, s.ID)
	s.ID = uuid.NewString()
	s.ExpiresAt = c.now().Add(c.ttl)
	c.store[s.ID] = s.clone()
}

func (c *SessionCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, id)
}

func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *SessionCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, s := range c.store {
		if !now.Before(s.ExpiresAt) {
			delete(c.store, id)
			n++
		}
	}
	return n
}

// RunJanitor evicts expired sessions every interval until ctx is done.
func (c *SessionCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}
