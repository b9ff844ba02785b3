package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront/internal/models"
)

type userRepo struct {
	st *state
}

func emailTaken(d *data, email string, except uuid.UUID) bool {
	for id, u := range d.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	d := r.st.lock()
	defer r.st.unlock()

	if emailTaken(d, u.Email, uuid.Nil) {
		return models.ErrEmailTaken
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	stored := cloneUser(*u)
	stored.Addresses = nil
	d.users[u.ID] = stored
	return nil
}

func (r *userRepo) find(d *data, match func(models.User) bool) (*models.User, error) {
	for _, u := range d.users {
		if match(u) {
			out := cloneUser(u)
			out.Addresses = append([]models.Address{}, d.addresses[u.ID]...)
			return &out, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	d := r.st.lock()
	defer r.st.unlock()
	return r.find(d, func(u models.User) bool { return u.ID == id })
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	d := r.st.lock()
	defer r.st.unlock()
	return r.find(d, func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepo) Update(_ context.Context, u *models.User) error {
	d := r.st.lock()
	defer r.st.unlock()

	cur, ok := d.users[u.ID]
	if !ok {
		return models.ErrUserNotFound
	}
	if emailTaken(d, u.Email, u.ID) {
		return models.ErrEmailTaken
	}
	next := cloneUser(*u)
	next.Addresses = nil
	next.LoyaltyPoints = cur.LoyaltyPoints
	next.CreatedAt = cur.CreatedAt
	d.users[u.ID] = next
	return nil
}

func (r *userRepo) List(_ context.Context, f models.UserFilter) ([]models.User, error) {
	d := r.st.lock()
	defer r.st.unlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	users := []models.User{}
	for _, u := range d.users {
		if q != "" && !strings.Contains(strings.ToLower(u.FullName), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		users = append(users, cloneUser(u))
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *userRepo) Count(_ context.Context, since *time.Time) (int64, error) {
	d := r.st.lock()
	defer r.st.unlock()

	var n int64
	for _, u := range d.users {
		if since == nil || !u.CreatedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

// LockLoyaltyPoints relies on InTx serializing transactions.
func (r *userRepo) LockLoyaltyPoints(_ context.Context, id uuid.UUID) (int64, error) {
	d := r.st.lock()
	defer r.st.unlock()

	u, ok := d.users[id]
	if !ok {
		return 0, models.ErrUserNotFound
	}
	return u.LoyaltyPoints, nil
}

func (r *userRepo) SetLoyaltyPoints(_ context.Context, id uuid.UUID, points int64) error {
	d := r.st.lock()
	defer r.st.unlock()

	u, ok := d.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	u.LoyaltyPoints = points
	d.users[id] = u
	return nil
}

func (r *userRepo) ListAddresses(_ context.Context, userID uuid.UUID) ([]models.Address, error) {
	d := r.st.lock()
	defer r.st.unlock()
	return append([]models.Address{}, d.addresses[userID]...), nil
}

func (r *userRepo) InsertAddress(_ context.Context, a *models.Address) error {
	d := r.st.lock()
	defer r.st.unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	list := d.addresses[a.UserID]
	a.Position = 0
	if n := len(list); n > 0 {
		a.Position = list[n-1].Position + 1
	}
	d.addresses[a.UserID] = append(list, *a)
	return nil
}

func (r *userRepo) UpdateAddress(_ context.Context, a *models.Address) error {
	d := r.st.lock()
	defer r.st.unlock()

	list := d.addresses[a.UserID]
	for i := range list {
		if list[i].ID == a.ID {
			a.Position = list[i].Position
			list[i] = *a
			return nil
		}
	}
	return models.ErrAddressNotFound
}

func (r *userRepo) DeleteAddress(_ context.Context, userID, id uuid.UUID) error {
	d := r.st.lock()
	defer r.st.unlock()

	list := d.addresses[userID]
	for i := range list {
		if list[i].ID == id {
			d.addresses[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return models.ErrAddressNotFound
}
