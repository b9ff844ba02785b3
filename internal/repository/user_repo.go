package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront/internal/models"
)

type UserRepo struct {
	db dbtx
}

func NewUserRepo(db dbtx) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, full_name, email, password_hash, role, is_active, address,
	loyalty_points, reset_code, reset_code_expires, created_at`

const addressColumns = `id, user_id, full_name, phone, province, district, ward, street, is_default, position`

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Role, u.IsActive, u.Address,
		u.LoyaltyPoints, u.ResetCode, u.ResetCodeExpires, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		return errors.Wrap(err, "insert user")
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "select user")
	}
	addrs, err := r.ListAddresses(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Addresses = addrs
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET full_name = $2, email = $3, password_hash = $4, role = $5, is_active = $6,
		    address = $7, reset_code = $8, reset_code_expires = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Role, u.IsActive,
		u.Address, u.ResetCode, u.ResetCodeExpires,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		return errors.Wrap(err, "update user")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	if !ok {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	var w where
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(full_name ILIKE ? OR email ILIKE ?)", p, p)
	}
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY created_at DESC`)

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, w.args...); err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return users, nil
}

func (r *UserRepo) Count(ctx context.Context, since *time.Time) (int64, error) {
	var n int64
	var err error
	if since == nil {
		err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	} else {
		err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, *since)
	}
	if err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return n, nil
}

// LockLoyaltyPoints must run inside a transaction for the row lock to matter.
func (r *UserRepo) LockLoyaltyPoints(ctx context.Context, id uuid.UUID) (int64, error) {
	var points int64
	query := `
		SELECT loyalty_points
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	if err := r.db.GetContext(ctx, &points, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, models.ErrUserNotFound
		}
		return 0, errors.Wrap(err, "lock loyalty points")
	}
	return points, nil
}

func (r *UserRepo) SetLoyaltyPoints(ctx context.Context, id uuid.UUID, points int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET loyalty_points = $2 WHERE id = $1`, id, points)
	if err != nil {
		return errors.Wrap(err, "set loyalty points")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "set loyalty points")
	}
	if !ok {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addrs := []models.Address{}
	query := `SELECT ` + addressColumns + ` FROM user_addresses WHERE user_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &addrs, query, userID); err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return addrs, nil
}

func (r *UserRepo) InsertAddress(ctx context.Context, a *models.Address) error {
	query := `
		INSERT INTO user_addresses (` + addressColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE(MAX(position) + 1, 0)
		FROM user_addresses WHERE user_id = $2
		RETURNING position
	`
	err := r.db.QueryRowxContext(ctx, query,
		a.ID, a.UserID, a.FullName, a.Phone, a.Province, a.District, a.Ward, a.Street, a.IsDefault,
	).Scan(&a.Position)
	if err != nil {
		return errors.Wrap(err, "insert address")
	}
	return nil
}

func (r *UserRepo) UpdateAddress(ctx context.Context, a *models.Address) error {
	query := `
		UPDATE user_addresses
		SET full_name = $3, phone = $4, province = $5, district = $6, ward = $7,
		    street = $8, is_default = $9
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.FullName, a.Phone, a.Province, a.District, a.Ward, a.Street, a.IsDefault,
	)
	if err != nil {
		return errors.Wrap(err, "update address")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "update address")
	}
	if !ok {
		return models.ErrAddressNotFound
	}
	return nil
}

func (r *UserRepo) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.Wrap(err, "delete address")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return errors.Wrap(err, "delete address")
	}
	if !ok {
		return models.ErrAddressNotFound
	}
	return nil
}
