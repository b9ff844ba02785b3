package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Cheertaboi/storefront/internal/models"
)

const (
	newUserWindow  = 30 * 24 * time.Hour
	topProductsMax = 5
)

// AdminService backs the back-office: dashboard, products, users and categories.
// Orders and discount codes have their own services.
type AdminService struct {
	store  models.Store
	logger log.FieldLogger
	now    func() time.Time
}

func NewAdminService(store models.Store, logger log.FieldLogger) *AdminService {
	return &AdminService{store: store, logger: logger, now: time.Now}
}

type Dashboard struct {
	TotalUsers   int64               `json:"totalUsers"`
	NewUsers     int64               `json:"newUsers"`
	TotalOrders  int64               `json:"totalOrders"`
	TotalRevenue int64               `json:"totalRevenue"`
	TopProducts  []models.TopProduct `json:"topProducts"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	since := s.now().UTC().Add(-newUserWindow)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalUsers, err = s.store.Users().Count(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		d.NewUsers, err = s.store.Users().Count(ctx, &since)
		return err
	})
	g.Go(func() error {
		sum, err := s.store.Orders().Summary(ctx)
		d.TotalOrders, d.TotalRevenue = sum.TotalOrders, sum.TotalRevenue
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = s.store.Orders().TopProducts(ctx, topProductsMax)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// ListProducts searches name and description, including inactive products.
func (s *AdminService) ListProducts(ctx context.Context, q, category string) ([]models.Product, error) {
	return s.store.Products().List(ctx, models.ProductFilter{
		Query:             strings.TrimSpace(q),
		Category:          strings.TrimSpace(category),
		SearchDescription: true,
	})
}

func (s *AdminService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.store.Products().FindByID(ctx, id)
}

type ProductInput struct {
	Name        string
	Brand       string
	Category    string
	Price       int64
	Description string
	Images      []string
	Variants    []models.Variant
	IsActive    bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.NewValidationError("name", "name is required")
	}
	if in.Price < 0 {
		return models.NewValidationError("price", "price cannot be negative")
	}
	for _, v := range in.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return models.NewValidationError("variants", "variant name is required")
		}
		if v.Price < 0 || v.Stock < 0 {
			return models.NewValidationError("variants", "variant price and stock cannot be negative")
		}
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Brand = strings.TrimSpace(in.Brand)
	p.Category = strings.TrimSpace(in.Category)
	p.Description = in.Description
	p.Images = append([]string{}, in.Images...)
	p.Variants = append([]models.Variant{}, in.Variants...)
	p.IsActive = in.IsActive
	p.Price = in.Price
	// the listed price of a variant product is its cheapest variant
	if p.Price == 0 {
		for i, v := range p.Variants {
			if i == 0 || v.Price < p.Price {
				p.Price = v.Price
			}
		}
	}
}

// SaveProduct creates the product when id is nil, otherwise replaces it.
func (s *AdminService) SaveProduct(ctx context.Context, id *uuid.UUID, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{}
	err := s.store.InTx(ctx, func(tx models.Store) error {
		if id == nil {
			p.ID = uuid.New()
			p.CreatedAt = s.now().UTC()
			in.apply(p)
			return tx.Products().Create(ctx, p)
		}
		cur, err := tx.Products().FindByID(ctx, *id)
		if err != nil {
			return err
		}
		p = cur
		in.apply(p)
		return tx.Products().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("product", p.ID).Info("product saved")
	return p, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.store.Products().Delete(ctx, id)
}

type UserQuery struct {
	Query string
	Role  string
	// Status is "active", "blocked" or empty.
	Status string
}

func (s *AdminService) ListUsers(ctx context.Context, q UserQuery) ([]models.User, error) {
	f := models.UserFilter{Query: strings.TrimSpace(q.Query)}
	switch models.Role(q.Role) {
	case models.RoleUser, models.RoleAdmin:
		f.Role = models.Role(q.Role)
	case "":
	default:
		return nil, models.NewValidationError("role", "unknown role")
	}
	switch q.Status {
	case "active", "blocked":
		active := q.Status == "active"
		f.Active = &active
	case "":
	default:
		return nil, models.NewValidationError("status", "unknown status")
	}
	return s.store.Users().List(ctx, f)
}

func (s *AdminService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.Users().FindByID(ctx, id)
}

type UserInput struct {
	FullName string
	Email    string
	Address  string
	Role     string
	IsActive bool
}

// UpdateUser edits an account. Admins cannot demote or block themselves.
func (s *AdminService) UpdateUser(ctx context.Context, actorID, id uuid.UUID, in UserInput) (*models.User, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, models.NewValidationError("fullName", "full name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role := models.Role(in.Role)
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.NewValidationError("role", "unknown role")
	}
	if actorID == id && (role != models.RoleAdmin || !in.IsActive) {
		return nil, models.NewValidationError("role", "you cannot demote or block your own account")
	}

	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.FullName, u.Email, u.Address = name, email, strings.TrimSpace(in.Address)
	u.Role, u.IsActive = role, in.IsActive
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ToggleUserActive blocks an active account or unblocks a blocked one.
func (s *AdminService) ToggleUserActive(ctx context.Context, actorID, id uuid.UUID) (*models.User, error) {
	if actorID == id {
		return nil, models.NewValidationError("id", "you cannot block your own account")
	}
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsActive = !u.IsActive
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.WithFields(log.Fields{"user": id, "active": u.IsActive}).Info("user access changed")
	return u, nil
}

func (s *AdminService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.Categories().List(ctx)
}

// SaveCategory upserts by slug, so saving "Màn hình" twice renames one row.
func (s *AdminService) SaveCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	slug := Slugify(name)
	if slug == "" {
		return nil, models.NewValidationError("name", "category name is required")
	}
	c := &models.Category{Name: name, Slug: slug}
	if err := s.store.Categories().Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *AdminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.store.Categories().Delete(ctx, id)
}

// Slugify strips diacritics, lowercases and joins alphanumeric runs with "-".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = strings.NewReplacer("đ", "d", "Đ", "d").Replace(plain)

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
