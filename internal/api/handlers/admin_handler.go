package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/service"
)

type AdminHandler struct {
	base
	admin     *service.AdminService
	discounts *service.DiscountService
}

func NewAdminHandler(admin *service.AdminService, discounts *service.DiscountService,
	sessions *cache.SessionCache, logger log.FieldLogger) *AdminHandler {
	return &AdminHandler{
		base:      base{sessions: sessions, logger: logger},
		admin:     admin,
		discounts: discounts,
	}
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"dashboard": d})
}

// --- products ---

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.admin.ListProducts(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"products": products})
}

func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.admin.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"product": p})
}

type productRequest struct {
	Name        string           `json:"name"`
	Brand       string           `json:"brand"`
	Category    string           `json:"category"`
	Price       int64            `json:"price"`
	Description string           `json:"description"`
	Images      []string         `json:"images"`
	Variants    []models.Variant `json:"variants"`
	IsActive    bool             `json:"isActive"`
}

func (req productRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Brand:       req.Brand,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		Images:      req.Images,
		Variants:    req.Variants,
		IsActive:    req.IsActive,
	}
}

// CreateProduct handles POST /api/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.admin.SaveProduct(r.Context(), nil, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "product created", envelope{"product": p})
}

// UpdateProduct handles PUT /api/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req productRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.admin.SaveProduct(r.Context(), &id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "product updated", envelope{"product": p})
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.admin.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "product deleted", nil)
}

// --- discounts ---

func (h *AdminHandler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	codes, err := h.discounts.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"discounts": codes})
}

type discountRequest struct {
	Code          string `json:"code"`
	DiscountValue int64  `json:"discountValue"`
	UsageLimit    int    `json:"usageLimit"`
}

// SaveDiscount handles POST /api/admin/discounts
func (h *AdminHandler) SaveDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.discounts.Upsert(r.Context(), service.DiscountInput{
		Code:          req.Code,
		DiscountValue: req.DiscountValue,
		UsageLimit:    req.UsageLimit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "discount code saved", envelope{"discount": d})
}

// --- users ---

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.admin.ListUsers(r.Context(), service.UserQuery{
		Query:  q.Get("q"),
		Role:   q.Get("role"),
		Status: q.Get("status"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"users": users})
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.admin.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"user": u})
}

type userRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// UpdateUser handles PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req userRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.admin.UpdateUser(r.Context(), *h.session(r).UserID, id, service.UserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Address:  req.Address,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "user updated", envelope{"user": u})
}

// ToggleUser handles POST /api/admin/users/{id}/toggle-active
func (h *AdminHandler) ToggleUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.admin.ToggleUserActive(r.Context(), *h.session(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := "user unblocked"
	if !u.IsActive {
		msg = "user blocked"
	}
	writeOK(w, http.StatusOK, msg, envelope{"user": u})
}

// --- categories ---

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.admin.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"categories": cats})
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *AdminHandler) SaveCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.admin.SaveCategory(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "category saved", envelope{"category": c})
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.admin.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "category deleted", nil)
}
