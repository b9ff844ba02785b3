package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/service"
)

type CartHandler struct {
	base
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService, sessions *cache.SessionCache, logger log.FieldLogger) *CartHandler {
	return &CartHandler{base: base{sessions: sessions, logger: logger}, carts: carts}
}

func cartBody(cart models.Cart) envelope {
	return envelope{"cart": cart, "total": cart.Total(), "cartQty": cart.Quantity()}
}

// View handles GET /api/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	cart, err := h.carts.View(r.Context(), s.UserID, s.Cart)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", cartBody(cart))
}

type addToCartRequest struct {
	ProductID    uuid.UUID `json:"productId"`
	VariantIndex *int      `json:"variantIndex"`
	Quantity     int       `json:"quantity"`
}

// Add handles POST /api/cart/add
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	s := h.session(r)
	cart, err := h.carts.Add(r.Context(), s.UserID, s.Cart, service.AddItemInput{
		ProductID:    req.ProductID,
		VariantIndex: req.VariantIndex,
		Quantity:     req.Quantity,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Cart = cart
	h.save(s)
	writeOK(w, http.StatusOK, "added to cart", envelope{"cartQty": cart.Quantity()})
}

type updateCartRequest struct {
	// Quantities maps a line position to its new quantity.
	Quantities map[string]int `json:"quantities"`
}

// Update handles POST /api/cart/update
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCartRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	quantities := make(map[int]int, len(req.Quantities))
	for k, q := range req.Quantities {
		idx, err := strconv.Atoi(k)
		if err != nil {
			h.fail(w, r, models.NewValidationError("quantities", "line positions must be numbers"))
			return
		}
		quantities[idx] = q
	}

	s := h.session(r)
	cart, err := h.carts.Update(r.Context(), s.UserID, s.Cart, quantities)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Cart = cart
	h.save(s)
	writeOK(w, http.StatusOK, "cart updated", cartBody(cart))
}
