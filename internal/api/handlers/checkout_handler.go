package handlers

import (
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/notify"
	"github.com/Cheertaboi/storefront/internal/service"
)

type CheckoutHandler struct {
	base
	checkout  *service.CheckoutService
	discounts *service.DiscountService
	carts     *service.CartService
}

func NewCheckoutHandler(checkout *service.CheckoutService, discounts *service.DiscountService, carts *service.CartService,
	sessions *cache.SessionCache, logger log.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		base:      base{sessions: sessions, logger: logger},
		checkout:  checkout,
		discounts: discounts,
		carts:     carts,
	}
}

type applyDiscountRequest struct {
	Code string `json:"code"`
}

// ApplyDiscount handles POST /api/checkout/apply-discount. The code is only
// remembered in the session; it is redeemed at checkout.
func (h *CheckoutHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req applyDiscountRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	s := h.session(r)
	cart, err := h.carts.View(r.Context(), s.UserID, s.Cart)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	preview, err := h.discounts.Preview(r.Context(), req.Code, cart)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.AppliedDiscount = &models.AppliedDiscount{Code: preview.Code, DiscountValue: preview.DiscountValue}
	h.save(s)
	writeOK(w, http.StatusOK, "discount code applied", envelope{"preview": preview})
}

type checkoutRequest struct {
	FullName       string         `json:"fullName"`
	Email          string         `json:"email"`
	Address        models.Address `json:"address"`
	SavedAddressID *uuid.UUID     `json:"savedAddressId"`
	DiscountCode   string         `json:"discountCode"`
	UsePoints      bool           `json:"usePoints"`
}

// Checkout handles POST /api/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	// 1) cart and discount come from the session
	s := h.session(r)
	cart, err := h.carts.View(r.Context(), s.UserID, s.Cart)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	code := req.DiscountCode
	if code == "" && s.AppliedDiscount != nil {
		code = s.AppliedDiscount.Code
	}

	// 2) place the order
	res, err := h.checkout.Checkout(r.Context(), service.CheckoutInput{
		SessionUserID:  s.UserID,
		FullName:       req.FullName,
		Email:          req.Email,
		Address:        req.Address,
		SavedAddressID: req.SavedAddressID,
		DiscountCode:   code,
		UsePoints:      req.UsePoints,
		Cart:           cart,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// 3) reset the session; sign in only a buyer who owns the account
	fields := envelope{
		"order":      res.Order,
		"orderCode":  notify.OrderCode(res.Order.ID),
		"newAccount": res.NewAccount,
	}
	if res.SignIn && !s.SignedIn() {
		h.signIn(w, r, s, res.User)
	}
	if res.SignIn {
		fields["loyaltyPoints"] = res.User.LoyaltyPoints
	}
	s.Cart = models.Cart{Items: []models.CartItem{}}
	s.AppliedDiscount = nil
	h.save(s)

	writeOK(w, http.StatusCreated, "order placed", fields)
}
