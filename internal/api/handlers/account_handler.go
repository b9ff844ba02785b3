package handlers

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/service"
)

type AccountHandler struct {
	base
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService, sessions *cache.SessionCache, logger log.FieldLogger) *AccountHandler {
	return &AccountHandler{base: base{sessions: sessions, logger: logger}, accounts: accounts}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

// Register handles POST /api/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.accounts.Register(r.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "account created, please sign in", envelope{"user": u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. The guest cart is merged into the
// account's cart exactly once, here.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	s := h.session(r)
	u, cart, err := h.accounts.Login(r.Context(), req.Email, req.Password, s.Cart)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.signIn(w, r, s, u)
	s.Cart = cart
	s.ResetEmail = ""
	h.save(s)
	writeOK(w, http.StatusOK, "signed in", envelope{"user": u, "cartQty": cart.Quantity()})
}

// Logout handles POST /api/auth/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.UserID, s.Role = nil, ""
	s.Cart = models.Cart{Items: []models.CartItem{}}
	s.AppliedDiscount = nil
	h.save(s)
	writeOK(w, http.StatusOK, "signed out", nil)
}

// Me handles GET /api/auth/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if !s.SignedIn() {
		writeOK(w, http.StatusOK, "", envelope{"user": nil, "cartQty": s.Cart.Quantity()})
		return
	}
	u, err := h.accounts.Profile(r.Context(), *s.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"user": u, "cartQty": s.Cart.Quantity()})
}

type emailRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	s := h.session(r)
	s.ResetEmail = strings.ToLower(strings.TrimSpace(req.Email))
	h.save(s)
	writeOK(w, http.StatusOK, "a reset code has been sent to your email", nil)
}

// ResendCode handles POST /api/auth/resend-otp
func (h *AccountHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if s.ResetEmail == "" {
		h.fail(w, r, models.NewValidationError("email", "request a reset code first"))
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), s.ResetEmail); err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "a new reset code has been sent", nil)
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyCode handles POST /api/auth/verify-otp
func (h *AccountHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	s := h.session(r)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = s.ResetEmail
	}
	if err := h.accounts.VerifyResetCode(r.Context(), email, req.Code); err != nil {
		h.fail(w, r, err)
		return
	}
	s.ResetEmail = email
	h.save(s)
	writeOK(w, http.StatusOK, "code verified", nil)
}

type resetPasswordRequest struct {
	Code            string `json:"code"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	s := h.session(r)
	if s.ResetEmail == "" {
		h.fail(w, r, models.ErrResetCodeInvalid)
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), s.ResetEmail, req.Code, req.NewPassword, req.ConfirmPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	s.ResetEmail = ""
	h.save(s)
	writeOK(w, http.StatusOK, "password updated, please sign in", nil)
}

// Profile handles GET /api/account/profile
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Profile(r.Context(), *h.session(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"user": u})
}

type profileRequest struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
}

// UpdateProfile handles POST /api/account/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.accounts.UpdateProfile(r.Context(), *h.session(r).UserID, service.ProfileInput{
		FullName: req.FullName,
		Address:  req.Address,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "profile updated", envelope{"user": u})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword handles POST /api/account/change-password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.accounts.ChangePassword(r.Context(), *h.session(r).UserID,
		req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "password changed", nil)
}

// ListAddresses handles GET /api/account/addresses
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.accounts.ListAddresses(r.Context(), *h.session(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"addresses": addrs})
}

// AddAddress handles POST /api/account/addresses
func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req models.Address
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.accounts.AddAddress(r.Context(), *h.session(r).UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "address saved", envelope{"address": a})
}

// UpdateAddress handles PUT /api/account/addresses/{id}
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req models.Address
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.accounts.UpdateAddress(r.Context(), *h.session(r).UserID, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "address updated", envelope{"address": a})
}

// SetDefaultAddress handles POST /api/account/addresses/{id}/default
func (h *AccountHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.SetDefaultAddress(r.Context(), *h.session(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "default address updated", nil)
}

// DeleteAddress handles DELETE /api/account/addresses/{id}
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.DeleteAddress(r.Context(), *h.session(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "address deleted", nil)
}
