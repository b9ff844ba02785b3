package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/service"
)

type OrderHandler struct {
	base
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService, sessions *cache.SessionCache, logger log.FieldLogger) *OrderHandler {
	return &OrderHandler{base: base{sessions: sessions, logger: logger}, orders: orders}
}

// Mine handles GET /api/orders
func (h *OrderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForUser(r.Context(), *h.session(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"orders": orders})
}

// MineByID handles GET /api/orders/{id}
func (h *OrderHandler) MineByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.GetForUser(r.Context(), *h.session(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"order": o})
}

// AdminList handles GET /api/admin/orders
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.orders.AdminList(r.Context(), service.OrderQuery{
		Status: q.Get("status"),
		Range:  q.Get("range"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Page:   queryPage(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{
		"orders":     page.Orders,
		"page":       page.Page,
		"perPage":    page.PerPage,
		"totalPages": page.TotalPages,
		"totalCount": page.TotalCount,
	})
}

// AdminGet handles GET /api/admin/orders/{id}
func (h *OrderHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"order": o})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "order status updated", envelope{"order": o})
}
