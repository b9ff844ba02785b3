package handlers

import (
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/realtime"
	"github.com/Cheertaboi/storefront/internal/service"
)

const streamHeartbeat = 25 * time.Second

type CatalogHandler struct {
	base
	catalog  *service.CatalogService
	accounts *service.AccountService
	hub      *realtime.Hub
}

func NewCatalogHandler(catalog *service.CatalogService, accounts *service.AccountService, hub *realtime.Hub,
	sessions *cache.SessionCache, logger log.FieldLogger) *CatalogHandler {
	return &CatalogHandler{
		base:     base{sessions: sessions, logger: logger},
		catalog:  catalog,
		accounts: accounts,
		hub:      hub,
	}
}

// Home handles GET /api/home
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.catalog.Home(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"latest": home.Latest, "sections": home.Sections})
}

func queryInt64(r *http.Request, key string) *int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// List handles GET /api/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.catalog.List(r.Context(), service.ProductQuery{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		PriceMin: queryInt64(r, "price_min"),
		PriceMax: queryInt64(r, "price_max"),
		Sort:     q.Get("sort"),
		Page:     queryPage(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{
		"products":   page.Products,
		"page":       page.Page,
		"totalPages": page.TotalPages,
		"totalCount": page.TotalCount,
	})
}

// Get handles GET /api/products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", envelope{"product": p})
}

type reviewRequest struct {
	Name    string `json:"name"`
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview handles POST /api/products/{id}/reviews
func (h *CatalogHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	in := service.ReviewInput{Name: req.Name, Rating: req.Rating, Comment: req.Comment}
	if s := h.session(r); s.SignedIn() {
		u, err := h.accounts.Profile(r.Context(), *s.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		in.User = u
	}

	review, rating, err := h.catalog.AddReview(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "review added", envelope{
		"review":        review,
		"averageRating": rating.AverageRating,
		"numRatings":    rating.NumRatings,
	})
}

// Stream handles GET /api/products/{id}/stream. Review and rating events for
// the product are pushed as datastar signal patches until the client leaves.
func (h *CatalogHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.catalog.Get(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	events, cancel := h.hub.Subscribe(id.String())
	defer cancel()

	sse := datastar.NewSSE(w, r)
	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	entry := h.logger.WithField("product", id)
	entry.Debug("viewer joined")
	defer entry.Debug("viewer left")

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sse.MarshalAndPatchSignals(map[string]interface{}{"productEvent": ev}); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.MarshalAndPatchSignals(map[string]interface{}{"heartbeat": time.Now().UTC()}); err != nil {
				return
			}
		}
	}
}
