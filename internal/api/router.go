package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/api/handlers"
	"github.com/Cheertaboi/storefront/internal/api/middleware"
	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/realtime"
	"github.com/Cheertaboi/storefront/internal/service"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Accounts  *service.AccountService
	Carts     *service.CartService
	Checkout  *service.CheckoutService
	Discounts *service.DiscountService
	Orders    *service.OrderService
	Catalog   *service.CatalogService
	Admin     *service.AdminService

	Sessions     *cache.SessionCache
	Hub          *realtime.Hub
	SecureCookie bool
	Logger       log.FieldLogger
}

// NewRouter builds the HTTP router for the storefront
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	catalog := handlers.NewCatalogHandler(d.Catalog, d.Accounts, d.Hub, d.Sessions, d.Logger)
	carts := handlers.NewCartHandler(d.Carts, d.Sessions, d.Logger)
	checkout := handlers.NewCheckoutHandler(d.Checkout, d.Discounts, d.Carts, d.Sessions, d.Logger)
	accounts := handlers.NewAccountHandler(d.Accounts, d.Sessions, d.Logger)
	orders := handlers.NewOrderHandler(d.Orders, d.Sessions, d.Logger)
	admin := handlers.NewAdminHandler(d.Admin, d.Discounts, d.Sessions, d.Logger)

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Sessions(d.Sessions, d.SecureCookie))

		// Public storefront endpoints
		r.Get("/home", catalog.Home)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalog.List)
			r.Get("/{id}", catalog.Get)
			r.Post("/{id}/reviews", catalog.AddReview)
			r.Get("/{id}/stream", catalog.Stream)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.View)
			r.Post("/add", carts.Add)
			r.Post("/update", carts.Update)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkout.Checkout)
			r.Post("/apply-discount", checkout.ApplyDiscount)
		})
		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", accounts.Me)
			r.Post("/register", accounts.Register)
			r.Post("/login", accounts.Login)
			r.Post("/logout", accounts.Logout)
			r.Post("/forgot-password", accounts.ForgotPassword)
			r.Post("/verify-otp", accounts.VerifyCode)
			r.Post("/resend-otp", accounts.ResendCode)
			r.Post("/reset-password", accounts.ResetPassword)
		})

		// Signed-in customer endpoints
		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireUser(d.Accounts, d.Sessions, d.Logger))
			r.Route("/account", func(r chi.Router) {
				r.Get("/profile", accounts.Profile)
				r.Post("/profile", accounts.UpdateProfile)
				r.Post("/change-password", accounts.ChangePassword)
				r.Get("/addresses", accounts.ListAddresses)
				r.Post("/addresses", accounts.AddAddress)
				r.Put("/addresses/{id}", accounts.UpdateAddress)
				r.Post("/addresses/{id}/default", accounts.SetDefaultAddress)
				r.Delete("/addresses/{id}", accounts.DeleteAddress)
			})
			r.Get("/orders", orders.Mine)
			r.Get("/orders/{id}", orders.MineByID)
		})

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(handlers.RequireAdmin(d.Accounts, d.Sessions, d.Logger))
			r.Get("/dashboard", admin.Dashboard)

			r.Get("/products", admin.ListProducts)
			r.Post("/products", admin.CreateProduct)
			r.Get("/products/{id}", admin.GetProduct)
			r.Put("/products/{id}", admin.UpdateProduct)
			r.Delete("/products/{id}", admin.DeleteProduct)

			r.Get("/orders", orders.AdminList)
			r.Get("/orders/{id}", orders.AdminGet)
			r.Post("/orders/{id}/status", orders.UpdateStatus)

			r.Get("/discounts", admin.ListDiscounts)
			r.Post("/discounts", admin.SaveDiscount)

			r.Get("/users", admin.ListUsers)
			r.Get("/users/{id}", admin.GetUser)
			r.Put("/users/{id}", admin.UpdateUser)
			r.Post("/users/{id}/toggle-active", admin.ToggleUser)

			r.Get("/categories", admin.ListCategories)
			r.Post("/categories", admin.SaveCategory)
			r.Delete("/categories/{id}", admin.DeleteCategory)
		})
	})

	return r
}
