package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/herbhaven/herbhaven-backend/api/controllers"
	"github.com/herbhaven/herbhaven-backend/api/middleware"
	authsvc "github.com/herbhaven/herbhaven-backend/internal/auth"
	cartsvc "github.com/herbhaven/herbhaven-backend/internal/cart"
	"github.com/herbhaven/herbhaven-backend/internal/catalog"
	checkoutsvc "github.com/herbhaven/herbhaven-backend/internal/checkout"
	orderssvc "github.com/herbhaven/herbhaven-backend/internal/orders"
	"github.com/herbhaven/herbhaven-backend/pkg/auth/session"
	"github.com/herbhaven/herbhaven-backend/pkg/config"
	"github.com/herbhaven/herbhaven-backend/pkg/db"
	"github.com/herbhaven/herbhaven-backend/pkg/logger"
	"github.com/herbhaven/herbhaven-backend/pkg/metrics"
	"github.com/herbhaven/herbhaven-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Params bundles everything the router needs.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	Registry       *prometheus.Registry
	AuthService    authsvc.Service
	CatalogService catalog.Service
	CartService    cartsvc.Service
	CheckoutSvc    checkoutsvc.Service
	OrdersService  orderssvc.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if p.Registry != nil {
		r.Use(middleware.Metrics(metrics.NewHTTPMetrics(p.Registry)))
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.SessionManager, cfg.JWT, logg))
		r.Post("/password/forgot", controllers.AuthForgotPassword(p.AuthService, logg))
		r.Post("/password/reset", controllers.AuthResetPassword(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
			r.Get("/me", controllers.AuthMe(p.AuthService, logg))
			r.Patch("/me", controllers.AuthUpdateProfile(p.AuthService, logg))
			r.Post("/password", controllers.AuthChangePassword(p.AuthService, logg))
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(p.CatalogService, logg))
		r.Get("/featured", controllers.ProductsFeatured(p.CatalogService, logg))
		r.Get("/categories", controllers.ProductsCategories(p.CatalogService, logg))
		r.Get("/category/{category}", controllers.ProductsByCategory(p.CatalogService, logg))
		r.Get("/{productID}", controllers.ProductGet(p.CatalogService, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
		r.Get("/", controllers.CartGet(p.CartService, logg))
		r.Post("/items", controllers.CartAdd(p.CartService, logg))
		r.Put("/items/{productID}", controllers.CartUpdateItem(p.CartService, logg))
		r.Delete("/items/{productID}", controllers.CartRemoveItem(p.CartService, logg))
		r.Delete("/", controllers.CartClear(p.CartService, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
		r.Get("/", controllers.CheckoutGet(p.CheckoutSvc, logg))
		r.Post("/shipping", controllers.CheckoutShipping(p.CheckoutSvc, logg))
		r.Post("/payment", controllers.CheckoutPayment(p.CheckoutSvc, logg))
		r.Post("/back", controllers.CheckoutBack(p.CheckoutSvc, logg))
		r.Post("/place-order", controllers.CheckoutPlaceOrder(p.CheckoutSvc, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
		r.Get("/", controllers.OrdersList(p.OrdersService, logg))
		r.Get("/recent", controllers.OrdersRecent(p.OrdersService, logg))
		r.Get("/stats", controllers.OrdersStats(p.OrdersService, logg))
		r.Get("/number/{orderNumber}", controllers.OrderGetByNumber(p.OrdersService, logg))
		r.Get("/{orderID}", controllers.OrderGet(p.OrdersService, logg))
		r.Patch("/{orderID}/status", controllers.OrderUpdateStatus(p.OrdersService, logg))
		r.Post("/{orderID}/cancel", controllers.OrderCancel(p.OrdersService, logg))
	})

	return r
}
