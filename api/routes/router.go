package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/sweetdelights-backend/api/controllers"
	"github.com/angelmondragon/sweetdelights-backend/api/middleware"
	"github.com/angelmondragon/sweetdelights-backend/internal/account"
	"github.com/angelmondragon/sweetdelights-backend/internal/admin"
	"github.com/angelmondragon/sweetdelights-backend/internal/auth"
	"github.com/angelmondragon/sweetdelights-backend/internal/cart"
	"github.com/angelmondragon/sweetdelights-backend/internal/checkout"
	"github.com/angelmondragon/sweetdelights-backend/internal/contact"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	"github.com/angelmondragon/sweetdelights-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/metrics"
	"github.com/angelmondragon/sweetdelights-backend/pkg/redis"
)

type stateLoader interface {
	Load(ctx context.Context, sessionID string) (store.State, error)
}

// redisStore is the slice of the redis client the HTTP layer guards with.
type redisStore interface {
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTP,
	readiness map[string]controllers.Pinger,
	redisClient redisStore,
	sessionManager session.AccessSessionChecker,
	states stateLoader,
	catalogReader controllers.CatalogReader,
	cartService cart.Service,
	checkoutService checkout.Service,
	authService auth.Service,
	accountService account.Service,
	contactService contact.Service,
	adminService admin.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Session(logg),
		middleware.Logging(logg, httpMetrics),
	)

	// Guards are skipped entirely when no redis is wired (tests, tooling).
	idempotency := passThrough
	loginLimit, registerLimit := passThrough, passThrough
	if redisClient != nil {
		idempotency = middleware.Idempotency(redisClient, logg)
		loginLimit = middleware.AuthRateLimit(middleware.NewAuthRateLimitPolicy(
			"login",
			cfg.AuthRateLimit.LoginWindow,
			cfg.AuthRateLimit.LoginIPLimit,
			cfg.AuthRateLimit.LoginEmailLimit,
		), redisClient, logg)
		registerLimit = middleware.AuthRateLimit(middleware.NewAuthRateLimitPolicy(
			"register",
			cfg.AuthRateLimit.RegisterWindow,
			cfg.AuthRateLimit.RegisterIPLimit,
			cfg.AuthRateLimit.RegisterEmailLimit,
		), redisClient, logg)
	}
	requireAuth := middleware.Auth(cfg.JWT, sessionManager, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(catalogReader, logg))
			r.Get("/options", controllers.CatalogOptions(catalogReader))
			r.Get("/featured", controllers.CatalogFeatured(catalogReader))
			r.Get("/{productId}", controllers.CatalogDetail(catalogReader, logg))
		})

		r.Get("/session", controllers.SessionState(states, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateQuantity(cartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutFetch(checkoutService, logg))
			r.Put("/shipping", controllers.CheckoutShipping(checkoutService, logg))
			r.Post("/back", controllers.CheckoutBack(checkoutService, logg))
			r.With(idempotency).Post("/payment", controllers.CheckoutPayment(checkoutService, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", controllers.AuthLogin(authService, logg))
			r.With(registerLimit, idempotency).Post("/register", controllers.AuthRegister(authService, logg))
			r.With(middleware.OptionalAuth(cfg.JWT, sessionManager, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
			r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		})

		r.Route("/account", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.AccountOverview(accountService, logg))
			r.With(idempotency).Post("/addresses", controllers.AccountAddAddress(accountService, logg))
		})

		r.Get("/contact", controllers.ContactInfo(contactService))
		r.With(idempotency).Post("/contact", controllers.ContactSubmit(contactService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Get("/dashboard", controllers.AdminDashboard(adminService, logg))
		r.Get("/products", controllers.AdminProducts(adminService, logg))
		r.Get("/orders", controllers.AdminOrders(adminService, logg))
		r.Get("/customers", controllers.AdminCustomers(adminService, logg))
	})

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}
