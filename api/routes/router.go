package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matespatagonico/storefront/api/controllers"
	"github.com/matespatagonico/storefront/api/middleware"
	"github.com/matespatagonico/storefront/internal/auth"
	"github.com/matespatagonico/storefront/internal/catalog"
	checkoutsvc "github.com/matespatagonico/storefront/internal/checkout"
	"github.com/matespatagonico/storefront/internal/orders"
	"github.com/matespatagonico/storefront/pkg/auth/session"
	"github.com/matespatagonico/storefront/pkg/config"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/matespatagonico/storefront/pkg/redis"
)

type sessionLoader interface {
	Load(ctx context.Context, sessionID string) (session.Credentials, error)
}

// gatewayStore is the Redis surface shared by readiness, rate limiting and
// idempotency.
type gatewayStore interface {
	redis.Pinger
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store gatewayStore,
	sessions sessionLoader,
	metricsHandler http.Handler,
	authService auth.Service,
	shoppers controllers.ShopperLookup,
	catalogService catalog.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	imageResolver controllers.ImageResolver,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	loginPolicy := middleware.AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.AuthRateLimit.LoginWindow,
		IPLimit:    cfg.AuthRateLimit.LoginIPLimit,
		EmailLimit: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.AuthRateLimitPolicy{
		Name:       "register",
		Window:     cfg.AuthRateLimit.RegisterWindow,
		IPLimit:    cfg.AuthRateLimit.RegisterIPLimit,
		EmailLimit: cfg.AuthRateLimit.RegisterEmailLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, store))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, store, logg)).Post("/login", controllers.AuthLogin(authService, logg))
			r.With(
				middleware.AuthRateLimit(registerPolicy, store, logg),
				middleware.Idempotency(store, logg),
			).Post("/register", controllers.AuthRegister(authService, logg))
			r.With(middleware.Auth(sessions, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
			r.With(middleware.Auth(sessions, logg)).Get("/profile", controllers.AuthProfile(authService, logg))
			r.With(middleware.Auth(sessions, logg)).Put("/profile", controllers.AuthUpdateProfile(authService, logg))
		})

		// Catalog reads are public; a presented session only widens what admins see.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(sessions, logg))
			r.Route("/catalog", func(r chi.Router) {
				r.Get("/products", controllers.CatalogProducts(catalogService, logg))
				r.Get("/products/{productID}", controllers.CatalogProduct(catalogService, logg))
				r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
				r.Get("/discounts", controllers.CatalogDiscounts(catalogService, logg))
				r.Get("/payment-methods", controllers.CatalogPaymentMethods(catalogService, logg))
				r.Get("/delivery-types", controllers.CatalogDeliveryTypes(catalogService, logg))
			})
			r.Get("/images", controllers.ImageResolve(imageResolver, logg))
		})

		// Routes stay flat here: Idempotency matches on the full route pattern,
		// which a mounted sub-router would not expose yet.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessions, logg))
			r.Use(middleware.Idempotency(store, logg))

			r.Get("/cart", controllers.CartFetch(shoppers, imageResolver, logg))
			r.Post("/cart/items", controllers.CartAddItem(shoppers, imageResolver, logg))
			r.Post("/cart/items/{productID}/increment", controllers.CartIncrement(shoppers, imageResolver, logg))
			r.Post("/cart/items/{productID}/decrement", controllers.CartDecrement(shoppers, imageResolver, logg))
			r.Delete("/cart/items/{productID}", controllers.CartRemoveItem(shoppers, imageResolver, logg))
			r.Get("/wishlist", controllers.WishlistFetch(shoppers, logg))
			r.Post("/wishlist/{productID}/toggle", controllers.WishlistToggle(shoppers, logg))
			r.Post("/checkout", controllers.Checkout(checkoutService, shoppers, logg))
			r.Get("/orders", controllers.OrdersList(ordersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(sessions, logg))
			r.Use(middleware.RequireAdmin(logg))

			r.Post("/products", controllers.AdminCreateProduct(catalogService, logg))
			r.Put("/products/{productID}", controllers.AdminUpdateProduct(catalogService, logg))
			r.Patch("/products/{productID}/active", controllers.AdminSetProductActive(catalogService, logg))
			r.Post("/categories", controllers.AdminCreateCategory(catalogService, logg))
			r.Delete("/categories/{categoryID}", controllers.AdminDeleteCategory(catalogService, logg))
			r.Route("/discounts", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateDiscount(catalogService, logg))
				r.Put("/{discountID}", controllers.AdminUpdateDiscount(catalogService, logg))
				r.Delete("/{discountID}", controllers.AdminDeleteDiscount(catalogService, logg))
				r.Post("/{discountID}/products", controllers.AdminAssignDiscountToProducts(catalogService, logg))
				r.Post("/{discountID}/categories", controllers.AdminAssignDiscountToCategories(catalogService, logg))
			})
			r.Route("/payment-methods", func(r chi.Router) {
				r.Post("/", controllers.AdminCreatePaymentMethod(catalogService, logg))
				r.Put("/{methodID}", controllers.AdminUpdatePaymentMethod(catalogService, logg))
				r.Delete("/{methodID}", controllers.AdminDeletePaymentMethod(catalogService, logg))
			})
			r.Route("/delivery-types", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateDeliveryType(catalogService, logg))
				r.Put("/{typeID}", controllers.AdminUpdateDeliveryType(catalogService, logg))
				r.Delete("/{typeID}", controllers.AdminDeleteDeliveryType(catalogService, logg))
			})
		})
	})

	return r
}
