package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davivienda-ecommerce/storefront-backend/api/controllers"
	cartcontrollers "github.com/davivienda-ecommerce/storefront-backend/api/controllers/cart"
	"github.com/davivienda-ecommerce/storefront-backend/api/middleware"
	"github.com/davivienda-ecommerce/storefront-backend/internal/cart"
	"github.com/davivienda-ecommerce/storefront-backend/internal/identity"
	"github.com/davivienda-ecommerce/storefront-backend/internal/payments"
	"github.com/davivienda-ecommerce/storefront-backend/internal/stock"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/config"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	identityService identity.Service,
	cartService cart.Service,
	stockChecker stock.Checker,
	paymentService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	readiness := map[string]controllers.Pinger{"db": nil, "redis": nil}
	if dbP != nil {
		readiness["db"] = dbP
	}
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		readiness["redis"] = redisClient
		if cfg.FeatureFlags.Idempotency {
			idempotencyStore = redisClient
		}
	}
	idempotent := middleware.Idempotency(idempotencyStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, identityService, logg))

		r.Route("/carts", func(r chi.Router) {
			r.With(idempotent).Post("/", cartcontrollers.CartCreate(cartService, logg))
			r.Get("/me", cartcontrollers.CartMine(cartService, logg))
			r.Get("/{cartId}/items", cartcontrollers.CartItems(cartService, logg))
			r.Delete("/{cartId}/items", cartcontrollers.CartClear(cartService, logg))
			r.Get("/{cartId}/summary", cartcontrollers.CartSummary(cartService, logg))
		})

		r.Route("/cart-items", func(r chi.Router) {
			r.Post("/", cartcontrollers.ItemAdd(cartService, logg))
			r.With(idempotent).Post("/batch", cartcontrollers.ItemsAddBatch(cartService, logg))
			r.Get("/{itemId}", cartcontrollers.ItemFetch(cartService, logg))
			r.Patch("/{itemId}", cartcontrollers.ItemPatch(cartService, logg))
			r.Delete("/{itemId}", cartcontrollers.ItemRemove(cartService, logg))
			r.Put("/{itemId}/quantity", cartcontrollers.ItemUpdateQuantity(cartService, logg))
		})

		r.Post("/stock/validate", controllers.StockValidate(stockChecker, identityService, logg))
		r.With(idempotent).Post("/payments", controllers.PaymentProcess(paymentService, logg))
	})

	return r
}
