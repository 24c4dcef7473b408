package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Dependencies are the services the local API exposes to the UI.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	Cart          controllers.CartService
	Checkout      controllers.CheckoutService
	Address       controllers.AddressTracker
	Notifications interface {
		controllers.NotificationFeed
		controllers.ErrorFeed
	}
	Sessions    controllers.SessionStore
	Idempotency middleware.IdempotencyStore
	Registry    *prometheus.Registry
	Ready       map[string]controllers.Pinger
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Sessions != nil {
			r.Use(middleware.SessionContext(deps.Sessions, logg))
		}
		idempotent := middleware.Idempotency(deps.Idempotency, logg)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionFetch(deps.Sessions, logg))
			r.Put("/", controllers.SessionSave(deps.Sessions, logg))
			r.Delete("/", controllers.SessionClear(deps.Sessions, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.With(idempotent).Post("/items", controllers.CartAddItem(deps.Cart, deps.Notifications, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Cart, deps.Notifications, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Get("/stock/{productId}", controllers.CartStock(deps.Cart, logg))
			r.Post("/validate", controllers.CartValidate(deps.Cart, deps.Notifications, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutStatus(deps.Checkout, logg))
			r.Delete("/", controllers.CheckoutReset(deps.Checkout, logg))
			r.Post("/open", controllers.CheckoutOpen(deps.Checkout, logg))
			r.With(idempotent).Post("/confirm", controllers.CheckoutConfirm(deps.Checkout, logg))
			r.Get("/address", controllers.AddressFetch(deps.Address, logg))
			r.Put("/address", controllers.AddressInput(deps.Address, logg))
			r.Post("/address/map-click", controllers.AddressMapClick(deps.Address, logg))
			r.Post("/address/marker", controllers.AddressMarker(deps.Address, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Post("/search", controllers.CatalogSearch(logg))
			r.With(idempotent).Post("/cart", controllers.CatalogAddToCart(deps.Cart, deps.Notifications, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Delete("/{notificationId}", controllers.DismissNotification(deps.Notifications, logg))
		})
	})

	return r
}
