package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadline/storefront-gateway/api/controllers"
	"github.com/threadline/storefront-gateway/api/middleware"
	"github.com/threadline/storefront-gateway/internal/admin"
	"github.com/threadline/storefront-gateway/internal/cart"
	"github.com/threadline/storefront-gateway/internal/identity"
	"github.com/threadline/storefront-gateway/internal/refresh"
	"github.com/threadline/storefront-gateway/internal/relay"
	"github.com/threadline/storefront-gateway/internal/wishlist"
	"github.com/threadline/storefront-gateway/pkg/config"
	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Resolver  *identity.Resolver
	Tracker   *refresh.Tracker
	Redis     *redis.Client
	Bus       *relay.Bus
	Notifier  *relay.Notifier
	Cart      cart.Service
	Wishlist  wishlist.Service
	Admin     *admin.Service
	Registry  *prometheus.Registry
	ReadyDeps map[string]controllers.Pinger
}

// NewRouter assembles the gateway's routes.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(p.Config.CORS),
		middleware.Session(p.Resolver, p.Logger, p.Tracker),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.ReadyDeps))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(p.Redis, p.Config.Idempotency.TTL, p.Logger)

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", controllers.CartFetch(p.Cart, p.Logger))
		r.With(idempotent).Post("/", controllers.CartAdd(p.Cart, p.Logger))
		r.Delete("/", controllers.CartClear(p.Cart, p.Logger))
		r.Route("/item/{productId}", func(r chi.Router) {
			r.Put("/", controllers.CartUpdateItem(p.Cart, p.Logger))
			r.Post("/increment", controllers.CartIncrement(p.Cart, p.Logger))
			r.Post("/decrement", controllers.CartDecrement(p.Cart, p.Logger))
			r.Delete("/", controllers.CartRemoveItem(p.Cart, p.Logger))
		})
	})

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Get("/", controllers.WishlistFetch(p.Wishlist, p.Logger))
		r.With(idempotent).Post("/toggle", controllers.WishlistToggle(p.Wishlist, p.Logger))
		r.Delete("/", controllers.WishlistClear(p.Wishlist, p.Logger))
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", controllers.EventsStream(p.Bus, p.Logger))
	})

	r.Route("/api/toasts", func(r chi.Router) {
		r.Get("/", controllers.ToastsActive(p.Notifier, p.Logger))
		r.Get("/stream", controllers.ToastsStream(p.Notifier, p.Logger))
		r.Delete("/{id}", controllers.ToastDismiss(p.Notifier, p.Logger))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(p.Logger))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.UsersList(p.Admin, p.Logger))
			r.Patch("/{id}/status", controllers.UserSetStatus(p.Admin, p.Logger))
			r.Patch("/{id}/role", controllers.UserSetRole(p.Admin, p.Logger))
			r.Delete("/{id}", controllers.UserDelete(p.Admin, p.Logger))
		})

		r.Route("/{resource}", func(r chi.Router) {
			r.Get("/", controllers.ContentList(p.Admin, p.Logger))
			r.Post("/", controllers.ContentCreate(p.Admin, p.Logger))
			r.Put("/{id}", controllers.ContentUpdate(p.Admin, p.Logger))
			r.Patch("/{id}/status", controllers.ContentSetStatus(p.Admin, p.Logger))
			r.Delete("/{id}", controllers.ContentDelete(p.Admin, p.Logger))
		})
	})

	return r
}
