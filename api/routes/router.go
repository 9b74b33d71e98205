package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/nearbuy-backend/api/controllers"
	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/internal/address"
	"github.com/angelmondragon/nearbuy-backend/internal/cart"
	"github.com/angelmondragon/nearbuy-backend/internal/orders"
	"github.com/angelmondragon/nearbuy-backend/internal/payments"
	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/internal/reviews"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/redis"
)

// Services are the domain services the API exposes.
type Services struct {
	Stores    stores.Service
	Products  product.Service
	Reviews   reviews.Service
	Cart      cart.Service
	Orders    orders.Service
	Addresses address.Service
	Payments  payments.Service
}

// Infra are the shared dependencies behind middleware and health checks.
// Any of them may be nil.
type Infra struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	ready := map[string]controllers.Pinger{"db": infra.DB}
	if infra.Redis != nil {
		ready["redis"] = infra.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, ready, logg))
	})

	gatherer := infra.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	writePolicy := middleware.NewRateLimitPolicy(
		"writes",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.CustomerLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if infra.Redis != nil {
			r.Use(middleware.RateLimit(writePolicy, infra.Redis, logg))
			r.Use(middleware.Idempotency(infra.Redis, logg))
		}

		r.Route("/stores", func(r chi.Router) {
			r.Get("/nearby", controllers.NearbyStores(svc.Stores, logg))
			r.Get("/search", controllers.SearchStores(svc.Stores, logg))
			r.Get("/{storeId}", controllers.StoreDetail(svc.Stores, logg))
			r.Get("/{storeId}/products", controllers.StoreProducts(svc.Products, logg))
			r.Get("/{storeId}/reviews", controllers.StoreReviews(svc.Reviews, logg))
			r.Put("/{storeId}/reviews", controllers.UpsertStoreReview(svc.Reviews, logg))
		})

		r.Delete("/reviews/{reviewId}", controllers.DeleteReview(svc.Reviews, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svc.Cart, logg))
			r.Delete("/", controllers.ClearCart(svc.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svc.Cart, logg))
			r.Patch("/items/{productId}", controllers.UpdateCartItem(svc.Cart, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(svc.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svc.Orders, logg))
			r.Post("/", controllers.PlaceOrder(svc.Orders, svc.Cart, svc.Addresses, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(svc.Orders, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(svc.Addresses, logg))
			r.Post("/", controllers.AddAddress(svc.Addresses, logg))
			r.Get("/default", controllers.DefaultAddress(svc.Addresses, logg))
			r.Get("/suggest", controllers.SuggestAddresses(svc.Addresses, logg))
			r.Get("/places/{placeId}", controllers.ResolvePlace(svc.Addresses, logg))
			r.Post("/{addressId}/default", controllers.SetDefaultAddress(svc.Addresses, logg))
			r.Delete("/{addressId}", controllers.DeleteAddress(svc.Addresses, logg))
		})

		r.Post("/payments/intents", controllers.CreatePaymentIntent(svc.Payments, logg))
	})

	return r
}
