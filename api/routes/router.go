package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketplace-ledger/api/controllers"
	"github.com/angelmondragon/marketplace-ledger/api/middleware"
	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	"github.com/angelmondragon/marketplace-ledger/pkg/config"
	"github.com/angelmondragon/marketplace-ledger/pkg/db"
	"github.com/angelmondragon/marketplace-ledger/pkg/logger"
	"github.com/angelmondragon/marketplace-ledger/pkg/money"
	"github.com/angelmondragon/marketplace-ledger/pkg/redis"
)

// ledgerAPI is everything the controllers need from the ledger.
type ledgerAPI interface {
	controllers.UserDirectory
	controllers.CategoryRegistry
	controllers.ProductCatalog
	controllers.ListingBoard
	controllers.OrderBook
}

// NewRouter wires the ledger HTTP surface. dbP and redisClient may be nil
// when the service runs on the in-memory store without Redis.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	ledger *marketplace.Ledger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		rateLimiter      redis.RateLimiter
		redisPinger      controllers.Pinger
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		rateLimiter = redisClient
		redisPinger = redisClient
	}
	var dbPinger controllers.Pinger
	if dbP != nil {
		dbPinger = dbP
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	currency := money.NewFormatter(cfg.Currency)
	// A nil *Ledger stored in an interface is not nil; keep it nil so the
	// controllers report the ledger as unavailable.
	var api ledgerAPI
	if ledger != nil {
		api = ledger
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbPinger,
			"redis": redisPinger,
		}))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.WriteRateLimit(rateLimiter, cfg.Redis.WriteRateLimit, cfg.Redis.WriteRateWindow, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.RegisterUser(api, logg))
			r.Get("/", controllers.ListUsers(api, logg))
			r.Get("/me", controllers.CurrentUser(api, logg))
			r.Post("/me/roles", controllers.GrantRole(api, logg))
			r.Get("/by-contact", controllers.GetUserByContact(api, logg))
			r.Get("/{userId}", controllers.GetUser(api, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.RegisterCategory(api, logg))
			r.Get("/", controllers.ListCategories(api, logg))
			r.Get("/lookup", controllers.FindCategory(api, logg))
			r.Get("/{index}", controllers.GetCategory(api, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(api, logg))
			r.Get("/", controllers.ListProducts(api, logg))
			r.Get("/{index}", controllers.GetProduct(api, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", controllers.CreateListing(api, currency, logg))
			r.Get("/", controllers.ListListings(api, currency, logg))
			r.Get("/{index}", controllers.GetListing(api, currency, logg))
			r.Patch("/{index}/active", controllers.SetListingActive(api, currency, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(api, currency, logg))
			r.Get("/", controllers.ListOrders(api, currency, logg))
			r.Get("/{index}", controllers.GetOrder(api, currency, logg))
			r.Post("/{index}/ship", controllers.ShipOrder(api, currency, logg))
			r.Post("/{index}/receive", controllers.ReceiveOrder(api, currency, logg))
			r.Post("/{index}/cancel", controllers.CancelOrder(api, currency, logg))
		})
	})

	return r
}
