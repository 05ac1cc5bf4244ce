package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarsh-dev/lumapos-backend/api/controllers"
	"github.com/dmarsh-dev/lumapos-backend/api/middleware"
	"github.com/dmarsh-dev/lumapos-backend/internal/catalog"
	"github.com/dmarsh-dev/lumapos-backend/internal/inventory"
	"github.com/dmarsh-dev/lumapos-backend/internal/sales"
	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	"github.com/dmarsh-dev/lumapos-backend/pkg/db"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
)

// Deps carries the wired services the router hands to controllers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Synchronizer *catalog.Synchronizer
	Orchestrator *catalog.Orchestrator
	Store        *catalog.Store
	Sales        *sales.Service
	Propagator   *inventory.Propagator
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB))
	})

	r.Handle("/metrics", promhttp.Handler())

	fullDefaults := catalog.RunOptions{
		PageSize:    cfg.Sync.PageSize,
		Ceiling:     cfg.Sync.FullSyncCeiling,
		PageTimeout: cfg.Sync.PageTimeout,
	}

	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(middleware.Operator(logg, true))
		r.Post("/page", controllers.SyncPage(deps.Synchronizer, logg))
		r.Post("/batch", controllers.SyncBatch(deps.Synchronizer, logg))
		r.Post("/full", controllers.SyncFull(deps.Orchestrator, fullDefaults, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(middleware.Operator(logg, false))
		r.Get("/", controllers.ListProducts(deps.Store, logg))
		r.Get("/{productID}", controllers.GetProduct(deps.Store, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Operator(logg, true))
			r.Patch("/{productID}", controllers.UpdateProduct(deps.Store, logg))
			r.Delete("/{productID}", controllers.DeleteProduct(deps.Store, logg))
			r.Delete("/", controllers.ClearProducts(deps.Store, logg))
		})
	})

	r.Route("/api/v1/sales", func(r chi.Router) {
		r.Use(middleware.Operator(logg, true))
		r.Post("/", controllers.CommitSale(deps.Sales, deps.Propagator, logg))
		r.Get("/", controllers.ListSales(deps.Sales, logg))
		r.Get("/{saleID}", controllers.GetSale(deps.Sales, logg))
		r.Post("/{saleID}/refund", controllers.RefundSale(deps.Sales, logg))
		r.Post("/{saleID}/void", controllers.VoidSale(deps.Sales, logg))
	})

	return r
}
