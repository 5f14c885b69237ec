package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-kds/canteen-backend/api/controllers"
	"github.com/campus-kds/canteen-backend/api/middleware"
	menusvc "github.com/campus-kds/canteen-backend/internal/menu"
	ordersvc "github.com/campus-kds/canteen-backend/internal/orders"
	"github.com/campus-kds/canteen-backend/internal/realtime"
	"github.com/campus-kds/canteen-backend/internal/stats"
	"github.com/campus-kds/canteen-backend/pkg/config"
	"github.com/campus-kds/canteen-backend/pkg/db"
	"github.com/campus-kds/canteen-backend/pkg/logger"
	"github.com/campus-kds/canteen-backend/pkg/redis"
)

// RouterParams carry everything the HTTP surface depends on. Metrics
// is the pre-built /metrics handler; nil disables the endpoint.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   redis.Pinger
	Hub     *realtime.Hub
	Menu    menusvc.Service
	Orders  ordersvc.Service
	Stats   stats.Service
	Metrics http.Handler
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.ExtraCORSOrigins...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics)
	}

	r.Route("/api/menu", func(r chi.Router) {
		r.Get("/", controllers.MenuList(params.Menu, logg))
		r.Get("/{itemId}", controllers.MenuGet(params.Menu, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/all", controllers.MenuListAll(params.Menu, logg))
			r.Post("/", controllers.MenuCreate(params.Menu, logg))
			r.Patch("/{itemId}", controllers.MenuUpdate(params.Menu, logg))
			r.Delete("/{itemId}", controllers.MenuDelete(params.Menu, logg))
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", controllers.OrdersList(params.Orders, logg))
		r.Post("/", controllers.OrderCreate(params.Orders, logg))
		r.Get("/dashboard/stats", controllers.DashboardStats(params.Stats, logg))
		r.Post("/seed", controllers.OrdersSeed(params.Orders, logg))
		r.Get("/{orderId}", controllers.OrderGet(params.Orders, logg))
		r.Patch("/{orderId}/status", controllers.OrderSetStatus(params.Orders, logg))
	})

	r.Get("/api/events", controllers.EventsStream(params.Hub, logg))

	return r
}
