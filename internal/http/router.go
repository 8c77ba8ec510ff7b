package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	CORSAllowOrigins []string
	Logger           *zap.Logger
	Probes           []Probe
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationID)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.CORSAllowOrigins))

	health := &HealthHandler{Probes: cfg.Probes}
	r.Get("/health", h.Health)
	r.Get("/health/dependencies", health.Dependencies)

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.ListMenu)

		r.Route("/cart/{sessionId}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Patch("/items/{itemId}", h.ChangeQuantity)
			r.Delete("/items/{itemId}", h.RemoveItem)
			r.Post("/delivery-quote", h.DeliveryQuote)
			r.Post("/preview", h.Preview)
			r.Post("/checkout", h.Checkout)
			r.Get("/fallback-orders", h.ListFallbackOrders)
		})
	})

	return r
}
