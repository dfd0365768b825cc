package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/metrics"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/middleware"
)

func NewRouter(h *Handler, allowOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.CORS(allowOrigins))

	r.Get("/health", h.instrument("health", h.Health))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireSession)

		r.Get("/menu", h.instrument("menu", h.GetMenu))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.instrument("cart_get", h.GetCart))
			r.Delete("/", h.instrument("cart_clear", h.ClearCart))
			r.Post("/items", h.instrument("cart_add", h.AddItem))
			r.Put("/items/{name}", h.instrument("cart_update", h.UpdateItem))
			r.Delete("/items/{name}", h.instrument("cart_remove", h.RemoveItem))
		})

		r.Get("/rewards", h.instrument("rewards", h.GetRewards))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", h.instrument("quote", h.Quote))
			r.Post("/", h.instrument("checkout", h.Checkout))
		})
	})

	return r
}

// instrument records request count and latency per handler.
func (h *Handler) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next(w, r)
			return
		}
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)
		h.metrics.Requests.WithLabelValues(name, strconv.Itoa(ww.Status())).Inc()
		h.metrics.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}
}
