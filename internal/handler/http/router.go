package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/health"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/httputil"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/middleware"
)

// RouterConfig holds the dependencies needed to build the HTTP router.
type RouterConfig struct {
	CheckoutHandler *CheckoutHandler
	ProductHandler  *ProductHandler
	ExamHandler     *ExamHandler
	HealthHandler   *health.Handler
	Logger          *slog.Logger
	ServiceName     string
}

// NewRouter builds the chi router with all middleware and routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(contentTypeJSON)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/checkout", cfg.CheckoutHandler.Checkout)
			r.Get("/{id}", cfg.CheckoutHandler.GetOrder)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", cfg.ProductHandler.CreateProduct)
			r.Get("/{id}", cfg.ProductHandler.GetProduct)
			r.Post("/{id}/stock", cfg.ProductHandler.AdjustStock)
		})

		r.Route("/exams", func(r chi.Router) {
			r.Post("/", cfg.ExamHandler.CreateExam)
			r.Get("/{id}", cfg.ExamHandler.GetExam)
			r.Post("/{id}/start", cfg.ExamHandler.StartExam)
			r.Post("/{id}/close", cfg.ExamHandler.CloseExam)
			r.Post("/{id}/submissions", cfg.ExamHandler.Submit)
		})
	})

	return r
}

// contentTypeJSON rejects non-JSON bodies on mutating requests.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
