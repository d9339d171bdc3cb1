package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"animator/internal/http/handlers"
	"animator/internal/infra"
	"animator/internal/metrics"
	"animator/internal/middleware"
)

// Options tunes the router's middleware stack.
type Options struct {
	Logger             infra.Logger
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	MaxInflight        int
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/videos", func(r chi.Router) {
		// Busy rejections do not spend the client's rate budget.
		r.With(
			middleware.Exclusive(int64(opts.MaxInflight)),
			middleware.RateLimit(opts.RateLimitPerMinute, time.Minute),
		).Post("/", app.VideosGenerate)
		r.Get("/{id}", app.VideoGet)
		r.Delete("/{id}", app.VideoRelease)
	})

	if app.History != nil {
		r.Get("/v1/generations", app.GenerationsList)
	}

	if opts.Registry != nil {
		r.Handle("/metrics", metrics.Handler(opts.Registry))
	}

	return r
}
