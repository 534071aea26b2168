package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"mediahub/internal/http/handlers"
	"mediahub/internal/infra/metrics"
	"mediahub/internal/middleware"
	"mediahub/internal/session"
)

// Deps are the router's collaborators that handlers do not own.
type Deps struct {
	Authenticator session.Authenticator
	LoginLimiter  *middleware.RateLimiter
	Gatherer      prometheus.Gatherer
	CORSOrigins   []string
	DefaultLocale string
	CountryLookup middleware.CountryLookup
	// TrustProxy lets X-Forwarded-For and X-Real-IP replace the peer
	// address. Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool
}

func NewRouter(app *handlers.App, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Locale", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.I18N(deps.DefaultLocale, deps.CountryLookup),
	)
	if deps.Authenticator != nil {
		r.Use(middleware.Session(deps.Authenticator, app.Logger))
	}
	// After Session so the access log carries user_id.
	r.Use(middleware.Logger(app.Logger))

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/plans", app.Plans)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.LoginLimiter != nil {
				r.Use(deps.LoginLimiter.Middleware)
			}
			r.Post("/login", app.Login)
		})
		r.Post("/logout", app.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/v1/me", app.Me)
		r.Post("/v1/downloads", app.ReserveDownload)
		r.Get("/v1/downloads/usage", app.UsageHistory)
	})

	r.Route(app.Admin.DashboardPath, func(r chi.Router) {
		r.Use(middleware.RequireAdmin(app.Admin, app.Metrics))
		r.Get("/", app.AdminDashboard)
		r.Get("/users", app.AdminUsers)
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}
