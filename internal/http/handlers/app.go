package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/microcosm-cc/bluemonday"

	"mediahub/internal/access"
	"mediahub/internal/domain"
	"mediahub/internal/entitlement"
	"mediahub/internal/identity"
	"mediahub/internal/infra"
	"mediahub/internal/infra/metrics"
	"mediahub/internal/middleware"
	"mediahub/internal/session"
)

// AuthProvider is the identity provider surface the handlers use.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ListUsers(ctx context.Context, page, perPage int) ([]*domain.UserProfile, error)
}

// App carries the dependencies shared by every handler.
type App struct {
	Logger    infra.Logger
	Resolver  *entitlement.Resolver
	Admin     access.AdminConfig
	Usage     domain.UsageRepository
	Auth      AuthProvider
	Metrics   metrics.Recorder
	Cookies   session.CookieOptions
	sanitizer *bluemonday.Policy
}

// NewApp wires an App; nil optional dependencies get no-op defaults. The
// zero Logger discards everything.
func NewApp(app App) *App {
	a := app
	if a.Resolver == nil {
		a.Resolver = entitlement.NewResolver(nil)
	}
	if a.Metrics == nil {
		a.Metrics = metrics.Nop{}
	}
	if a.Admin.DashboardPath == "" {
		a.Admin = access.NewAdminConfig("", "", "")
	}
	a.sanitizer = bluemonday.StrictPolicy()
	return &a
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]string{"error": code, "message": msg})
}

func (a *App) currentProfile(r *http.Request) *domain.UserProfile {
	return middleware.ProfileFromContext(r.Context())
}

// clean strips markup from text that originated outside this service.
func (a *App) clean(s string) string {
	return a.sanitizer.Sanitize(s)
}
