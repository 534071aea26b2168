package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"mediahub/internal/access"
	"mediahub/internal/domain"
	"mediahub/internal/infra/metrics"
	"mediahub/internal/session"
)

type profileKey struct{}

// ContextWithProfile stores the authenticated profile.
func ContextWithProfile(ctx context.Context, p *domain.UserProfile) context.Context {
	return context.WithValue(ctx, profileKey{}, p)
}

// ProfileFromContext returns the authenticated profile, or nil.
func ProfileFromContext(ctx context.Context) *domain.UserProfile {
	p, _ := ctx.Value(profileKey{}).(*domain.UserProfile)
	return p
}

// Session resolves the request's token into a profile when one is present.
// Requests without a valid token continue anonymously; RequireUser rejects them.
func Session(authn session.Authenticator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					logger.Warn().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("session lookup failed")
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithProfile(r.Context(), p)))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ProfileFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose profile carries no admin signal.
func RequireAdmin(cfg access.AdminConfig, rec metrics.Recorder) func(http.Handler) http.Handler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := ProfileFromContext(r.Context())
			if p == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
				return
			}
			ok := cfg.IsAdmin(p)
			rec.RecordAdminCheck(ok)
			if !ok {
				writeError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
