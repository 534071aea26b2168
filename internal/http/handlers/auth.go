package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mediahub/internal/domain"
	"mediahub/internal/identity"
	"mediahub/internal/middleware"
	"mediahub/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Plan          domain.PlanConfig `json:"plan"`
	UsedToday     int               `json:"usedToday"`
	Remaining     *int              `json:"remaining"`
	IsAdmin       bool              `json:"isAdmin"`
	DashboardPath string            `json:"dashboardPath,omitempty"`
}

// Login exchanges email and password for a provider session and stores it in cookies.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "bad_request", localize(locale, msgBadCredentials))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	sess, err := a.Auth.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		var apiErr *identity.APIError
		switch {
		case errors.Is(err, identity.ErrProviderUnavailable):
			a.error(w, http.StatusServiceUnavailable, "unavailable", localize(locale, msgUnavailable))
		case errors.As(err, &apiErr) && apiErr.Status < 500:
			a.error(w, http.StatusUnauthorized, "invalid_credentials", a.clean(apiErr.Message))
		default:
			a.Logger.Error().Err(err).Msg("sign in failed")
			a.error(w, http.StatusBadGateway, "provider_error", localize(locale, msgUnavailable))
		}
		return
	}

	session.SetCookies(w, sess, a.Cookies)
	profile := sess.User
	if profile == nil {
		profile = &domain.UserProfile{Email: email}
	}
	resp, err := a.buildMe(r.Context(), profile)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", profile.ID).Msg("load usage failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage")
		return
	}
	a.json(w, http.StatusOK, resp)
}

// Logout revokes the session at the provider when possible and clears cookies.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	if token := session.TokenFromRequest(r); token != "" && a.Auth != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := a.Auth.SignOut(ctx, token); err != nil {
			a.Logger.Warn().Err(err).Msg("provider sign out failed")
		}
	}
	session.ClearCookies(w, a.Cookies)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user's plan, remaining downloads and admin status.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	p := a.currentProfile(r)
	if p == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", localize(middleware.LocaleFromContext(r.Context()), msgSignInRequired))
		return
	}
	resp, err := a.buildMe(r.Context(), p)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", p.ID).Msg("load usage failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage")
		return
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) buildMe(ctx context.Context, p *domain.UserProfile) (meResponse, error) {
	used := 0
	if a.Usage != nil && p.ID != "" {
		var err error
		if used, err = a.Usage.UsedToday(ctx, p.ID); err != nil {
			return meResponse{}, err
		}
	}
	decision := a.Resolver.Decide(p, used)
	resp := meResponse{
		ID:        p.ID,
		Email:     p.Email,
		Plan:      decision.Plan,
		UsedToday: decision.Used,
		Remaining: decision.Remaining,
		IsAdmin:   a.Admin.IsAdmin(p),
	}
	if resp.IsAdmin {
		resp.DashboardPath = a.Admin.DashboardPath
	}
	return resp, nil
}
