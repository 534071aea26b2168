package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"mediahub/internal/domain"
	"mediahub/internal/identity"
)

type adminUserRow struct {
	ID      string        `json:"id"`
	Email   string        `json:"email"`
	Plan    domain.PlanID `json:"plan"`
	IsAdmin bool          `json:"isAdmin"`
}

// AdminDashboard summarizes today's usage for the admin dashboard.
func (a *App) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Usage.SummaryToday(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("load usage summary failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage summary")
		return
	}
	viewer := ""
	if p := a.currentProfile(r); p != nil {
		viewer = p.Email
	}
	a.json(w, http.StatusOK, map[string]any{
		"viewer":        viewer,
		"dashboardPath": a.Admin.DashboardPath,
		"today":         summary,
		"plans":         a.Resolver.Registry().All(),
	})
}

// AdminUsers lists one page of provider users with their resolved plan and
// admin status. ?page= starts at 1; ?per_page= defaults to 50, max identity.ListPageSize.
func (a *App) AdminUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := min(queryInt(r, "per_page", 50), identity.ListPageSize)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	users, err := a.Auth.ListUsers(ctx, page, perPage)
	if err != nil {
		var apiErr *identity.APIError
		msg := "identity provider unavailable"
		if errors.As(err, &apiErr) {
			msg = a.clean(apiErr.Message)
		}
		a.Logger.Error().Err(err).Int("page", page).Msg("list users failed")
		a.error(w, http.StatusBadGateway, "provider_error", msg)
		return
	}

	rows := make([]adminUserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, adminUserRow{
			ID:      u.ID,
			Email:   u.Email,
			Plan:    a.Resolver.ResolvePlanID(u),
			IsAdmin: a.Admin.IsAdmin(u),
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"page":    page,
		"perPage": perPage,
		"items":   rows,
		"hasMore": len(users) == perPage,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
