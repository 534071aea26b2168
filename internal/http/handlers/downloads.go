package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mediahub/internal/domain"
	"mediahub/internal/entitlement"
	"mediahub/internal/middleware"
)

type reserveRequest struct {
	Tool string `json:"tool"`
}

type reserveResponse struct {
	Tool      domain.Tool   `json:"tool"`
	Plan      domain.PlanID `json:"plan"`
	UsedToday int           `json:"usedToday"`
	Remaining *int          `json:"remaining"`
}

// ReserveDownload claims one of today's downloads for the requested tool.
// The download itself happens elsewhere; this only enforces the plan.
func (a *App) ReserveDownload(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	p := a.currentProfile(r)
	if p == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", localize(locale, msgSignInRequired))
		return
	}
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	tool, ok := domain.ParseTool(req.Tool)
	if !ok {
		a.error(w, http.StatusBadRequest, "unknown_tool", localize(locale, msgUnknownTool, req.Tool))
		return
	}

	plan := a.Resolver.UserPlan(p)
	if !plan.AllowsTool(tool) {
		a.Metrics.RecordReservation(string(plan.ID), "tool_denied")
		a.error(w, http.StatusForbidden, "tool_not_allowed", localize(locale, msgToolNotAllowed, tool, plan.Label))
		return
	}

	used, err := a.Usage.Reserve(r.Context(), p.ID, plan.DailyLimit)
	if errors.Is(err, domain.ErrQuotaExceeded) {
		a.Metrics.RecordReservation(string(plan.ID), "quota_exceeded")
		a.error(w, http.StatusTooManyRequests, "quota_exceeded", localize(locale, msgQuotaReached, int(plan.DailyLimit)))
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", p.ID).Msg("reserve download failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to reserve download")
		return
	}
	a.Metrics.RecordReservation(string(plan.ID), "ok")
	a.json(w, http.StatusCreated, reserveResponse{
		Tool:      tool,
		Plan:      plan.ID,
		UsedToday: used,
		Remaining: entitlement.RemainingDownloads(plan, used),
	})
}

// UsageHistory lists the caller's recent daily usage. ?days= defaults to 7, max 31.
func (a *App) UsageHistory(w http.ResponseWriter, r *http.Request) {
	p := a.currentProfile(r)
	if p == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", localize(middleware.LocaleFromContext(r.Context()), msgSignInRequired))
		return
	}
	days := min(queryInt(r, "days", 7), 31)
	history, err := a.Usage.History(r.Context(), p.ID, days)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", p.ID).Msg("load usage history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": history})
}
