// Package entitlement maps users to subscription plans and daily download
// allowances. Everything here is pure and safe for concurrent use.
package entitlement

import "mediahub/internal/domain"

// Registry is the read-only plan catalog.
type Registry struct {
	plans map[domain.PlanID]domain.PlanConfig
}

// NewRegistry builds the catalog.
func NewRegistry() *Registry {
	return &Registry{plans: map[domain.PlanID]domain.PlanConfig{
		domain.PlanFree: {
			ID:                domain.PlanFree,
			Label:             "Free",
			MonthlyPriceCents: 0,
			DailyLimit:        5,
			Features: []string{
				"5 downloads per day",
				"Video and audio downloads",
				"Up to 720p video",
				"Standard processing queue",
			},
			ToolAccess: domain.ToolAccessBasic,
		},
		domain.PlanPro: {
			ID:                domain.PlanPro,
			Label:             "Pro",
			MonthlyPriceCents: 499,
			DailyLimit:        50,
			Features: []string{
				"50 downloads per day",
				"All converters and formats",
				"Up to 4K video",
				"Priority processing",
			},
			ToolAccess: domain.ToolAccessAll,
		},
		domain.PlanExclusive: {
			ID:                domain.PlanExclusive,
			Label:             "Exclusive",
			MonthlyPriceCents: 999,
			DailyLimit:        domain.Unlimited,
			Features: []string{
				"Unlimited downloads",
				"All converters and formats",
				"Playlist and batch downloads",
				"Priority support",
			},
			ToolAccess: domain.ToolAccessAll,
		},
	}}
}

// Plan returns the configuration for id. Unknown ids fall back to free.
func (r *Registry) Plan(id domain.PlanID) domain.PlanConfig {
	if p, ok := r.plans[id]; ok {
		return clonePlan(p)
	}
	return clonePlan(r.plans[domain.PlanFree])
}

// All returns every plan in display order.
func (r *Registry) All() []domain.PlanConfig {
	out := make([]domain.PlanConfig, 0, len(domain.PlanOrder))
	for _, id := range domain.PlanOrder {
		out = append(out, clonePlan(r.plans[id]))
	}
	return out
}

// Known reports whether raw names a plan in the catalog.
func (r *Registry) Known(raw string) (domain.PlanID, bool) {
	id, ok := domain.ParsePlanID(raw)
	if !ok {
		return "", false
	}
	_, ok = r.plans[id]
	return id, ok
}

// Features must not be shared with callers.
func clonePlan(p domain.PlanConfig) domain.PlanConfig {
	p.Features = append([]string(nil), p.Features...)
	return p
}
