package entitlement

import "mediahub/internal/domain"

// Metadata keys checked, in order, for a plan name.
var metadataPlanKeys = []string{"plan", "plan_id", "subscription_tier"}

// Resolver derives a user's effective plan from their profile.
type Resolver struct {
	registry *Registry
}

// NewResolver returns a Resolver backed by reg. A nil reg uses NewRegistry.
func NewResolver(reg *Registry) *Resolver {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Resolver{registry: reg}
}

// Registry exposes the catalog the resolver reads from.
func (r *Resolver) Registry() *Registry { return r.registry }

// ResolvePlanID returns the first recognized plan among the root plan
// fields, then app metadata, then user metadata. Anything else is free.
func (r *Resolver) ResolvePlanID(p *domain.UserProfile) domain.PlanID {
	if p == nil {
		return domain.PlanFree
	}
	for _, raw := range []string{p.Plan, p.PlanID} {
		if id, ok := r.registry.Known(raw); ok {
			return id
		}
	}
	for _, md := range p.MetadataInPriority() {
		for _, key := range metadataPlanKeys {
			if id, ok := r.registry.Known(md.String(key)); ok {
				return id
			}
		}
	}
	return domain.PlanFree
}

// UserPlan returns the plan configuration for the profile. It never fails.
func (r *Resolver) UserPlan(p *domain.UserProfile) domain.PlanConfig {
	return r.registry.Plan(r.ResolvePlanID(p))
}

// Decision is the entitlement outcome for one user at one point in time.
type Decision struct {
	Plan      domain.PlanConfig `json:"plan"`
	Used      int               `json:"usedToday"`
	Remaining *int              `json:"remaining"`
}

// Decide resolves the plan and remaining allowance for a profile.
func (r *Resolver) Decide(p *domain.UserProfile, usedToday int) Decision {
	plan := r.UserPlan(p)
	if usedToday < 0 {
		usedToday = 0
	}
	return Decision{
		Plan:      plan,
		Used:      usedToday,
		Remaining: RemainingDownloads(plan, usedToday),
	}
}

// RemainingDownloads returns nil for unlimited plans, otherwise the
// non-negative number of downloads left today. Negative usage counts as zero.
func RemainingDownloads(plan domain.PlanConfig, usedToday int) *int {
	if plan.DailyLimit.IsUnlimited() {
		return nil
	}
	used := max(usedToday, 0)
	left := max(int(plan.DailyLimit)-used, 0)
	return &left
}
