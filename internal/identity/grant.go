package identity

import (
	"context"
	"fmt"
	"strings"

	"mediahub/internal/domain"
)

// ListPageSize is the page size used when scanning for a user by email.
const ListPageSize = 200

// UserAdmin is the subset of Client used by operator procedures.
type UserAdmin interface {
	ListUsers(ctx context.Context, page, perPage int) ([]*domain.UserProfile, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*domain.UserProfile, error)
}

// Granter runs operator procedures against the provider's user store.
type Granter struct {
	admin    UserAdmin
	pageSize int
}

// NewGranter returns a Granter that pages through users ListPageSize at a time.
func NewGranter(admin UserAdmin) *Granter {
	return &Granter{admin: admin, pageSize: ListPageSize}
}

// FindUserByEmail scans the user list from page 1 until an account whose email
// matches case-insensitively, or until a short page ends the listing.
func (g *Granter) FindUserByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	target := strings.ToLower(strings.TrimSpace(email))
	if target == "" {
		return nil, fmt.Errorf("email is required")
	}
	for page := 1; ; page++ {
		users, err := g.admin.ListUsers(ctx, page, g.pageSize)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if u != nil && strings.ToLower(strings.TrimSpace(u.Email)) == target {
				return u, nil
			}
		}
		if len(users) < g.pageSize {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
	}
}

// BuildAdminPatch returns metadata that marks the user as an admin while
// keeping every unrelated key of both maps.
func BuildAdminPatch(u *domain.UserProfile) UserPatch {
	var app, usr domain.Metadata
	if u != nil {
		app, usr = u.AppMetadata, u.UserMetadata
	}
	appOut := app.Clone()
	usrOut := usr.Clone()

	admin := string(domain.UserRoleAdmin)
	appOut["role"] = admin
	appOut["is_admin"] = true
	appOut["roles"] = mergeRoles(app.StringSlice("roles"), admin)
	usrOut["role"] = admin
	usrOut["is_admin"] = true

	return UserPatch{AppMetadata: appOut, UserMetadata: usrOut}
}

// GrantAdmin finds the account for email and writes the admin patch in one
// update call. It returns the updated user.
func (g *Granter) GrantAdmin(ctx context.Context, email string) (*domain.UserProfile, error) {
	user, err := g.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	updated, err := g.admin.UpdateUser(ctx, user.ID, BuildAdminPatch(user))
	if err != nil {
		return nil, err
	}
	if updated == nil || updated.ID == "" {
		updated = user
	}
	return updated, nil
}

// AssignPlan finds the account for email and writes plan into its app
// metadata, keeping the other keys.
func (g *Granter) AssignPlan(ctx context.Context, email string, plan domain.PlanID) (*domain.UserProfile, error) {
	user, err := g.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	app := user.AppMetadata.Clone()
	app["plan"] = string(plan)
	updated, err := g.admin.UpdateUser(ctx, user.ID, UserPatch{AppMetadata: app})
	if err != nil {
		return nil, err
	}
	if updated == nil || updated.ID == "" {
		updated = user
	}
	return updated, nil
}

// mergeRoles lowercases existing roles, drops blanks and duplicates in
// encounter order, and appends extra when absent.
func mergeRoles(existing []string, extra string) []string {
	seen := make(map[string]struct{}, len(existing)+1)
	out := make([]string, 0, len(existing)+1)
	all := append(append([]string(nil), existing...), extra)
	for _, r := range all {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
