// Package access decides who may enter the admin dashboard.
package access

import (
	"strings"

	"mediahub/internal/domain"
)

// DefaultDashboardPath is used when no dashboard path is configured.
const DefaultDashboardPath = "/admin"

// AdminConfig holds the admin allow-lists. Build it once with NewAdminConfig
// and pass it by value; it is never mutated afterwards.
type AdminConfig struct {
	emails        map[string]struct{}
	roles         map[string]struct{}
	DashboardPath string
}

// NewAdminConfig parses comma-separated email and role lists and normalizes
// the dashboard path.
func NewAdminConfig(emailsCSV, rolesCSV, dashboardPath string) AdminConfig {
	return AdminConfig{
		emails:        parseList(emailsCSV),
		roles:         parseList(rolesCSV),
		DashboardPath: NormalizeDashboardPath(dashboardPath),
	}
}

// Emails returns the email allow-list in no particular order.
func (c AdminConfig) Emails() []string { return keys(c.emails) }

// Roles returns the role allow-list in no particular order.
func (c AdminConfig) Roles() []string { return keys(c.roles) }

// NormalizeDashboardPath forces a leading slash and strips trailing ones.
// Empty input and "/" map to DefaultDashboardPath.
func NormalizeDashboardPath(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return DefaultDashboardPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// IsDashboardPath reports whether path is the dashboard or below it.
func (c AdminConfig) IsDashboardPath(path string) bool {
	base := c.DashboardPath
	if base == "" {
		base = DefaultDashboardPath
	}
	return path == base || strings.HasPrefix(path, base+"/")
}

// IsAdmin reports whether the profile carries any admin signal. The four
// signals are OR'd with no precedence between them:
//
//   - the email is in the email allow-list;
//   - the scalar "role" is an allowed role; a present app metadata role,
//     blank included, hides the user metadata one;
//   - any entry of the app metadata "roles" list is an allowed role;
//   - either metadata map has a truthy "is_admin" flag.
//
// User metadata is editable by the user at most providers, so operators who
// rely on role or is_admin should only write those keys through app metadata.
func (c AdminConfig) IsAdmin(p *domain.UserProfile) bool {
	if p == nil {
		return false
	}
	if email := normalize(p.Email); email != "" {
		if _, ok := c.emails[email]; ok {
			return true
		}
	}
	if c.roleAllowed(primaryRole(p)) {
		return true
	}
	for _, role := range p.AppMetadata.StringSlice("roles") {
		if c.roleAllowed(role) {
			return true
		}
	}
	return p.AppMetadata.Truthy("is_admin") || p.UserMetadata.Truthy("is_admin")
}

func (c AdminConfig) roleAllowed(role string) bool {
	role = normalize(role)
	if role == "" {
		return false
	}
	_, ok := c.roles[role]
	return ok
}

// primaryRole is the app metadata "role" whenever that key holds a value,
// even a blank one, so operators can clear a role without the user's own
// metadata taking over. A missing or null key falls back to user metadata.
func primaryRole(p *domain.UserProfile) string {
	if v, ok := p.AppMetadata["role"]; ok && v != nil {
		return p.AppMetadata.String("role")
	}
	return p.UserMetadata.String("role")
}

func parseList(csv string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(csv, ",") {
		if v := normalize(part); v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
