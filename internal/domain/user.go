package domain

import (
	"strconv"
	"strings"
)

// UserRole enumerates roles written by operator tooling.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Metadata is a free-form metadata map attached to an identity-provider user.
// Values are untrusted: any key may be missing or hold an unexpected type.
type Metadata map[string]any

// String returns the value at key when it is a string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// StringSlice returns the string entries of the list at key. Non-string
// entries are skipped; a non-list value yields nil.
func (m Metadata) StringSlice(key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Truthy reports whether the value at key reads as an affirmative flag:
// boolean true, a non-zero number, or a string such as "true", "1" or "yes".
func (m Metadata) Truthy(key string) bool {
	if m == nil {
		return false
	}
	switch v := m[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "yes" || s == "on" {
			return true
		}
		b, err := strconv.ParseBool(s)
		return err == nil && b
	}
	return false
}

// Clone returns a shallow copy that is never nil.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+3)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UserProfile is the identity provider's view of a user, decoded once at the
// boundary. A nil *UserProfile means "no session".
type UserProfile struct {
	ID           string
	Email        string
	Plan         string
	PlanID       string
	AppMetadata  Metadata
	UserMetadata Metadata
}

// MetadataInPriority returns the metadata maps in resolution order:
// provider-controlled first, then user-editable.
func (p *UserProfile) MetadataInPriority() []Metadata {
	if p == nil {
		return nil
	}
	return []Metadata{p.AppMetadata, p.UserMetadata}
}
