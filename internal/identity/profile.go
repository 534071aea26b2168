package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"mediahub/internal/domain"
)

// ProfileFromMap builds a profile from a decoded user object or token
// claims. Missing or mistyped fields become empty values; it never fails.
func ProfileFromMap(m map[string]any) *domain.UserProfile {
	if m == nil {
		return nil
	}
	p := &domain.UserProfile{
		ID:           stringField(m, "id"),
		Email:        strings.TrimSpace(stringField(m, "email")),
		Plan:         stringField(m, "plan"),
		PlanID:       stringField(m, "plan_id"),
		AppMetadata:  metadataField(m, "app_metadata"),
		UserMetadata: metadataField(m, "user_metadata"),
	}
	if p.ID == "" {
		p.ID = stringField(m, "sub")
	}
	return p
}

// DecodeProfile decodes a single user JSON object.
func DecodeProfile(data []byte) (*domain.UserProfile, error) {
	return decodeUserBody(data)
}

func decodeUserBody(data []byte) (*domain.UserProfile, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("identity: empty user object")
	}
	// Some endpoints wrap the user as {"user": {...}}.
	if inner, ok := m["user"].(map[string]any); ok && m["id"] == nil {
		m = inner
	}
	return ProfileFromMap(m), nil
}

// decodeUserList accepts {"users": [...]} as well as a bare array.
func decodeUserList(data []byte) ([]*domain.UserProfile, error) {
	trimmed := bytes.TrimSpace(data)
	var items []any
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
	} else {
		var envelope struct {
			Users []any `json:"users"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		items = envelope.Users
	}
	out := make([]*domain.UserProfile, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, ProfileFromMap(m))
		}
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func metadataField(m map[string]any, key string) domain.Metadata {
	if inner, ok := m[key].(map[string]any); ok {
		return domain.Metadata(inner)
	}
	return domain.Metadata{}
}
