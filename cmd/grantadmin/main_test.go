package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/internal/identity"
)

func newProvider(t *testing.T, updates *[]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{
				{"id": "u-42", "email": "ops@example.com", "user_metadata": map[string]any{"favoriteColor": "blue"}},
			}})
		case http.MethodPut:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			*updates = append(*updates, body)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "u-42", "email": "ops@example.com"})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setProviderEnv(t *testing.T, url string) {
	t.Helper()
	t.Setenv("SUPABASE_URL", url)
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
}

func TestRunGrantsAdmin(t *testing.T) {
	var updates []map[string]any
	srv := newProvider(t, &updates)
	setProviderEnv(t, srv.URL)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--email=OPS@example.com"}, &out))
	assert.Equal(t, "Granted admin role to OPS@example.com (user u-42)\n", out.String())
	require.Len(t, updates, 1)
	usr := updates[0]["user_metadata"].(map[string]any)
	assert.Equal(t, "blue", usr["favoriteColor"])
	assert.Equal(t, true, usr["is_admin"])
}

func TestRunRequiresEmail(t *testing.T) {
	err := run(context.Background(), []string{"--email=  "}, &bytes.Buffer{})
	assert.EqualError(t, err, "--email is required")
}

func TestRunUnknownUser(t *testing.T) {
	var updates []map[string]any
	srv := newProvider(t, &updates)
	setProviderEnv(t, srv.URL)

	err := run(context.Background(), []string{"--email", "nobody@example.com"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
	assert.Empty(t, updates)
}
