package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeProvider is an in-memory GoTrue admin API.
type fakeProvider struct {
	t          *testing.T
	serviceKey string

	mu        sync.Mutex
	users     []map[string]any
	listCalls []int
	updates   []map[string]any
	failList  int
	failMsg   string
}

func newFakeProvider(t *testing.T, users ...map[string]any) (*fakeProvider, *httptest.Server) {
	t.Helper()
	fp := &fakeProvider{t: t, serviceKey: "service-key", users: users}
	srv := httptest.NewServer(http.HandlerFunc(fp.serve))
	t.Cleanup(srv.Close)
	return fp, srv
}

func (fp *fakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if r.Header.Get("apikey") != fp.serviceKey || r.Header.Get("Authorization") != "Bearer "+fp.serviceKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid api key"})
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/auth/v1/admin/users":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		fp.listCalls = append(fp.listCalls, page)
		if fp.failList != 0 {
			writeJSON(w, fp.failList, map[string]any{"msg": fp.failMsg})
			return
		}
		start := (page - 1) * perPage
		end := min(start+perPage, len(fp.users))
		out := []map[string]any{}
		if start < len(fp.users) {
			out = fp.users[start:end]
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": out, "aud": "authenticated"})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/auth/v1/admin/users/"):
		id := strings.TrimPrefix(r.URL.Path, "/auth/v1/admin/users/")
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			fp.t.Errorf("decode update body: %v", err)
		}
		fp.updates = append(fp.updates, body)
		for _, u := range fp.users {
			if u["id"] == id {
				if app, ok := body["app_metadata"]; ok {
					u["app_metadata"] = app
				}
				if usr, ok := body["user_metadata"]; ok {
					u["user_metadata"] = usr
				}
				writeJSON(w, http.StatusOK, u)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"msg": "User not found"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"msg": "no route"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func makeUsers(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			"id":            "user-" + strconv.Itoa(i),
			"email":         "user" + strconv.Itoa(i) + "@example.com",
			"app_metadata":  map[string]any{"provider": "email"},
			"user_metadata": map[string]any{},
		})
	}
	return out
}
