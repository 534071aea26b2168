package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/internal/access"
	"mediahub/internal/domain"
	"mediahub/internal/identity"
	"mediahub/internal/middleware"
)

type memUsage struct {
	used     map[string]int
	reserved int
	err      error
}

func newMemUsage() *memUsage { return &memUsage{used: map[string]int{}} }

func (m *memUsage) UsedToday(_ context.Context, userID string) (int, error) {
	return m.used[userID], m.err
}

func (m *memUsage) Reserve(_ context.Context, userID string, limit domain.DailyLimit) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if !limit.IsUnlimited() && m.used[userID] >= int(limit) {
		return m.used[userID], domain.ErrQuotaExceeded
	}
	m.used[userID]++
	m.reserved++
	return m.used[userID], nil
}

func (m *memUsage) History(_ context.Context, userID string, days int) ([]domain.UsageDay, error) {
	return []domain.UsageDay{{Used: m.used[userID]}}, m.err
}

func (m *memUsage) SummaryToday(context.Context) (domain.UsageSummary, error) {
	total := 0
	for _, n := range m.used {
		total += n
	}
	return domain.UsageSummary{ActiveUsers: len(m.used), Downloads: total}, m.err
}

type stubAuth struct {
	session  *identity.Session
	err      error
	users    []*domain.UserProfile
	signOuts []string
}

func (s *stubAuth) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	return s.session, s.err
}

func (s *stubAuth) SignOut(_ context.Context, token string) error {
	s.signOuts = append(s.signOuts, token)
	return nil
}

func (s *stubAuth) ListUsers(_ context.Context, page, perPage int) ([]*domain.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	start := (page - 1) * perPage
	if start >= len(s.users) {
		return nil, nil
	}
	return s.users[start:min(start+perPage, len(s.users))], nil
}

func newTestApp(usage *memUsage, auth *stubAuth) *App {
	return NewApp(App{
		Admin: access.NewAdminConfig("boss@example.com", "admin", "/console"),
		Usage: usage,
		Auth:  auth,
	})
}

func withProfile(r *http.Request, p *domain.UserProfile) *http.Request {
	return r.WithContext(middleware.ContextWithProfile(r.Context(), p))
}

func withLocale(r *http.Request, locale string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.LocaleKey, locale))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestMe(t *testing.T) {
	usage := newMemUsage()
	usage.used["u1"] = 3
	app := newTestApp(usage, &stubAuth{})

	rr := httptest.NewRecorder()
	app.Me(rr, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := withProfile(httptest.NewRequest(http.MethodGet, "/v1/me", nil), &domain.UserProfile{ID: "u1", Email: "a@example.com"})
	app.Me(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "free", body["plan"].(map[string]any)["id"])
	assert.EqualValues(t, 3, body["usedToday"])
	assert.EqualValues(t, 2, body["remaining"])
	assert.Equal(t, false, body["isAdmin"])
	assert.NotContains(t, body, "dashboardPath")
}

func TestMeAdminUnlimited(t *testing.T) {
	app := newTestApp(newMemUsage(), &stubAuth{})
	p := &domain.UserProfile{ID: "u2", Email: "Boss@Example.com", AppMetadata: domain.Metadata{"plan": "exclusive"}}

	rr := httptest.NewRecorder()
	app.Me(rr, withProfile(httptest.NewRequest(http.MethodGet, "/v1/me", nil), p))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Nil(t, body["remaining"])
	assert.Nil(t, body["plan"].(map[string]any)["dailyLimit"])
	assert.Equal(t, true, body["isAdmin"])
	assert.Equal(t, "/console", body["dashboardPath"])
}

func TestPlansOrderAndCurrent(t *testing.T) {
	app := newTestApp(newMemUsage(), &stubAuth{})

	rr := httptest.NewRecorder()
	app.Plans(rr, httptest.NewRequest(http.MethodGet, "/v1/plans", nil))
	body := decode(t, rr)
	plans := body["plans"].([]any)
	require.Len(t, plans, 3)
	for i, want := range []string{"free", "pro", "exclusive"} {
		assert.Equal(t, want, plans[i].(map[string]any)["id"])
	}
	assert.NotContains(t, body, "current")

	rr = httptest.NewRecorder()
	app.Plans(rr, withProfile(httptest.NewRequest(http.MethodGet, "/v1/plans", nil), &domain.UserProfile{Plan: "PRO"}))
	assert.Equal(t, "pro", decode(t, rr)["current"])
}

func TestReserveDownload(t *testing.T) {
	free := &domain.UserProfile{ID: "free-user"}
	pro := &domain.UserProfile{ID: "pro-user", UserMetadata: domain.Metadata{"subscription_tier": "pro"}}

	tests := []struct {
		name     string
		profile  *domain.UserProfile
		used     int
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "anonymous", body: `{"tool":"video"}`, wantCode: http.StatusUnauthorized, wantErr: "unauthorized"},
		{name: "bad payload", profile: free, body: `{`, wantCode: http.StatusBadRequest, wantErr: "bad_request"},
		{name: "unknown tool", profile: free, body: `{"tool":"teleport"}`, wantCode: http.StatusBadRequest, wantErr: "unknown_tool"},
		{name: "tool outside plan", profile: free, body: `{"tool":"playlist"}`, wantCode: http.StatusForbidden, wantErr: "tool_not_allowed"},
		{name: "quota reached", profile: free, used: 5, body: `{"tool":"audio"}`, wantCode: http.StatusTooManyRequests, wantErr: "quota_exceeded"},
		{name: "free basic tool", profile: free, used: 4, body: `{"tool":"Video"}`, wantCode: http.StatusCreated},
		{name: "pro converter", profile: pro, body: `{"tool":"convert"}`, wantCode: http.StatusCreated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			usage := newMemUsage()
			if tc.profile != nil && tc.used > 0 {
				usage.used[tc.profile.ID] = tc.used
			}
			app := newTestApp(usage, &stubAuth{})
			req := httptest.NewRequest(http.MethodPost, "/v1/downloads", strings.NewReader(tc.body))
			if tc.profile != nil {
				req = withProfile(req, tc.profile)
			}
			rr := httptest.NewRecorder()
			app.ReserveDownload(rr, req)
			require.Equal(t, tc.wantCode, rr.Code, rr.Body.String())
			body := decode(t, rr)
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, body["error"])
				assert.Zero(t, usage.reserved)
				return
			}
			assert.Equal(t, 1, usage.reserved)
			assert.EqualValues(t, tc.used+1, body["usedToday"])
		})
	}
}

func TestReserveDownloadLocalizedMessage(t *testing.T) {
	usage := newMemUsage()
	usage.used["u1"] = 5
	app := newTestApp(usage, &stubAuth{})

	req := withProfile(httptest.NewRequest(http.MethodPost, "/v1/downloads", strings.NewReader(`{"tool":"video"}`)), &domain.UserProfile{ID: "u1"})
	rr := httptest.NewRecorder()
	app.ReserveDownload(rr, withLocale(req, "id"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, decode(t, rr)["message"], "5 unduhan")
}

func TestReserveDownloadStorageFailure(t *testing.T) {
	usage := newMemUsage()
	usage.err = errors.New("connection reset")
	app := newTestApp(usage, &stubAuth{})

	req := withProfile(httptest.NewRequest(http.MethodPost, "/v1/downloads", strings.NewReader(`{"tool":"video"}`)), &domain.UserProfile{ID: "u1"})
	rr := httptest.NewRecorder()
	app.ReserveDownload(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestLogin(t *testing.T) {
	okSession := &identity.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresIn:    3600,
		User:         &domain.UserProfile{ID: "u1", Email: "a@example.com", AppMetadata: domain.Metadata{"plan": "pro"}},
	}
	tests := []struct {
		name     string
		body     string
		auth     *stubAuth
		wantCode int
		wantErr  string
	}{
		{name: "missing password", body: `{"email":"a@example.com"}`, auth: &stubAuth{}, wantCode: http.StatusBadRequest, wantErr: "bad_request"},
		{name: "rejected", body: `{"email":"a@example.com","password":"x"}`, auth: &stubAuth{err: &identity.APIError{Status: 400, Message: "Invalid login credentials"}}, wantCode: http.StatusUnauthorized, wantErr: "invalid_credentials"},
		{name: "breaker open", body: `{"email":"a@example.com","password":"x"}`, auth: &stubAuth{err: identity.ErrProviderUnavailable}, wantCode: http.StatusServiceUnavailable, wantErr: "unavailable"},
		{name: "provider 500", body: `{"email":"a@example.com","password":"x"}`, auth: &stubAuth{err: &identity.APIError{Status: 500, Message: "boom"}}, wantCode: http.StatusBadGateway, wantErr: "provider_error"},
		{name: "ok", body: `{"email":"a@example.com","password":"x"}`, auth: &stubAuth{session: okSession}, wantCode: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(newMemUsage(), tc.auth)
			rr := httptest.NewRecorder()
			app.Login(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(tc.body)))
			require.Equal(t, tc.wantCode, rr.Code, rr.Body.String())
			body := decode(t, rr)
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, body["error"])
				assert.Empty(t, rr.Result().Cookies())
				return
			}
			assert.Equal(t, "pro", body["plan"].(map[string]any)["id"])
			assert.Len(t, rr.Result().Cookies(), 2)
		})
	}
}

func TestLoginStripsMarkupFromProviderMessage(t *testing.T) {
	app := newTestApp(newMemUsage(), &stubAuth{err: &identity.APIError{Status: 400, Message: `<script>alert(1)</script>Invalid`}})
	rr := httptest.NewRecorder()
	app.Login(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"a@example.com","password":"x"}`)))
	assert.Equal(t, "Invalid", decode(t, rr)["message"])
}

func TestLogoutRevokesAndClears(t *testing.T) {
	auth := &stubAuth{}
	app := newTestApp(newMemUsage(), auth)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer at")
	rr := httptest.NewRecorder()
	app.Logout(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"at"}, auth.signOuts)
	assert.Len(t, rr.Result().Cookies(), 2)
}

func TestAdminUsers(t *testing.T) {
	auth := &stubAuth{users: []*domain.UserProfile{
		{ID: "1", Email: "boss@example.com"},
		{ID: "2", Email: "pro@example.com", PlanID: "pro"},
		{ID: "3", Email: "role@example.com", AppMetadata: domain.Metadata{"role": "admin"}},
	}}
	app := newTestApp(newMemUsage(), auth)

	rr := httptest.NewRecorder()
	app.AdminUsers(rr, httptest.NewRequest(http.MethodGet, "/console/users?per_page=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, true, items[0].(map[string]any)["isAdmin"])
	assert.Equal(t, "pro", items[1].(map[string]any)["plan"])
	assert.Equal(t, true, body["hasMore"])

	rr = httptest.NewRecorder()
	app.AdminUsers(rr, httptest.NewRequest(http.MethodGet, "/console/users?per_page=2&page=2", nil))
	body = decode(t, rr)
	items = body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, true, items[0].(map[string]any)["isAdmin"])
	assert.Equal(t, false, body["hasMore"])
}

func TestAdminUsersProviderError(t *testing.T) {
	app := newTestApp(newMemUsage(), &stubAuth{err: &identity.APIError{Status: 403, Message: "<b>not allowed</b>"}})
	rr := httptest.NewRecorder()
	app.AdminUsers(rr, httptest.NewRequest(http.MethodGet, "/console/users", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "not allowed", decode(t, rr)["message"])
}

func TestAdminDashboard(t *testing.T) {
	usage := newMemUsage()
	usage.used["a"] = 2
	usage.used["b"] = 1
	app := newTestApp(usage, &stubAuth{})

	rr := httptest.NewRecorder()
	app.AdminDashboard(rr, withProfile(httptest.NewRequest(http.MethodGet, "/console/", nil), &domain.UserProfile{Email: "boss@example.com"}))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "/console", body["dashboardPath"])
	assert.Equal(t, "boss@example.com", body["viewer"])
	today := body["today"].(map[string]any)
	assert.EqualValues(t, 2, today["activeUsers"])
	assert.EqualValues(t, 3, today["downloads"])
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?a=4&b=-1&c=x", nil)
	assert.Equal(t, 4, queryInt(r, "a", 1))
	assert.Equal(t, 1, queryInt(r, "b", 1))
	assert.Equal(t, 1, queryInt(r, "c", 1))
	assert.Equal(t, 7, queryInt(r, "missing", 7))
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestApp(newMemUsage(), &stubAuth{}).Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "mediahub", body["service"])
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["plans"])
	assert.NotContains(t, body, "usage_store")
}

type pingingUsage struct {
	*memUsage
	pingErr error
}

func (p pingingUsage) Ping(context.Context) error { return p.pingErr }

func TestHealthReportsUsageStore(t *testing.T) {
	ok := NewApp(App{Usage: pingingUsage{memUsage: newMemUsage()}})
	rr := httptest.NewRecorder()
	ok.Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["usage_store"])

	down := NewApp(App{Usage: pingingUsage{memUsage: newMemUsage(), pingErr: errors.New("connection refused")}})
	rr = httptest.NewRecorder()
	down.Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unreachable", body["usage_store"])
}

func TestOpenAPIDocsListsRoutes(t *testing.T) {
	app := newTestApp(newMemUsage(), &stubAuth{})
	rr := httptest.NewRecorder()
	app.OpenAPIDocs(rr, httptest.NewRequest(http.MethodGet, "/v1/docs", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	html := rr.Body.String()
	for _, route := range []string{"GET /v1/me", "POST /v1/downloads", "GET /v1/downloads/usage", "POST /v1/auth/login", "GET /v1/plans"} {
		assert.Contains(t, html, route)
	}
	assert.Contains(t, html, `spec-url="/v1/openapi.json"`)

	rr = httptest.NewRecorder()
	app.OpenAPIJSON(rr, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/v1/healthz")
}

func TestDocRoutesSorted(t *testing.T) {
	routes, err := docRoutes([]byte(`{"paths":{"/b":{"get":{"summary":"B"}},"/a":{"post":{},"get":{}}}}`))
	require.NoError(t, err)
	assert.Equal(t, []docRoute{{"GET", "/a", ""}, {"POST", "/a", ""}, {"GET", "/b", "B"}}, routes)

	_, err = docRoutes([]byte("{"))
	assert.Error(t, err)
}
