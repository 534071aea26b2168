// Package identity talks to the GoTrue-compatible identity provider: admin
// user management with the service credential, and password sessions with
// the public key.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"mediahub/internal/domain"
	"mediahub/internal/infra"
)

var (
	// ErrMissingBaseURL indicates that the client was configured without a provider URL.
	ErrMissingBaseURL = errors.New("identity: provider url is required")
	// ErrMissingServiceKey indicates that an admin call was attempted without the service credential.
	ErrMissingServiceKey = errors.New("identity: service credential is required")
	// ErrProviderUnavailable is returned while the circuit breaker is open.
	ErrProviderUnavailable = errors.New("identity: provider unavailable")
	// ErrUserNotFound is returned when no account matches a lookup.
	ErrUserNotFound = errors.New("user not found")
)

// APIError is a non-2xx reply from the provider. Its message is surfaced verbatim.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "identity provider returned status " + strconv.Itoa(e.Status)
}

// Observer receives per-call outcomes. metrics.Collector implements it.
type Observer interface {
	ObserveIdentityRequest(operation, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveIdentityRequest(string, string, time.Duration) {}

// Options configures the provider client.
type Options struct {
	BaseURL        string
	ServiceKey     string
	AnonKey        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	Observer       Observer
	RequestTimeout time.Duration
	BreakerName    string
}

// Client performs HTTP calls against the provider's auth API. It is safe for
// concurrent use. Calls are never retried.
type Client struct {
	baseURL    string
	serviceKey string
	anonKey    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	logger     *infra.Logger
	observer   Observer
}

type rawResponse struct {
	status int
	body   []byte
}

var errUpstream = errors.New("identity: upstream error")

// NewClient constructs a client with defaults for every optional dependency.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	name := opts.BreakerName
	if name == "" {
		name = "identity-provider"
	}
	serviceKey := strings.TrimSpace(opts.ServiceKey)
	anonKey := strings.TrimSpace(opts.AnonKey)
	if anonKey == "" {
		anonKey = serviceKey
	}
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		anonKey:    anonKey,
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		logger:   logger,
		observer: observer,
	}, nil
}

// ListUsers returns one page of users. Pages start at 1.
func (c *Client) ListUsers(ctx context.Context, page, perPage int) ([]*domain.UserProfile, error) {
	if c.serviceKey == "" {
		return nil, ErrMissingServiceKey
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	raw, err := c.do(ctx, "list_users", http.MethodGet, "/auth/v1/admin/users?"+q.Encode(), c.serviceKey, c.serviceKey, nil)
	if err != nil {
		return nil, err
	}
	users, err := decodeUserList(raw)
	if err != nil {
		return nil, fmt.Errorf("identity: decode user list: %w", err)
	}
	return users, nil
}

// GetUser fetches one user by id with the service credential.
func (c *Client) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	if c.serviceKey == "" {
		return nil, ErrMissingServiceKey
	}
	raw, err := c.do(ctx, "get_user", http.MethodGet, "/auth/v1/admin/users/"+url.PathEscape(id), c.serviceKey, c.serviceKey, nil)
	if err != nil {
		return nil, err
	}
	return decodeUserBody(raw)
}

// UserPatch replaces the metadata maps of a user.
type UserPatch struct {
	AppMetadata  domain.Metadata `json:"app_metadata,omitempty"`
	UserMetadata domain.Metadata `json:"user_metadata,omitempty"`
}

// UpdateUser writes patch for the user in a single call and returns the stored user.
func (c *Client) UpdateUser(ctx context.Context, id string, patch UserPatch) (*domain.UserProfile, error) {
	if c.serviceKey == "" {
		return nil, ErrMissingServiceKey
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("identity: encode update: %w", err)
	}
	raw, err := c.do(ctx, "update_user", http.MethodPut, "/auth/v1/admin/users/"+url.PathEscape(id), c.serviceKey, c.serviceKey, body)
	if err != nil {
		return nil, err
	}
	return decodeUserBody(raw)
}

// Session is the result of a successful password login.
type Session struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int                 `json:"expires_in"`
	User         *domain.UserProfile `json:"-"`
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("identity: encode login: %w", err)
	}
	raw, err := c.do(ctx, "sign_in", http.MethodPost, "/auth/v1/token?grant_type=password", c.anonKey, c.anonKey, body)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Session
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("identity: decode session: %w", err)
	}
	sess := envelope.Session
	if sess.AccessToken == "" {
		return nil, errors.New("identity: provider returned no access token")
	}
	if len(envelope.User) > 0 {
		sess.User, err = decodeUserBody(envelope.User)
		if err != nil {
			return nil, err
		}
	}
	return &sess, nil
}

// UserFromToken resolves the user that owns accessToken.
func (c *Client) UserFromToken(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	raw, err := c.do(ctx, "get_session_user", http.MethodGet, "/auth/v1/user", c.anonKey, accessToken, nil)
	if err != nil {
		return nil, err
	}
	return decodeUserBody(raw)
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, "sign_out", http.MethodPost, "/auth/v1/logout", c.anonKey, accessToken, nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path, apiKey, bearer string, body []byte) ([]byte, error) {
	start := time.Now()
	raw, err := c.breaker.Execute(func() (*rawResponse, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if apiKey != "" {
			req.Header.Set("apikey", apiKey)
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		out := &rawResponse{status: resp.StatusCode, body: data}
		if resp.StatusCode >= 500 {
			return out, errUpstream
		}
		return out, nil
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.observer.ObserveIdentityRequest(op, "unavailable", elapsed)
		c.logger.Warn().Str("operation", op).Msg("identity: circuit open")
		return nil, ErrProviderUnavailable
	case raw != nil && raw.status >= 300:
		c.observer.ObserveIdentityRequest(op, "rejected", elapsed)
		apiErr := decodeAPIError(raw.status, raw.body)
		c.logger.Debug().Str("operation", op).Int("status", raw.status).Str("code", apiErr.Code).Msg("identity: request rejected")
		return nil, apiErr
	case err != nil:
		c.observer.ObserveIdentityRequest(op, "error", elapsed)
		return nil, fmt.Errorf("identity: %s: %w", op, err)
	}
	c.observer.ObserveIdentityRequest(op, "ok", elapsed)
	c.logger.Debug().Str("operation", op).Int("status", raw.status).Dur("elapsed", elapsed).Msg("identity: request ok")
	return raw.body, nil
}

// decodeAPIError reads the first message field GoTrue versions are known to use.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var detail struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
		ErrorCode        string `json:"error_code"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		for _, m := range []string{detail.Msg, detail.Message, detail.ErrorDescription, detail.Error} {
			if strings.TrimSpace(m) != "" {
				apiErr.Message = m
				break
			}
		}
		apiErr.Code = detail.ErrorCode
		if apiErr.Code == "" && detail.Error != apiErr.Message {
			apiErr.Code = detail.Error
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}
