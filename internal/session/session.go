// Package session turns a provider access token into a user profile and
// manages the browser session cookies.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mediahub/internal/domain"
	"mediahub/internal/identity"
)

const (
	AccessCookie  = "mh_access_token"
	RefreshCookie = "mh_refresh_token"
)

// ErrNoToken is returned when a request carries no session token.
var ErrNoToken = errors.New("session: no token")

// Authenticator resolves the profile behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.UserProfile, error)
}

// JWTVerifier validates provider-issued HS256 access tokens locally. The
// provider embeds app_metadata and user_metadata in its tokens, so no network
// call is needed.
type JWTVerifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// NewJWTVerifier returns a verifier for tokens signed with secret. An empty
// audience skips the audience check.
func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience, now: time.Now}
}

func (v *JWTVerifier) Authenticate(_ context.Context, token string) (*domain.UserProfile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return identity.ProfileFromMap(claims), nil
}

// TokenUserSource is the provider call used when no signing secret is configured.
type TokenUserSource interface {
	UserFromToken(ctx context.Context, accessToken string) (*domain.UserProfile, error)
}

// RemoteAuthenticator asks the provider who owns the token.
type RemoteAuthenticator struct {
	source TokenUserSource
}

func NewRemoteAuthenticator(source TokenUserSource) *RemoteAuthenticator {
	return &RemoteAuthenticator{source: source}
}

func (a *RemoteAuthenticator) Authenticate(ctx context.Context, token string) (*domain.UserProfile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	p, err := a.source.UserFromToken(ctx, token)
	if err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		return nil, err
	}
	return p, nil
}

// TokenFromRequest reads a Bearer header, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AccessCookie); err == nil {
		return c.Value
	}
	return ""
}

// CookieOptions controls the attributes of session cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetCookies stores the session tokens as HttpOnly cookies.
func SetCookies(w http.ResponseWriter, sess *identity.Session, opts CookieOptions) {
	maxAge := sess.ExpiresIn
	if maxAge <= 0 {
		maxAge = int(time.Hour / time.Second)
	}
	http.SetCookie(w, newCookie(AccessCookie, sess.AccessToken, maxAge, opts))
	if sess.RefreshToken != "" {
		http.SetCookie(w, newCookie(RefreshCookie, sess.RefreshToken, int(30*24*time.Hour/time.Second), opts))
	}
}

// ClearCookies expires both session cookies.
func ClearCookies(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, newCookie(AccessCookie, "", -1, opts))
	http.SetCookie(w, newCookie(RefreshCookie, "", -1, opts))
}

func newCookie(name, value string, maxAge int, opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
