package session

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mediahub/internal/domain"
	"mediahub/internal/identity"
)

// JWKSPath is where the provider publishes its asymmetric signing keys.
const JWKSPath = "/auth/v1/.well-known/jwks.json"

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	N   string `json:"n"`
	E   string `json:"e"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// JWKSVerifier validates RS256 and ES256 access tokens against the provider's
// published key set. Keys are cached for an hour. An unknown kid refreshes the
// set, but never more often than once per minRefresh, so forged kids cannot
// turn requests into provider calls.
type JWKSVerifier struct {
	url        string
	audience   string
	httpClient *http.Client
	ttl        time.Duration
	minRefresh time.Duration
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]any
	fetched   time.Time
	attempted time.Time
}

// NewJWKSVerifier reads keys from url. A nil client gets a 10s timeout.
func NewJWKSVerifier(url, audience string, client *http.Client) *JWKSVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSVerifier{
		url:        url,
		audience:   audience,
		httpClient: client,
		ttl:        time.Hour,
		minRefresh: 30 * time.Second,
		now:        time.Now,
		keys:       map[string]any{},
	}
}

func (v *JWKSVerifier) Authenticate(ctx context.Context, token string) (*domain.UserProfile, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name, jwt.SigningMethodES256.Name}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	claims := jwt.MapClaims{}
	var fetchErr error
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, err := v.key(ctx, kid)
		if err != nil {
			fetchErr = err
		}
		return key, err
	}, opts...)
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if sub, _ := claims.GetSubject(); sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return identity.ProfileFromMap(claims), nil
}

var errUnknownKey = errors.New("session: unknown signing key")

func (v *JWKSVerifier) key(ctx context.Context, kid string) (any, error) {
	now := v.now()
	v.mu.Lock()
	key, ok := v.keys[kid]
	stale := now.Sub(v.fetched) > v.ttl
	throttled := now.Sub(v.attempted) < v.minRefresh
	if !throttled && (!ok || stale) {
		v.attempted = now
	}
	v.mu.Unlock()

	switch {
	case ok && !stale:
		return key, nil
	case throttled && ok:
		return key, nil
	case throttled:
		return nil, fmt.Errorf("%w: %w %q", domain.ErrUnauthorized, errUnknownKey, kid)
	}
	if err := v.refresh(ctx); err != nil {
		if ok {
			return key, nil
		}
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %w %q", domain.ErrUnauthorized, errUnknownKey, kid)
}

func (v *JWKSVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("session: fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("session: fetch jwks: status %d", resp.StatusCode)
	}
	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("session: decode jwks: %w", err)
	}
	keys := make(map[string]any, len(set.Keys))
	for _, k := range set.Keys {
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("session: jwks has no usable keys")
	}
	v.mu.Lock()
	v.keys = keys
	v.fetched = v.now()
	v.mu.Unlock()
	return nil
}

func (k jwk) publicKey() (any, error) {
	switch k.Kty {
	case "RSA":
		n, err := decodeBigInt(k.N)
		if err != nil {
			return nil, err
		}
		e, err := decodeBigInt(k.E)
		if err != nil {
			return nil, err
		}
		if !e.IsInt64() || e.Int64() == 0 {
			return nil, errors.New("invalid exponent")
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
	case "EC":
		if k.Crv != "P-256" {
			return nil, fmt.Errorf("unsupported curve %q", k.Crv)
		}
		x, err := decodeBigInt(k.X)
		if err != nil {
			return nil, err
		}
		y, err := decodeBigInt(k.Y)
		if err != nil {
			return nil, err
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	}
	return nil, fmt.Errorf("unsupported key type %q", k.Kty)
}

func decodeBigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
