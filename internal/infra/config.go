package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Environment names checked, in order, for provider settings. Deployments
// inherited several spellings, so the first non-empty value wins.
var (
	ProviderURLEnv  = []string{"SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL", "AUTH_PROVIDER_URL"}
	ServiceKeyEnv   = []string{"SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_KEY", "SERVICE_ROLE_KEY"}
	AnonKeyEnv      = []string{"SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"}
	ErrMissingValue = errors.New("missing required configuration")
)

// ProviderConfig locates the identity provider.
type ProviderConfig struct {
	URL        string `validate:"required,url"`
	ServiceKey string
	AnonKey    string
}

// AdminSettings is the raw admin configuration; access.NewAdminConfig parses it.
type AdminSettings struct {
	Emails        string `envconfig:"EMAILS"`
	Roles         string `envconfig:"ROLES" default:"admin"`
	DashboardPath string `envconfig:"DASHBOARD_PATH" default:"/admin"`
}

// Config represents the API server configuration loaded from the environment.
type Config struct {
	AppEnv             string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`
	Port               string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	DatabaseURL        string        `envconfig:"DATABASE_URL" validate:"required"`
	AutoMigrate        bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	JWTSecret          string        `envconfig:"AUTH_JWT_SECRET"`
	JWKSURL            string        `envconfig:"AUTH_JWKS_URL" validate:"omitempty,url"`
	GeoIPDBPath        string        `envconfig:"GEOIP_DB_PATH"`
	DefaultLocale      string        `envconfig:"DEFAULT_LOCALE" default:"en" validate:"oneof=en id"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	CookieSecure       bool          `envconfig:"COOKIE_SECURE" default:"false"`
	CookieDomain       string        `envconfig:"COOKIE_DOMAIN"`
	LoginRatePerMin    int           `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10" validate:"gte=1"`
	TrustProxyHeaders  bool          `envconfig:"TRUST_PROXY_HEADERS" default:"false"`
	HTTPReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout   time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	HTTPIdleTimeout    time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	ProviderTimeout    time.Duration `envconfig:"AUTH_PROVIDER_TIMEOUT" default:"15s"`

	// Read as ADMIN_EMAILS, ADMIN_ROLES and ADMIN_DASHBOARD_PATH.
	Admin    AdminSettings
	Provider ProviderConfig `ignored:"true"`
}

var validate = validator.New()

// LoadDotEnv loads a .env file when one is present.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadConfig loads the server configuration from the environment and applies defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	provider, err := LoadProviderConfig()
	if err != nil {
		return nil, err
	}
	cfg.Provider = *provider
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// LoadProviderConfig resolves the provider URL and service credential. Both
// are required; the error names every accepted variable for what is missing.
func LoadProviderConfig() (*ProviderConfig, error) {
	cfg := &ProviderConfig{
		URL:        strings.TrimRight(FirstEnv(ProviderURLEnv...), "/"),
		ServiceKey: FirstEnv(ServiceKeyEnv...),
		AnonKey:    FirstEnv(AnonKeyEnv...),
	}
	var missing []string
	if cfg.URL == "" {
		missing = append(missing, "provider URL ("+strings.Join(ProviderURLEnv, ", ")+")")
	}
	if cfg.ServiceKey == "" {
		missing = append(missing, "service credential ("+strings.Join(ServiceKeyEnv, ", ")+")")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, "; "))
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid provider URL %q: %w", cfg.URL, err)
	}
	return cfg, nil
}

// FirstEnv returns the first non-blank value among keys.
func FirstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
