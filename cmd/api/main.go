package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mediahub/internal/access"
	"mediahub/internal/adapter/repo"
	"mediahub/internal/entitlement"
	"mediahub/internal/http/handlers"
	httpapi "mediahub/internal/http/httpapi"
	"mediahub/internal/identity"
	"mediahub/internal/infra"
	"mediahub/internal/infra/geoip"
	"mediahub/internal/infra/metrics"
	"mediahub/internal/middleware"
	"mediahub/internal/session"
)

func main() {
	infra.LoadDotEnv()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := infra.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger.With().Str("component", "sql").Logger())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	idLogger := logger.With().Str("component", "identity").Logger()
	provider, err := identity.NewClient(identity.Options{
		BaseURL:        cfg.Provider.URL,
		ServiceKey:     cfg.Provider.ServiceKey,
		AnonKey:        cfg.Provider.AnonKey,
		Logger:         &idLogger,
		Observer:       collector,
		RequestTimeout: cfg.ProviderTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build identity client")
	}

	var authn session.Authenticator
	switch {
	case cfg.JWTSecret != "":
		authn = session.NewJWTVerifier(cfg.JWTSecret, "authenticated")
	case cfg.JWKSURL != "":
		authn = session.NewJWKSVerifier(cfg.JWKSURL, "authenticated", nil)
	default:
		logger.Warn().Msg("no AUTH_JWT_SECRET or AUTH_JWKS_URL; validating sessions against the provider")
		authn = session.NewRemoteAuthenticator(provider)
	}

	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	if closer, ok := countries.(*geoip.Resolver); ok {
		defer closer.Close()
	}

	admin := access.NewAdminConfig(cfg.Admin.Emails, cfg.Admin.Roles, cfg.Admin.DashboardPath)
	app := handlers.NewApp(handlers.App{
		Logger:   logger,
		Resolver: entitlement.NewResolver(entitlement.NewRegistry()),
		Admin:    admin,
		Usage:    repo.NewUsageRepository(runner),
		Auth:     provider,
		Metrics:  collector,
		Cookies:  session.CookieOptions{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
	})

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMin)
	go loginLimiter.Run(ctx)

	router := httpapi.NewRouter(app, httpapi.Deps{
		Authenticator: authn,
		LoginLimiter:  loginLimiter,
		Gatherer:      registry,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		DefaultLocale: cfg.DefaultLocale,
		CountryLookup: geoip.Lookup(countries),
		TrustProxy:    cfg.TrustProxyHeaders,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Str("addr", server.Addr()).Str("dashboard", admin.DashboardPath).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
