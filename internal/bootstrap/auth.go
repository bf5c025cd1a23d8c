package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/itm-kmutnb/classroom-api/config"
	"github.com/itm-kmutnb/classroom-api/internal/adapters/devauth"
	"github.com/itm-kmutnb/classroom-api/internal/adapters/oidc"
	redisadapter "github.com/itm-kmutnb/classroom-api/internal/adapters/redis"
	"github.com/itm-kmutnb/classroom-api/internal/observability/statsd"
	"github.com/itm-kmutnb/classroom-api/internal/ports"
	"github.com/itm-kmutnb/classroom-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// AuthConfig contains dependencies for building the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Resolver    *service.RoleResolver
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth service requires a redis client for session storage")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("auth service requires a role resolver")
	}

	// Redis session store is shared by both modes
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	provider, err := buildAuthProvider(cfg.Auth)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: sessionStore,
		Resolver: cfg.Resolver,
		Metrics:  cfg.Metrics,
		Logger:   cfg.Logger,
	}), nil
}

//nolint:ireturn // the provider interface hides the mode-specific implementation.
func buildAuthProvider(cfg config.AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			SubjectID:       cfg.DevAuth.SubjectID,
			Email:           cfg.DevAuth.Email,
			SessionDuration: cfg.DevAuth.SessionDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			return nil, fmt.Errorf(
				"oauth mode requires discovery URL, client id, and client secret (discovery_url_empty=%t client_id_empty=%t client_secret_empty=%t)",
				oauth.DiscoveryURL == "", oauth.ClientID == "", oauth.ClientSecret == "",
			)
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}
