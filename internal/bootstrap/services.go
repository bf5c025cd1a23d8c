package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/itm-kmutnb/classroom-api/config"
	"github.com/itm-kmutnb/classroom-api/internal/data"
	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	"github.com/itm-kmutnb/classroom-api/internal/observability/statsd"
	"github.com/itm-kmutnb/classroom-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	Allowlist     *service.AllowlistService
	Directory     *service.DirectoryService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	IdentityRepo  *data.IdentityRepo
	AllowlistRepo *data.AllowlistRepo
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "classroom",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB) *serviceRepositories {
	return &serviceRepositories{
		IdentityRepo:  data.NewIdentityRepo(db),
		AllowlistRepo: data.NewAllowlistRepo(db),
	}
}

// NewServices wires data adapters, observability, and business services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, fmt.Errorf("service dependencies and config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)
	repos := buildRepositories(deps.DB)

	classifier, err := domainauth.NewClassifier(
		deps.Config.Auth.OrgEmailPattern,
		deps.Config.Auth.StudentEmailPattern,
	)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build email classifier: %w", err)
	}

	var metrics statsd.Sink
	if observability.MetricsSink != nil {
		metrics = observability.MetricsSink
	}

	resolver := service.NewRoleResolver(service.RoleResolverOptions{
		Classifier: classifier,
		Identities: repos.IdentityRepo,
		Metrics:    metrics,
		Logger:     logger,
	})

	authService, err := BuildAuthService(AuthConfig{
		Auth:        deps.Config.Auth,
		RedisClient: deps.RedisClient,
		Resolver:    resolver,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	allowlistService := service.NewAllowlistService(service.AllowlistServiceOptions{
		Store:      repos.AllowlistRepo,
		Classifier: classifier,
		Logger:     logger,
	})

	return ServiceContainer{
		Auth:          authService,
		Allowlist:     allowlistService,
		Directory:     service.NewDirectoryService(repos.IdentityRepo),
		Observability: observability,
	}, nil
}
