// Package app wires configuration into storage, services and the HTTP router.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/mediscan/mediscan-api/internal/config"
	authhandler "github.com/mediscan/mediscan-api/internal/handler/auth"
	guardianhandler "github.com/mediscan/mediscan-api/internal/handler/guardian"
	"github.com/mediscan/mediscan-api/internal/handler/health"
	medicationhandler "github.com/mediscan/mediscan-api/internal/handler/medication"
	pharmacyhandler "github.com/mediscan/mediscan-api/internal/handler/pharmacy"
	profilehandler "github.com/mediscan/mediscan-api/internal/handler/profile"
	promhandler "github.com/mediscan/mediscan-api/internal/handler/prometheus"
	symptomhandler "github.com/mediscan/mediscan-api/internal/handler/symptom"
	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/repository/memory"
	"github.com/mediscan/mediscan-api/internal/repository/postgres"
	"github.com/mediscan/mediscan-api/internal/router"
	"github.com/mediscan/mediscan-api/internal/service"
	"github.com/mediscan/mediscan-api/internal/service/account"
	"github.com/mediscan/mediscan-api/internal/service/event"
	"github.com/mediscan/mediscan-api/internal/service/guardian"
	"github.com/mediscan/mediscan-api/internal/service/medication"
	"github.com/mediscan/mediscan-api/internal/service/pharmacy"
	"github.com/mediscan/mediscan-api/internal/service/symptom"
	"github.com/mediscan/mediscan-api/pkg/auth"
	"github.com/mediscan/mediscan-api/pkg/logger"
	"github.com/mediscan/mediscan-api/pkg/messaging"
	redisbroker "github.com/mediscan/mediscan-api/pkg/messaging/redis"
	"github.com/mediscan/mediscan-api/pkg/metrics"
	"github.com/mediscan/mediscan-api/pkg/security"
)

// Store is an opened repository set plus its release function.
type Store struct {
	Repos *repository.Repositories
	Close func() error
}

// OpenStore connects the configured backend and, for postgres, applies the
// schema when auto_migrate is set.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	if cfg.Driver == "memory" {
		log.Warn("using in-memory store, data is lost on exit")
		return &Store{Repos: memory.NewRepositories(), Close: func() error { return nil }}, nil
	}

	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		log.Info("schema migrated")
	}
	return &Store{Repos: postgres.NewRepositories(db), Close: db.Close}, nil
}

// OpenBroker returns the redis broker, or a no-op broker when no URL is set.
func OpenBroker(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (messaging.Broker, error) {
	if cfg.URL == "" {
		log.Info("redis url not set, events are not published")
		return messaging.NopBroker{}, nil
	}
	return redisbroker.NewRedisBroker(ctx, redisbroker.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}, log.Zerolog())
}

// Services is the full domain service set.
type Services struct {
	Accounts    *account.Service
	Medications *medication.Service
	Symptoms    *symptom.Service
	Guardians   *guardian.Service
	Pharmacies  *pharmacy.Service
}

func NewServices(repos *repository.Repositories, hasher security.PasswordHasher, base service.Base) *Services {
	return &Services{
		Accounts:    account.NewService(repos, hasher, base),
		Medications: medication.NewService(repos, base),
		Symptoms:    symptom.NewService(repos, base),
		Guardians:   guardian.NewService(repos, base),
		Pharmacies:  pharmacy.NewService(repos, base),
	}
}

// Server bundles what cmd/api needs to serve and shut down.
type Server struct {
	Router   *router.Router
	Services *Services
	Registry *prometheus.Registry
}

// NewServer builds services, handlers and the router on top of an opened
// store and broker.
func NewServer(cfg *config.Config, store *Store, broker messaging.Broker, log *logger.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	publisher := event.NewPublisher(broker, cfg.Redis.ChannelPrefix, log, m)
	base := service.NewBase(log, m, publisher)
	services := NewServices(store.Repos, security.NewBcryptHasher(cfg.Security.BcryptCost), base)

	tokens := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	handlers := router.Handlers{
		Public: []router.Handler{
			authhandler.NewHandler(services.Accounts, tokens),
		},
		Protected: []router.Handler{
			profilehandler.NewHandler(services.Accounts),
			medicationhandler.NewHandler(services.Medications, services.Accounts),
			symptomhandler.NewHandler(services.Symptoms, services.Accounts),
			guardianhandler.NewHandler(services.Guardians, services.Accounts),
			pharmacyhandler.NewHandler(services.Pharmacies, services.Accounts),
		},
		Health: health.NewHandler(store.Repos.Health),
	}

	routerConfig := router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		RateClientTTL:    cfg.RateLimit.ClientTTL,
		CORSConfig:       middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins),
		RequestTimeout:   cfg.Server.WriteTimeout,
		MetricsPath:      cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		handlers.Metrics = promhandler.New(registry)
		routerConfig.Metrics = m
	}

	r := router.NewRouter(middleware.NewAuthMiddleware(tokens), handlers, routerConfig)
	r.Setup()

	return &Server{Router: r, Services: services, Registry: registry}
}
