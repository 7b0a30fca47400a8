package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/config"
	"github.com/rkohli77/canadian-rental-platform/internal/handler"
	"github.com/rkohli77/canadian-rental-platform/internal/identity"
	"github.com/rkohli77/canadian-rental-platform/internal/repository"
	"github.com/rkohli77/canadian-rental-platform/internal/router"
	"github.com/rkohli77/canadian-rental-platform/internal/usecase"
	"github.com/rkohli77/canadian-rental-platform/pkg/cache"
	"github.com/rkohli77/canadian-rental-platform/pkg/jwtutil"
	"github.com/rkohli77/canadian-rental-platform/pkg/kafka"
	"github.com/rkohli77/canadian-rental-platform/pkg/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// Server owns every long-lived resource of the rental API.
type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	db       *pgxpool.Pool
	cache    *cache.Cache
	producer *kafka.OrphanProducer
	consumer *kafka.OrphanConsumer
	dlq      *kafka.DLQConsumer
	http     *http.Server
}

func NewServer(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	db, err := config.ConnectDB(ctx, logger)
	if err != nil {
		return nil, err
	}
	s.db = db
	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			s.closeResources()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema migrated")
	}

	s.cache = cache.NewCache([]string{cfg.RedisAddr}, cfg.RedisPass, false)
	m := metrics.New(prometheus.DefaultRegisterer)

	idp, err := newIdentityProvider(cfg.Identity, db, s.cache, logger)
	if err != nil {
		s.closeResources()
		return nil, err
	}

	profileRepo := repository.NewProfileRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)

	var orphans usecase.OrphanRecorder
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewOrphanProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			s.closeResources()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		s.producer = producer
		orphans = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set; orphaned accounts are only logged")
	}

	provisioner := usecase.NewProvisioner(idp, profileRepo, orphans, m, logger, usecase.ProvisionerConfig{
		SiteOrigin:           cfg.SiteOrigin,
		CompensationAttempts: cfg.CompensationAttempts,
		CompensationBackoff:  cfg.CompensationBackoff,
	})
	sessions := usecase.NewSessionUsecase(idp, profileRepo, s.cache, logger)
	properties := usecase.NewPropertyUsecase(propertyRepo, logger)

	if s.producer != nil {
		reconciler := usecase.NewReconciler(idp, profileRepo, m, logger)
		if s.consumer, err = kafka.NewOrphanConsumer(cfg.KafkaBrokers, kafka.ReconcilerGroupID, reconciler, s.producer, logger); err != nil {
			s.closeResources()
			return nil, fmt.Errorf("orphan consumer: %w", err)
		}
		if s.dlq, err = kafka.NewDLQConsumer(cfg.KafkaBrokers, kafka.ReconcilerGroupID+"-dlq", reconciler, s.producer, logger); err != nil {
			s.closeResources()
			return nil, fmt.Errorf("dlq consumer: %w", err)
		}
	}

	checks := map[string]handler.HealthCheck{
		"postgres": db.Ping,
		"redis":    s.cache.Ping,
	}
	h := handler.NewRentalHandler(provisioner, sessions, properties, checks, logger)

	r := router.SetupRoutes(chi.NewRouter(), h, sessions, router.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Redis:          s.cache.Client(),
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		Logger:         logger,
	})

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logger.Info("server configured",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("identity_provider", cfg.Identity.Provider),
		zap.String("site_origin", cfg.SiteOrigin),
		zap.Bool("kafka", s.producer != nil))
	return s, nil
}

// newIdentityProvider selects the account backend named by IDENTITY_PROVIDER.
func newIdentityProvider(cfg config.IdentityConfig, db *pgxpool.Pool, c *cache.Cache, logger *zap.Logger) (usecase.IdentityProvider, error) {
	var idp usecase.IdentityProvider
	switch cfg.Provider {
	case "gotrue", "supabase":
		if cfg.SupabaseURL == "" || cfg.AnonKey == "" {
			return nil, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required for the gotrue identity provider")
		}
		if cfg.ServiceRoleKey == "" {
			logger.Warn("SUPABASE_SERVICE_ROLE_KEY not set; compensating deletes will fail")
		}
		idp = identity.NewGoTrue(identity.GoTrueConfig{
			URL:            cfg.SupabaseURL,
			AnonKey:        cfg.AnonKey,
			ServiceRoleKey: cfg.ServiceRoleKey,
		}, logger)
	case "local":
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required for the local identity provider")
		}
		secret := []byte(cfg.JWTSecret)
		idp = identity.NewLocal(
			repository.NewUserRepository(db),
			c,
			jwtutil.NewGenerator(secret, cfg.JWTIssuer, cfg.JWTTTL),
			jwtutil.NewVerifier(secret, cfg.JWTIssuer),
			logger,
		)
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
	return idp, nil
}

// Run serves HTTP and the Kafka consumers until ctx is cancelled, then shuts
// everything down.
func (s *Server) Run(ctx context.Context) error {
	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	if s.consumer != nil {
		go func() {
			s.logger.Info("starting orphan consumer")
			if err := s.consumer.Start(consumerCtx); err != nil {
				s.logger.Error("orphan consumer stopped", zap.Error(err))
			}
		}()
	}
	if s.dlq != nil {
		go func() {
			s.logger.Info("starting DLQ consumer")
			if err := s.dlq.Start(consumerCtx); err != nil {
				s.logger.Error("DLQ consumer stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		s.logger.Error("http server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
	stopConsumers()
	s.closeResources()
	s.logger.Info("graceful shutdown complete")
	return serveErr
}

func (s *Server) closeResources() {
	if s.consumer != nil {
		if err := s.consumer.Close(); err != nil {
			s.logger.Warn("close orphan consumer", zap.Error(err))
		}
	}
	if s.dlq != nil {
		if err := s.dlq.Close(); err != nil {
			s.logger.Warn("close DLQ consumer", zap.Error(err))
		}
	}
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("close redis", zap.Error(err))
		}
	}
	if s.db != nil {
		s.db.Close()
	}
}
