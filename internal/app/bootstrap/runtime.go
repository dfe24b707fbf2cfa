package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/adapters/events"
	httpadapter "github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/adapters/triggers"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	sweeper    *eventadapter.LockSweeper
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("bootstrapping m47 invoice validation service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	verifier, err := security.NewJWTVerifier(cfg.JWTKeyID, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init jwt verifier: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		verifier, err = security.NewEphemeralJWTVerifier(cfg.JWTKeyID)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init ephemeral jwt verifier: %w", err)
		}
	}

	cascadeTriggers := triggers.NewHTTPTriggers(triggers.Config{
		PreValidatorURL: cfg.PreValidatorURL,
		PricerURL:       cfg.PricerURL,
		RulesURL:        cfg.RulesURL,
		ExplanationURL:  cfg.ExplanationURL,
		Timeout:         cfg.TriggerTimeout,
	})

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			SnapshotTTL:    cfg.SnapshotTTL,
			CascadeTimeout: cfg.CascadeTimeout,
		},
		Logger:       logger,
		Items:        repos.LineItems,
		Outbox:       repos.Outbox,
		Cache:        cacheadapter.NewRedisStatusCache(redisClient),
		PreValidator: cascadeTriggers,
		Pricer:       cascadeTriggers,
		Rules:        cascadeTriggers,
		Explanations: cascadeTriggers,
	})

	handler := httpadapter.NewHandler(svc, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	var publisher ports.EventPublisher
	var closePublisher func()
	if cfg.AMQPURL != "" {
		amqpPublisher, err := eventadapter.NewAMQPPublisher(logger, cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		publisher = amqpPublisher
		closePublisher = func() { _ = amqpPublisher.Close() }
	} else {
		logger.Warn("AMQP_URL not set; transition events fall back to log publishing")
		publisher = eventadapter.NewLoggingPublisher(logger)
		closePublisher = func() {}
	}

	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		publisher,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxClaimTTL,
		cfg.OutboxMaxRetries,
	)
	sweeper := eventadapter.NewLockSweeper(logger, repos.LineItems, cfg.LockSweepInterval, cfg.LockSweepThreshold)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    svc,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		sweeper:    sweeper,
		cleanupFn: func(ctx context.Context) {
			closePublisher()
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	_ = r.service.DrainCascades(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("outbox worker started")
		errCh <- r.outbox.Run(ctx)
	}()
	go func() {
		r.logger.Info("lock sweeper started")
		errCh <- r.sweeper.Run(ctx)
	}()

	err := <-errCh
	stop()
	<-errCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
