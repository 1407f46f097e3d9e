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
	"gorm.io/gorm"

	cacheadapter "github.com/fixkg/backend/internal/adapters/cache"
	grpcadapter "github.com/fixkg/backend/internal/adapters/grpc"
	httpadapter "github.com/fixkg/backend/internal/adapters/http"
	"github.com/fixkg/backend/internal/adapters/notify"
	"github.com/fixkg/backend/internal/adapters/postgres"
	"github.com/fixkg/backend/internal/adapters/security"
	"github.com/fixkg/backend/internal/application"
	"github.com/fixkg/backend/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	httpLis    net.Listener
	grpcServer *grpc.Server
	grpcLis    net.Listener
	healthSrv  *health.Server
	hub        *notify.Hub
	cleanupFn  func(context.Context)
}

// NewRuntime loads configuration from configPath and wires every adapter.
func NewRuntime(ctx context.Context, configPath string, logger *slog.Logger) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newRuntime(ctx, cfg, logger)
}

func newRuntime(ctx context.Context, cfg Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("bootstrapping fixkg auth service", "service", cfg.ServiceID, "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := cacheadapter.NewRedisSessionStore(cfg.RedisURL)
	if err := store.Connect(ctx); err != nil {
		_ = postgres.Close(db)
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	closeStores := func() {
		_ = store.Close()
		_ = postgres.Close(db)
	}

	signer, err := newTokenSigner(cfg, logger)
	if err != nil {
		closeStores()
		return nil, fmt.Errorf("init jwt signer: %w", err)
	}

	email, err := newEmailStrategy(cfg, logger)
	if err != nil {
		closeStores()
		return nil, fmt.Errorf("init email strategy: %w", err)
	}

	hub := notify.NewHub()
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			AccessTokenTTL:   cfg.AccessTokenTTL,
			RefreshTokenTTL:  cfg.RefreshTokenTTL,
			RefreshRecordTTL: cfg.RefreshRecordTTL,
			OTPTTL:           cfg.OTPTTL,
			OTPLength:        cfg.OTPLength,
		},
		Users:  postgres.NewUserRepository(db),
		Hasher: security.NewBcryptHasher(cfg.BcryptCost),
		Store:  store,
		Signer: signer,
		Email:  email,
		Push:   notify.NewPushStrategy(hub),
	})

	handler := httpadapter.NewHandler(svc, hub, map[string]httpadapter.ReadinessCheck{
		"redis":    store.Ping,
		"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	})
	httpServer := &http.Server{
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewAuthInternalServer(svc))

	httpLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	if err != nil {
		closeStores()
		return nil, fmt.Errorf("listen HTTP: %w", err)
	}
	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = httpLis.Close()
		closeStores()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		httpLis:    httpLis,
		grpcServer: grpcServer,
		grpcLis:    grpcLis,
		healthSrv:  healthSrv,
		hub:        hub,
		cleanupFn: func(context.Context) {
			closeStores()
		},
	}, nil
}

func openDatabase(ctx context.Context, cfg Config) (*gorm.DB, error) {
	if postgres.IsSQLiteURL(cfg.DatabaseURL) {
		return postgres.OpenSQLite(ctx, cfg.DatabaseURL)
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = postgres.Close(db)
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func newTokenSigner(cfg Config, logger *slog.Logger) (*security.JWTSigner, error) {
	switch cfg.JWTAlgorithm {
	case "HS256":
		if cfg.JWTSecretKey != "" {
			return security.NewHMACSigner(cfg.JWTSecretKey)
		}
	case "RS256":
		if cfg.JWTPrivateKeyPEM != "" && cfg.JWTPublicKeyPEM != "" {
			signer, err := security.NewRSASigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
			if err == nil || !cfg.AllowEphemeralJWT {
				return signer, err
			}
			logger.Warn("configured RSA keys are unusable", "error", err)
		}
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", cfg.JWTAlgorithm)
	}
	if !cfg.AllowEphemeralJWT {
		return nil, errors.New("no signing material configured")
	}
	logger.Warn("using ephemeral JWT keys for local/dev runtime", "algorithm", "RS256")
	return security.NewEphemeralRSASigner(cfg.JWTKeyID)
}

func newEmailStrategy(cfg Config, logger *slog.Logger) (ports.NotificationStrategy, error) {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST is empty, verification codes will only be logged")
		return notify.NewLogEmailStrategy(logger), nil
	}
	strategy, err := notify.NewEmailStrategy(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		return nil, err
	}
	return strategy, nil
}

func (r *Runtime) HTTPAddr() string { return r.httpLis.Addr().String() }

func (r *Runtime) GRPCAddr() string { return r.grpcLis.Addr().String() }

// RunAPI serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either server fails, then drains both and closes the stores.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.HTTPAddr())
		if err := r.httpServer.Serve(r.httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.GRPCAddr())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.healthSrv.Shutdown()
	r.hub.Close()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	r.logger.Info("shutdown complete")
	return runErr
}
