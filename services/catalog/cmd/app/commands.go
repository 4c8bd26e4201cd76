package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/waste3d/learnhub/pkg/logging"
	"github.com/waste3d/learnhub/services/catalog/config"
	"github.com/waste3d/learnhub/services/catalog/internal/application/usecase"
	"github.com/waste3d/learnhub/services/catalog/internal/domain"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/cache"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/repository"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/security"
	"github.com/waste3d/learnhub/services/catalog/internal/seed"
	grpc_server "github.com/waste3d/learnhub/services/catalog/internal/transport/grpc"
	handlers "github.com/waste3d/learnhub/services/catalog/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const healthInterval = 10 * time.Second

type deps struct {
	cfg    config.Config
	logger *slog.Logger
	db     *gorm.DB
	rdb    *redis.Client
}

func connect(ctx context.Context, withRedis bool) (*deps, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.Env, cfg.LogLevel, "catalog")

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to DB: %w", err)
	}

	d := &deps{cfg: cfg, logger: logger, db: db}
	if withRedis {
		d.rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := d.rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to Redis: %w", err)
		}
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)
	}
	return d, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Course{}, &domain.Module{}, &domain.Lesson{}, &domain.Enrollment{})
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	d, err := connect(cmd.Context(), false)
	if err != nil {
		return err
	}
	if err := migrate(d.db); err != nil {
		return fmt.Errorf("migrate DB: %w", err)
	}
	d.logger.Info("schema is up to date")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := connect(ctx, true)
	if err != nil {
		return err
	}
	defer d.rdb.Close()

	f, err := seed.Load(args[0])
	if err != nil {
		return err
	}
	if err := migrate(d.db); err != nil {
		return fmt.Errorf("migrate DB: %w", err)
	}
	if _, err := seed.Apply(ctx, d.db, security.NewPasswordHasher(), f); err != nil {
		return err
	}
	// Cached list pages predate the seed.
	return cache.NewCourseCache(d.rdb).InvalidateLists(ctx)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	d, err := connect(ctx, true)
	if err != nil {
		return err
	}
	defer d.rdb.Close()
	cfg, logger := d.cfg, d.logger

	if err := migrate(d.db); err != nil {
		return fmt.Errorf("migrate DB: %w", err)
	}
	if cfg.AccessSecret == "" {
		return errors.New("ACCESS_SECRET is required")
	}

	userRepo := repository.NewUserRepository(d.db)
	courseRepo := repository.NewCourseRepository(d.db, cache.NewCourseCache(d.rdb))
	enrollmentRepo := repository.NewEnrollmentRepository(d.db)

	authUseCase := usecase.NewAuthUseCase(userRepo, cache.NewTokenCache(d.rdb),
		security.NewPasswordHasher(), security.NewTokenManager(cfg.AccessSecret, cfg.TokenTTL))
	courseUseCase := usecase.NewCourseUseCase(courseRepo, enrollmentRepo)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.NewAuthHandler(authUseCase), handlers.NewCourseHandler(courseUseCase), authUseCase, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	grpcServer, reporter := grpc_server.NewServer(map[string]grpc_server.Probe{
		"postgres": sqlDB.PingContext,
		"redis":    func(ctx context.Context) error { return d.rdb.Ping(ctx).Err() },
	})
	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen gRPC: %w", err)
	}
	go reporter.Run(ctx, healthInterval)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC health server is running", "addr", cfg.GRPCPort)
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		logger.Info("catalog HTTP server is running", "addr", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server stopped", "error", err)
	}

	logger.Info("shutting down server...")
	reporter.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	return nil
}
