package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/waste3d/learnhub/pkg/logging"
	"github.com/waste3d/learnhub/services/gateway/config"
	"github.com/waste3d/learnhub/services/gateway/internal/client"
	"github.com/waste3d/learnhub/services/gateway/internal/middleware"
	"github.com/waste3d/learnhub/services/gateway/internal/progress"
	"github.com/waste3d/learnhub/services/gateway/internal/render"
	"github.com/waste3d/learnhub/services/gateway/internal/session"
	handlers "github.com/waste3d/learnhub/services/gateway/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "gateway",
		Short:        "LearnHub gateway: sessions, course pages and lesson navigation",
		SilenceUsage: true,
		RunE:         run,
	}
	rootCmd.Flags().StringVar(&configPath, "config", ".", "directory containing app.env")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.Env, cfg.LogLevel, "gateway")

	if len(cfg.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to Redis", "addr", cfg.RedisAddr)

	health, err := client.NewHealthClient(cfg.CatalogGRPC)
	if err != nil {
		return fmt.Errorf("catalog health client: %w", err)
	}
	defer health.Close()

	rest := client.NewRest(cfg.CatalogURL, cfg.CatalogTimeout, cfg.CatalogRetries)
	sessions := session.NewStore(rdb, cfg.SessionTTL)
	tracker := progress.NewTracker(rdb, cfg.SessionTTL)
	cookies := middleware.NewSessionCookies(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Handlers{
		Auth:        handlers.NewAuthHandler(client.NewAuthClient(rest), sessions, tracker, cookies),
		Courses:     handlers.NewCourseHandler(rest, tracker, render.NewMarkdown()),
		Authoring:   handlers.NewAuthoringHandler(rest),
		Enrollments: handlers.NewEnrollmentHandler(rest),
		Health: handlers.NewHealthHandler(map[string]handlers.ReadinessChecker{
			"catalog": health,
			"redis":   redisPing{rdb},
		}),
	}, handlers.RouterDeps{
		Sessions: sessions,
		Cookies:  cookies,
		Limiter:  middleware.NewRateLimiter(rdb),
		Origins:  cfg.Origins(),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway is running", "addr", cfg.Port, "catalog", cfg.CatalogURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server stopped", "error", err)
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	return nil
}

type redisPing struct {
	client *redis.Client
}

func (p redisPing) Check(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
