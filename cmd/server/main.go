package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/tayseer-service/internal/config"
	"github.com/maxviazov/tayseer-service/internal/handler"
	"github.com/maxviazov/tayseer-service/internal/logger"
	"github.com/maxviazov/tayseer-service/internal/middleware"
	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/service"
)

func main() {
	// Load application config
	cfgPath := "config.yaml"
	if p := os.Getenv("APP_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger; the app env drives logger defaults unless the logger section overrides it
	if cfg.Logger.Env == "" {
		cfg.Logger.Env = loggerEnv(cfg.App.Env)
	}
	if cfg.Logger.ServiceVersion == "" {
		cfg.Logger.ServiceVersion = cfg.App.Version
	}
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("service stopped with error")
	}
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer st.Close()

	svcs := service.New(st.stores, appLogger)
	if err := maybeSeed(ctx, cfg, svcs, appLogger); err != nil {
		return err
	}

	if cfg.Logger.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := handler.RouterOptions{RequestTimeout: time.Duration(cfg.App.RequestTimeout) * time.Second}
	if st.redis != nil && cfg.Redis.RateLimit > 0 {
		opts.RateLimit = middleware.RateLimit(st.redis, cfg.Redis.RateLimit, time.Duration(cfg.Redis.RateWindow)*time.Second, appLogger)
	}
	router := handler.NewRouter(appLogger, opts, st.checks, svcs)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.App.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.App.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.App.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("driver", cfg.Storage.Driver).Bool("cache", st.redis != nil).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	appLogger.Info().Msg("✅ Service stopped")
	return nil
}

// loggerEnv maps deployment names onto the three logger profiles.
func loggerEnv(appEnv string) string {
	switch appEnv {
	case "dev", "development", "local", "test":
		return "dev"
	case "staging", "stage":
		return "staging"
	default:
		return "prod"
	}
}

// maybeSeed loads demo data when asked to, and only into an empty customer table
// so restarts against a persistent store stay idempotent.
func maybeSeed(ctx context.Context, cfg *config.Config, svcs *service.Services, l zerolog.Logger) error {
	if !cfg.Storage.Seed {
		return nil
	}
	existing, err := svcs.Customers.List(ctx, query.Query{Page: 1, Limit: 1})
	if err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if existing.Total > 0 {
		l.Info().Int("customers", existing.Total).Msg("seed skipped, data present")
		return nil
	}
	if err := service.Seed(ctx, svcs); err != nil {
		return err
	}
	l.Info().Msg("demo data seeded")
	return nil
}
