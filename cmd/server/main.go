package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/kind-letters/pkg/adapters/handler"
	"github.com/wadjakorntonsri/kind-letters/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/kind-letters/pkg/config"
	"github.com/wadjakorntonsri/kind-letters/pkg/core/services"
	"github.com/wadjakorntonsri/kind-letters/pkg/logger"
	"github.com/wadjakorntonsri/kind-letters/pkg/metrics"
)

func main() {
	cfg := config.Load()

	log := logger.MustNew(cfg.LoggerOptions())
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.IsProduction() && cfg.AdminPassword == config.DefaultAdminPassword {
		log.Warn("ADMIN_PASSWORD is the demo default; set it before exposing the admin API")
	}

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL, cfg.DatabaseAuthToken)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()
	log.Info("database ready")

	// Initialize Services
	m := metrics.New()
	letterService := services.NewLetterService(repo, m, log)
	visitorService := services.NewVisitorService(repo, m, log)

	// Initialize Router
	mux := handler.NewRouter(cfg, handler.Dependencies{
		Letters:  letterService,
		Visitors: visitorService,
		Health:   repo,
		Metrics:  m,
		Logger:   log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
