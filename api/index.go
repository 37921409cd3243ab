package handler

import (
	"net/http"
	"sync"

	"github.com/wadjakorntonsri/kind-letters/pkg/adapters/handler"
	"github.com/wadjakorntonsri/kind-letters/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/kind-letters/pkg/config"
	"github.com/wadjakorntonsri/kind-letters/pkg/core/services"
	"github.com/wadjakorntonsri/kind-letters/pkg/logger"
	"github.com/wadjakorntonsri/kind-letters/pkg/metrics"
)

var (
	once    sync.Once
	mux     http.Handler
	initErr error
)

// setup runs on the first request of a warm instance. On Vercel a local
// SQLite file is ephemeral, so DATABASE_URL should point at Turso.
func setup() {
	cfg := config.Load()
	opts := cfg.LoggerOptions()
	opts.Development = false
	log := logger.MustNew(opts)

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL, cfg.DatabaseAuthToken)
	if err != nil {
		initErr = err
		return
	}

	m := metrics.New()
	mux = handler.NewRouter(cfg, handler.Dependencies{
		Letters:  services.NewLetterService(repo, m, log),
		Visitors: services.NewVisitorService(repo, m, log),
		Health:   repo,
		Metrics:  m,
		Logger:   log,
	})
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
		return
	}
	mux.ServeHTTP(w, r)
}
