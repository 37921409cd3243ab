package handler

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/kind-letters/pkg/config"
	"github.com/wadjakorntonsri/kind-letters/pkg/metrics"
	"github.com/wadjakorntonsri/kind-letters/pkg/ports"
)

// Dependencies are the collaborators the router wires together
type Dependencies struct {
	Letters  ports.LetterService
	Visitors ports.VisitorService
	Health   ports.HealthChecker
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	// Initialize Handlers
	h := NewHTTPHandler(deps.Letters, deps.Visitors, deps.Health, logger)
	ah := NewAdminHandler(deps.Letters, m, logger)
	authHandler := NewAuthHandler(cfg, logger)
	health := NewHealthHandler(deps.Health)

	// Initialize Middleware
	mw := NewMiddleware(cfg, logger, m)
	limiter := NewRateLimiter(cfg.SubmitRatePerMinute, cfg.SubmitBurst, cfg.TrustProxy, m)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/letters/approved", h.ListApproved)
	mux.Handle("POST /api/letters/pending", limiter.Limit("submit", http.HandlerFunc(h.Submit)))
	// Visits are an idempotent upsert and are not limited.
	mux.HandleFunc("POST /api/visitors/record", h.RecordVisit)

	mux.Handle("POST /api/admin/login", limiter.Limit("login", http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/admin/logout", authHandler.Logout)
	if cfg.GoogleLoginEnabled() {
		mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
		mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	}

	mux.HandleFunc("GET /livez", health.LiveEndpoint)
	mux.HandleFunc("GET /readyz", health.ReadyEndpoint)
	mux.Handle("GET /metrics", m.Handler())

	// Moderator Routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/admin/stats", ah.Stats)
	adminMux.HandleFunc("GET /api/admin/pending", ah.ListPending)
	adminMux.HandleFunc("POST /api/admin/approve/{id}", ah.Approve)
	adminMux.HandleFunc("DELETE /api/admin/pending/{id}", ah.Reject)

	// Login and logout above are more specific than this prefix and stay public.
	mux.Handle("/api/admin/", mw.AuthMiddleware(adminMux))

	var handler http.Handler = mux
	if len(cfg.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			AllowCredentials: true,
		}).Handler(handler)
	}

	return mw.RequestLogger(mw.Recover(handler))
}
