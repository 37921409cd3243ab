package handler

import (
	"context"
	"time"

	"github.com/heptiolabs/healthcheck"

	"github.com/wadjakorntonsri/kind-letters/pkg/ports"
)

// NewHealthHandler builds the liveness and readiness probes. Readiness
// depends on the store answering a ping.
func NewHealthHandler(store ports.HealthChecker) healthcheck.Handler {
	health := healthcheck.NewHandler()

	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))

	health.AddReadinessCheck("database", healthcheck.Timeout(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(ctx)
	}, 3*time.Second))

	return health
}
