package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	storage Pinger
	version string
	started time.Time
}

// NewHealthHandlers builds the health checks. cache and storage may be nil when
// the deployment runs without them.
func NewHealthHandlers(db, cache, storage Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		version: version,
		started: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services,omitempty"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Goroutines int               `json:"goroutines"`
}

// LivenessCheck reports that the process is running.
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthStatus
//	@Router		/health [get]
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status("alive"))
}

// ReadinessCheck fails while the database or the cache is unreachable.
// Object storage is reported but never blocks readiness.
//
//	@Summary	Readiness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthStatus
//	@Failure	503	{object}	HealthStatus
//	@Router		/health/ready [get]
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	health := h.status("ready")
	health.Services = map[string]string{}
	ready := true

	for name, dep := range map[string]Pinger{"database": h.db, "redis": h.cache} {
		if !check(ctx, dep, health.Services, name) {
			ready = false
		}
	}
	if !check(ctx, h.storage, health.Services, "storage") {
		health.Status = "degraded"
	}

	if !ready {
		health.Status = "not_ready"
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}

func (h *HealthHandlers) status(state string) *HealthStatus {
	return &HealthStatus{
		Status:     state,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}
}

// check records the dependency's state and reports whether it is usable.
// A nil dependency is disabled, which counts as usable.
func check(ctx context.Context, dep Pinger, services map[string]string, name string) bool {
	if dep == nil {
		services[name] = "disabled"
		return true
	}
	if err := dep.Ping(ctx); err != nil {
		services[name] = "unhealthy"
		return false
	}
	services[name] = "healthy"
	return true
}
