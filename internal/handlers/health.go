// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockmirror/internal/core/ports"
	"github.com/ammerola/stockmirror/internal/pkg/config"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
	statusOffline   = "offline"
)

// HealthHandler handles health check endpoints. The mirror is the only hard
// dependency: with the database or redis down the API keeps serving from it.
type HealthHandler struct {
	db        ports.Database
	redis     *redis.Client
	asynq     *asynq.Inspector
	mirror    ports.MirrorStore
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. database, redisClient and
// asynqInspector may be nil when the service runs without them.
func NewHealthHandler(
	database ports.Database,
	redisClient *redis.Client,
	asynqInspector *asynq.Inspector,
	mirror ports.MirrorStore,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		asynq:     asynqInspector,
		mirror:    mirror,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// RegisterRoutes mounts the health endpoints on mux
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Readiness)
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion      string `json:"go_version"`
	NumGoroutines  int    `json:"num_goroutines"`
	NumCPU         int    `json:"num_cpu"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	MemorySysMB    uint64 `json:"memory_sys_mb"`
	GCPauseTotalMs uint64 `json:"gc_pause_total_ms"`
	NumGC          uint32 `json:"num_gc"`
}

// Health handles the /health endpoint
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      statusHealthy,
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo),
		System:      h.getSystemInfo(),
	}

	health.Services["mirror"] = h.checkMirror()
	if health.Services["mirror"].Status != statusHealthy {
		health.Status = statusUnhealthy
	}

	for name, check := range map[string]func(context.Context) ServiceInfo{
		"database": h.checkDatabase,
		"redis":    h.checkRedis,
		"asynq":    h.checkAsynq,
	} {
		info := check(ctx)
		health.Services[name] = info
		if info.Status != statusHealthy && health.Status == statusHealthy {
			health.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if health.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(health); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}

// Readiness handles the /ready endpoint. The service is ready once the
// mirror is loaded; remote and cache state is reported but not required.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := h.mirror != nil
	details := map[string]string{
		"mirror":   readiness(ready),
		"database": statusOffline,
		"redis":    statusOffline,
	}

	if h.db != nil {
		details["database"] = readiness(h.db.Ping(ctx) == nil)
	}
	if h.redis != nil {
		details["redis"] = readiness(h.redis.Ping(ctx).Err() == nil)
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

func readiness(ok bool) string {
	if ok {
		return "ready"
	}
	return "not ready"
}

// checkMirror reports the size of the local mirror
func (h *HealthHandler) checkMirror() ServiceInfo {
	if h.mirror == nil {
		return ServiceInfo{Status: statusUnhealthy, Message: "mirror not loaded"}
	}
	return ServiceInfo{
		Status:  statusHealthy,
		Details: map[string]interface{}{"items": h.mirror.Len()},
	}
}

// checkDatabase checks the health of the database connection
func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	if h.db == nil {
		return ServiceInfo{Status: statusOffline, Message: "serving from the local mirror"}
	}

	start := time.Now()
	info := ServiceInfo{
		Status:  statusHealthy,
		Details: make(map[string]interface{}),
	}

	if err := h.db.Ping(ctx); err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return info
	}

	for k, v := range h.db.Health(ctx) {
		info.Details[k] = v
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkRedis checks the health of the Redis connection
func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	if h.redis == nil {
		return ServiceInfo{Status: statusOffline, Message: "import history and audit queue disabled"}
	}

	start := time.Now()
	info := ServiceInfo{
		Status:  statusHealthy,
		Details: make(map[string]interface{}),
	}

	pong, err := h.redis.Ping(ctx).Result()
	if err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return info
	}

	info.Details["ping"] = pong

	poolStats := h.redis.PoolStats()
	info.Details["total_conns"] = poolStats.TotalConns
	info.Details["idle_conns"] = poolStats.IdleConns
	info.Details["stale_conns"] = poolStats.StaleConns

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkAsynq reports the audit queue backlog
func (h *HealthHandler) checkAsynq(ctx context.Context) ServiceInfo {
	if h.asynq == nil {
		return ServiceInfo{Status: statusOffline, Message: "audit events are logged only"}
	}

	start := time.Now()
	info := ServiceInfo{
		Status:  statusHealthy,
		Details: make(map[string]interface{}),
	}

	queues, err := h.asynq.Queues()
	if err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "asynq health check failed",
			slog.String("error", err.Error()))
		return info
	}

	queueStats := make(map[string]interface{})
	for _, queue := range queues {
		qInfo, err := h.asynq.GetQueueInfo(queue)
		if err == nil {
			queueStats[queue] = map[string]interface{}{
				"size":     qInfo.Size,
				"active":   qInfo.Active,
				"pending":  qInfo.Pending,
				"retry":    qInfo.Retry,
				"archived": qInfo.Archived,
			}
		}
	}
	info.Details["queues"] = queueStats

	if servers, err := h.asynq.Servers(); err == nil {
		info.Details["servers"] = len(servers)
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// getSystemInfo returns system-level information
func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		MemoryAllocMB:  memStats.Alloc / 1024 / 1024,
		MemorySysMB:    memStats.Sys / 1024 / 1024,
		GCPauseTotalMs: memStats.PauseTotalNs / 1000 / 1000,
		NumGC:          memStats.NumGC,
	}
}
