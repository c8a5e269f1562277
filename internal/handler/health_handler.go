package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pxbackup-system/cluster-orchestration/internal/constants"
)

// DependencyCheck pings a single external dependency.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	db     *gorm.DB
	checks []DependencyCheck
}

func NewHealthHandler(db *gorm.DB, checks ...DependencyCheck) *HealthHandler {
	return &HealthHandler{db: db, checks: checks}
}

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health handles GET /health. It reports the state of every registered
// dependency and returns 503 when any of them is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	overall := "healthy"
	deps := make(map[string]dependencyStatus, len(h.checks)+1)

	deps[constants.ServiceDatabase] = h.run(ctx, h.checkDatabase)
	for _, check := range h.checks {
		deps[check.Name] = h.run(ctx, check.Check)
	}
	for _, dep := range deps {
		if dep.Status != "up" {
			overall = "degraded"
		}
	}

	status := http.StatusOK
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. Readiness only requires the database; the
// service can admit requests while inventory or vault are flapping, those
// failures surface per request.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.checkDatabase(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) run(ctx context.Context, check func(ctx context.Context) error) dependencyStatus {
	start := time.Now()
	err := check(ctx)
	result := dependencyStatus{
		Status:    "up",
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = "down"
		result.Error = err.Error()
	}
	return result
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
