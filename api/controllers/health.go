package controllers

import (
	"context"
	"net/http"

	"github.com/curbsideops/curbside-backend/api/responses"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// Pinger is any dependency that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness and readiness probes.
type HealthController struct {
	db    Pinger
	redis Pinger
	logg  *logger.Logger
}

// NewHealthController wires the health probes.
func NewHealthController(db, redis Pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: db, redis: redis, logg: logg}
}

// Live always succeeds while the process is up.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready verifies the backing stores.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok", "redis": "ok"}
	healthy := true

	if c.db == nil || c.db.Ping(r.Context()) != nil {
		checks["database"] = "unavailable"
		healthy = false
	}
	if c.redis == nil || c.redis.Ping(r.Context()) != nil {
		checks["redis"] = "unavailable"
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	responses.WriteSuccess(w, status, checks)
}
