package handler

import (
	"context"
	"net/http"

	"github.com/saludvia/portal-server-go/internal/config"
	"github.com/saludvia/portal-server-go/internal/database"
	redisclient "github.com/saludvia/portal-server-go/internal/redis"
)

// HealthHandler reports service liveness and dependency reachability.
type HealthHandler struct {
	db    *database.DB
	redis *redisclient.Client
}

func NewHealthHandler(db *database.DB, redis *redisclient.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
	defer cancel()

	overall := "healthy"
	status := http.StatusOK
	checks := map[string]string{"database": "ok", "redis": "ok"}

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unreachable"
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
