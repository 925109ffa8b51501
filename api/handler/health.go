package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/internal/infrastructure/monitor"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
)

// StatusSource is satisfied by *monitor.Monitor.
type StatusSource interface {
	GetStatus() monitor.Status
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
	db      Pinger
}

func NewHealthHandler(mon StatusSource, db Pinger, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		db:          db,
	}
}

// @Summary Dependency status from the connection monitor
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"last_check": status.LastCheck,
		"services": map[string]interface{}{
			"postgresql": status.PostgreSQL,
			"redis":      status.Redis,
			"nats":       status.NATS,
			"buffer": map[string]interface{}{
				"online":  status.Buffer,
				"pending": status.Pending,
				"dead":    status.Dead,
			},
		},
	}

	if status.PostgreSQL && status.Redis {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}

// @Summary Readiness probe, pings Postgres directly
// @Tags health
// @Router /ready [get]
func (h *HealthHandler) Ready(ctx *fasthttp.RequestCtx) {
	if h.db == nil {
		h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("NOT_READY", "database not configured", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.db.Ping(stdCtx); err != nil {
		h.logger.Warn("readiness ping failed", zap.Error(err))
		h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("NOT_READY", "database unreachable", nil))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"status": "ready"})
}
