package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
)

// Pinger reports whether the entity store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	serviceName string
	store       Pinger
	log         logger.Logger
}

func NewHealth(serviceName string, store Pinger, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		store:       store,
		log:         log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the health status of the service and its store
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	status, code, store := "available", http.StatusOK, "ok"
	if a.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := a.store.Ping(pingCtx); err != nil {
			a.log.Warn(ctx, "store ping failed", "error", err.Error())
			status, code, store = "degraded", http.StatusServiceUnavailable, "unreachable"
		}
	}

	response := envelope{
		"status": status,
		"system_info": map[string]string{
			"service-name": a.serviceName,
			"store":        store,
		},
	}

	if err := writeJSON(w, code, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
	}
}
