package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rkohli77/canadian-rental-platform/pkg/response"

	"go.uber.org/zap"
)

// Health reports "ok" only when every dependency answers within two seconds.
func (h *RentalHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	response.JSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": results,
	})
}
