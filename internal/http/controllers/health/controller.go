// Package health contiene los endpoints de liveness y readiness.
package health

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/dropDatabas3/authgate/internal/http/errors"
)

// Pinger es cualquier dependencia que sepa reportar su salud.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller expone /healthz y /readyz.
type Controller struct {
	store Pinger
	cache Pinger
}

// NewController crea el health controller.
func NewController(store, cache Pinger) *Controller {
	return &Controller{store: store, cache: cache}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz maneja GET /healthz — liveness, siempre 200 si el proceso vive.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Readyz maneja GET /readyz — verifica storage y cache con timeout corto.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			checks["storage"] = err.Error()
			ready = false
		} else {
			checks["storage"] = "ok"
		}
	}
	if c.cache != nil {
		if err := c.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			ready = false
		} else {
			checks["cache"] = "ok"
		}
	}

	if !ready {
		httperrors.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Checks: checks})
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Checks: checks})
}
