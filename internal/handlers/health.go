package handlers

import (
	"context"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
)

type HealthHandler struct {
	store   Pinger
	backend string
}

func NewHealthHandler(store Pinger, backend string) *HealthHandler {
	return &HealthHandler{store: store, backend: backend}
}

func (h *HealthHandler) Check(c *drift.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		_ = c.JSON(503, map[string]string{"status": "unavailable", "database": h.backend})
		return
	}

	_ = c.JSON(200, map[string]string{"status": "ok", "database": h.backend})
}
