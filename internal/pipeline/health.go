package pipeline

import (
	"context"

	"slidecast/internal/stage"
)

// Health returns the readiness of every registered stage handler.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(m.lanes))
	for _, ln := range m.lanes {
		out = append(out, ln.handler.HealthCheck(ctx))
	}
	return out
}
