package application

import (
	"time"

	"github.com/altafio/muzebot/internal/modules/status/domain"
)

// LatencyFunc reports the current gateway heartbeat latency.
type LatencyFunc func() time.Duration

// HealthInteractor produces health reports for the status command.
type HealthInteractor struct {
	started time.Time
	latency LatencyFunc
}

// NewHealthInteractor creates a HealthInteractor that measures uptime
// from the moment it is constructed.
func NewHealthInteractor(latency LatencyFunc) *HealthInteractor {
	return &HealthInteractor{
		started: time.Now(),
		latency: latency,
	}
}

// Execute builds a snapshot of the bot's connection health.
func (h *HealthInteractor) Execute() *domain.HealthReport {
	return &domain.HealthReport{
		GatewayLatency: h.latency(),
		Uptime:         time.Since(h.started),
	}
}
