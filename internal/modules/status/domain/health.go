package domain

import (
	"fmt"
	"time"
)

// HealthReport describes the bot's current connection health.
type HealthReport struct {
	GatewayLatency time.Duration
	Uptime         time.Duration
}

// FormatLatency renders the gateway latency in whole milliseconds.
func (r *HealthReport) FormatLatency() string {
	return fmt.Sprintf("%dms", r.GatewayLatency.Milliseconds())
}

// FormatUptime renders the uptime as h/m/s, omitting leading zero units.
func (r *HealthReport) FormatUptime() string {
	total := int(r.Uptime.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
