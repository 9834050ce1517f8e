// Package notify models alert notification as a capability set: one
// Notifier per channel, each independently failable, composed by a
// Dispatcher that never lets a channel failure reach the caller.
package notify

import (
	"context"

	"github.com/aquaguard/water-quality-worker/internal/db"
	"go.uber.org/zap"
)

// Notifier delivers an alert over a single channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert *db.Alert) error
}

// Dispatcher fans an alert out over the configured channels. SMS is
// attempted only for high and critical severities; email and push are
// always attempted. Channel failures are logged and swallowed.
type Dispatcher struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher over the given notifiers
func NewDispatcher(logger *zap.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		logger:    logger,
	}
}

// ChannelsFor returns the channels that will be attempted for an alert
// of the given severity, in dispatch order.
func (d *Dispatcher) ChannelsFor(severity string) []string {
	var channels []string
	for _, n := range d.notifiers {
		if n.Name() == db.ChannelSMS && !smsEligible(severity) {
			continue
		}
		channels = append(channels, n.Name())
	}
	return channels
}

// Dispatch attempts delivery on every eligible channel and returns the
// channels attempted. A failing channel never blocks the others and is
// kept in the attempted set: this is an at-least-attempted guarantee,
// not at-least-delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *db.Alert) []string {
	var attempted []string
	for _, n := range d.notifiers {
		if n.Name() == db.ChannelSMS && !smsEligible(alert.Severity) {
			continue
		}
		attempted = append(attempted, n.Name())
		if err := n.Notify(ctx, alert); err != nil {
			d.logger.Error("notification channel failed",
				zap.Error(err),
				zap.String("channel", n.Name()),
				zap.String("alert_type", alert.AlertType),
				zap.String("sensor_id", alert.SensorID),
			)
		}
	}
	return attempted
}

func smsEligible(severity string) bool {
	return severity == db.SeverityHigh || severity == db.SeverityCritical
}
