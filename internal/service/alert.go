package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/notify"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"go.uber.org/zap"
)

// Water quality thresholds. Readings outside these bounds raise alerts.
const (
	PhSafeMin        = 6.5
	PhSafeMax        = 8.5
	TdsSafeMax       = 500.0
	TurbiditySafeMax = 5.0
)

// AlertService evaluates readings against thresholds, persists alerts
// and fans out notifications.
type AlertService struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(st store.Store, dispatcher *notify.Dispatcher, logger *zap.Logger) *AlertService {
	return &AlertService{
		store:      st,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Evaluate checks a reading against all rule families and returns one
// alert per violated family. Pure: no persistence, no notification.
func (s *AlertService) Evaluate(reading *db.WaterReading) []db.Alert {
	var alerts []db.Alert
	now := time.Now()

	newAlert := func(alertType, message, severity string) db.Alert {
		return db.Alert{
			SensorID:  reading.SensorID,
			AlertType: alertType,
			Message:   message,
			Severity:  severity,
			ReadingID: reading.ID,
			CreatedAt: now,
		}
	}

	if reading.PhLevel > PhSafeMax {
		alerts = append(alerts, newAlert(
			db.AlertPhHigh,
			fmt.Sprintf("High pH detected: %.2f (safe range: 6.5-8.5)", reading.PhLevel),
			db.SeverityHigh,
		))
	} else if reading.PhLevel < PhSafeMin {
		alerts = append(alerts, newAlert(
			db.AlertPhLow,
			fmt.Sprintf("Low pH detected: %.2f (safe range: 6.5-8.5)", reading.PhLevel),
			db.SeverityHigh,
		))
	}

	if reading.TdsLevel > TdsSafeMax {
		alerts = append(alerts, newAlert(
			db.AlertTdsHigh,
			fmt.Sprintf("High TDS detected: %.0f ppm (safe: <500 ppm)", reading.TdsLevel),
			db.SeverityHigh,
		))
	}

	if reading.Turbidity > TurbiditySafeMax {
		alerts = append(alerts, newAlert(
			db.AlertTurbidityHigh,
			fmt.Sprintf("High turbidity detected: %.2f NTU (safe: <5 NTU)", reading.Turbidity),
			db.SeverityMedium,
		))
	}

	if reading.IsAnomaly {
		alerts = append(alerts, newAlert(
			db.AlertAnomaly,
			fmt.Sprintf("Anomalous reading detected (score: %.3f)", reading.AnomalyScore),
			db.SeverityHigh,
		))
	}

	return alerts
}

// CheckAndCreate evaluates a reading, persists each resulting alert and
// dispatches notifications. A persistence failure skips notification
// for that alert but never blocks the remaining alerts.
func (s *AlertService) CheckAndCreate(ctx context.Context, reading *db.WaterReading) ([]db.Alert, error) {
	alerts := s.Evaluate(reading)
	if len(alerts) == 0 {
		return nil, nil
	}

	var lastErr error
	created := make([]db.Alert, 0, len(alerts))
	for _, alert := range alerts {
		alert.NotifiedVia = s.dispatcher.ChannelsFor(alert.Severity)

		id, err := s.store.SaveAlert(ctx, &alert)
		if err != nil {
			s.logger.Error("failed to save alert",
				zap.Error(err),
				zap.String("alert_type", alert.AlertType),
				zap.String("sensor_id", alert.SensorID),
			)
			lastErr = err
			continue
		}
		alert.ID = id

		attempted := s.dispatcher.Dispatch(ctx, &alert)
		alert.NotifiedVia = attempted

		s.logger.Info("alert raised",
			zap.String("alert_id", id),
			zap.String("alert_type", alert.AlertType),
			zap.String("severity", alert.Severity),
			zap.String("sensor_id", alert.SensorID),
			zap.Strings("notified_via", attempted),
		)

		created = append(created, alert)
	}

	return created, lastErr
}

// GetAlerts returns up to limit alerts, newest-first. A store read
// failure degrades to an empty list.
func (s *AlertService) GetAlerts(ctx context.Context, limit int) []db.Alert {
	alerts, err := s.store.GetAlerts(ctx, limit)
	if err != nil {
		s.logger.Warn("failed to get alerts, returning empty result", zap.Error(err))
		return nil
	}
	return alerts
}

// GetSensorAlerts returns up to limit alerts for one sensor
func (s *AlertService) GetSensorAlerts(ctx context.Context, sensorID string, limit int) []db.Alert {
	all := s.GetAlerts(ctx, limit*2)
	var filtered []db.Alert
	for _, a := range all {
		if a.SensorID == sensorID {
			filtered = append(filtered, a)
			if len(filtered) == limit {
				break
			}
		}
	}
	return filtered
}

// GetUnacknowledged returns up to limit alerts not yet acknowledged
func (s *AlertService) GetUnacknowledged(ctx context.Context, limit int) []db.Alert {
	all := s.GetAlerts(ctx, limit*2)
	var filtered []db.Alert
	for _, a := range all {
		if !a.IsAcknowledged {
			filtered = append(filtered, a)
			if len(filtered) == limit {
				break
			}
		}
	}
	return filtered
}

// Acknowledge marks an alert acknowledged. Idempotent: acknowledging an
// already-acknowledged alert succeeds without changing it.
func (s *AlertService) Acknowledge(ctx context.Context, alertID string) error {
	return s.store.AcknowledgeAlert(ctx, alertID, time.Now())
}
