// Package store defines the persistence contract for sensors, readings
// and alerts, and ships a Postgres implementation plus an in-memory one
// used by tests and credential-less local runs.
package store

import (
	"context"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/db"
)

// Store is the persistence contract consumed by the services. All list
// operations return records ordered newest-first. Readings are immutable
// after creation except through AnnotateReading, which touches only the
// anomaly flag and score.
type Store interface {
	CreateSensor(ctx context.Context, sensor *db.Sensor) (string, error)
	GetSensor(ctx context.Context, id string) (*db.Sensor, error)
	ListSensors(ctx context.Context) ([]db.Sensor, error)
	UpdateSensorStatus(ctx context.Context, id, status string, at time.Time) error
	TouchSensorReading(ctx context.Context, id string, at time.Time) error

	SaveReading(ctx context.Context, reading *db.WaterReading) (string, error)
	GetReadings(ctx context.Context, sensorID string, limit int) ([]db.WaterReading, error)
	AnnotateReading(ctx context.Context, sensorID, readingID string, score float64) error

	SaveAlert(ctx context.Context, alert *db.Alert) (string, error)
	GetAlerts(ctx context.Context, limit int) ([]db.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string, at time.Time) error
}
