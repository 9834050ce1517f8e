package store

import (
	"context"
	"errors"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// CreateSensor inserts a new sensor record and returns its generated ID
func (s *Postgres) CreateSensor(ctx context.Context, sensor *db.Sensor) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO sensors (
			id, name, location, device_type, latitude, longitude,
			status, created_at, last_reading_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		id,
		sensor.Name,
		sensor.Location,
		sensor.DeviceType,
		sensor.Latitude,
		sensor.Longitude,
		sensor.Status,
		sensor.CreatedAt,
		sensor.LastReadingAt,
	)
	if err != nil {
		return "", apperr.Store("create_sensor", err)
	}

	return id, nil
}

// GetSensor retrieves a sensor by ID
func (s *Postgres) GetSensor(ctx context.Context, id string) (*db.Sensor, error) {
	query := `
		SELECT id, name, location, device_type, latitude, longitude,
		       status, created_at, updated_at, last_reading_at
		FROM sensors
		WHERE id = $1
	`

	var sensor db.Sensor
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&sensor.ID,
		&sensor.Name,
		&sensor.Location,
		&sensor.DeviceType,
		&sensor.Latitude,
		&sensor.Longitude,
		&sensor.Status,
		&sensor.CreatedAt,
		&sensor.UpdatedAt,
		&sensor.LastReadingAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("sensor", id)
	}
	if err != nil {
		return nil, apperr.Store("get_sensor", err)
	}

	return &sensor, nil
}

// ListSensors retrieves all sensors, newest-first
func (s *Postgres) ListSensors(ctx context.Context) ([]db.Sensor, error) {
	query := `
		SELECT id, name, location, device_type, latitude, longitude,
		       status, created_at, updated_at, last_reading_at
		FROM sensors
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperr.Store("list_sensors", err)
	}
	defer rows.Close()

	var sensors []db.Sensor
	for rows.Next() {
		var sensor db.Sensor
		if err := rows.Scan(
			&sensor.ID,
			&sensor.Name,
			&sensor.Location,
			&sensor.DeviceType,
			&sensor.Latitude,
			&sensor.Longitude,
			&sensor.Status,
			&sensor.CreatedAt,
			&sensor.UpdatedAt,
			&sensor.LastReadingAt,
		); err != nil {
			return nil, apperr.Store("list_sensors", err)
		}
		sensors = append(sensors, sensor)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list_sensors", err)
	}

	return sensors, nil
}

// UpdateSensorStatus updates a sensor's status and updated_at timestamp
func (s *Postgres) UpdateSensorStatus(ctx context.Context, id, status string, at time.Time) error {
	query := `
		UPDATE sensors
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, status, at)
	if err != nil {
		return apperr.Store("update_sensor_status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("sensor", id)
	}

	return nil
}

// TouchSensorReading updates a sensor's last_reading_at timestamp
func (s *Postgres) TouchSensorReading(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE sensors
		SET last_reading_at = $2
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, at)
	if err != nil {
		return apperr.Store("touch_sensor_reading", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("sensor", id)
	}

	return nil
}

// SaveReading inserts a water reading and returns its generated ID
func (s *Postgres) SaveReading(ctx context.Context, reading *db.WaterReading) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO water_readings (
			id, sensor_id, ph_level, tds_level, turbidity, temperature,
			is_anomaly, anomaly_score, quality_status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		id,
		reading.SensorID,
		reading.PhLevel,
		reading.TdsLevel,
		reading.Turbidity,
		reading.Temperature,
		reading.IsAnomaly,
		reading.AnomalyScore,
		reading.QualityStatus,
		reading.CreatedAt,
	)
	if err != nil {
		return "", apperr.Store("save_reading", err)
	}

	return id, nil
}

// GetReadings retrieves up to limit readings for a sensor, newest-first
func (s *Postgres) GetReadings(ctx context.Context, sensorID string, limit int) ([]db.WaterReading, error) {
	query := `
		SELECT id, sensor_id, ph_level, tds_level, turbidity, temperature,
		       is_anomaly, anomaly_score, quality_status, created_at
		FROM water_readings
		WHERE sensor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, sensorID, limit)
	if err != nil {
		return nil, apperr.Store("get_readings", err)
	}
	defer rows.Close()

	var readings []db.WaterReading
	for rows.Next() {
		var r db.WaterReading
		if err := rows.Scan(
			&r.ID,
			&r.SensorID,
			&r.PhLevel,
			&r.TdsLevel,
			&r.Turbidity,
			&r.Temperature,
			&r.IsAnomaly,
			&r.AnomalyScore,
			&r.QualityStatus,
			&r.CreatedAt,
		); err != nil {
			return nil, apperr.Store("get_readings", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("get_readings", err)
	}

	return readings, nil
}

// AnnotateReading backfills the anomaly flag and score on a stored
// reading. No other reading field is ever updated.
func (s *Postgres) AnnotateReading(ctx context.Context, sensorID, readingID string, score float64) error {
	query := `
		UPDATE water_readings
		SET is_anomaly = TRUE, anomaly_score = $3
		WHERE sensor_id = $1 AND id = $2
	`

	tag, err := s.pool.Exec(ctx, query, sensorID, readingID, score)
	if err != nil {
		return apperr.Store("annotate_reading", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("reading", readingID)
	}

	return nil
}

// SaveAlert inserts an alert and returns its generated ID
func (s *Postgres) SaveAlert(ctx context.Context, alert *db.Alert) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO alerts (
			id, sensor_id, alert_type, message, severity, reading_id,
			is_acknowledged, acknowledged_at, notified_via, created_at
		)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		id,
		alert.SensorID,
		alert.AlertType,
		alert.Message,
		alert.Severity,
		alert.ReadingID,
		alert.IsAcknowledged,
		alert.AcknowledgedAt,
		alert.NotifiedVia,
		alert.CreatedAt,
	)
	if err != nil {
		return "", apperr.Store("save_alert", err)
	}

	return id, nil
}

// GetAlerts retrieves up to limit alerts, newest-first
func (s *Postgres) GetAlerts(ctx context.Context, limit int) ([]db.Alert, error) {
	query := `
		SELECT id, sensor_id, alert_type, message, severity,
		       COALESCE(reading_id, ''), is_acknowledged, acknowledged_at,
		       notified_via, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, apperr.Store("get_alerts", err)
	}
	defer rows.Close()

	var alerts []db.Alert
	for rows.Next() {
		var a db.Alert
		if err := rows.Scan(
			&a.ID,
			&a.SensorID,
			&a.AlertType,
			&a.Message,
			&a.Severity,
			&a.ReadingID,
			&a.IsAcknowledged,
			&a.AcknowledgedAt,
			&a.NotifiedVia,
			&a.CreatedAt,
		); err != nil {
			return nil, apperr.Store("get_alerts", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("get_alerts", err)
	}

	return alerts, nil
}

// AcknowledgeAlert marks an alert acknowledged. Acknowledgment is
// one-way and idempotent; the first acknowledgment time is kept.
func (s *Postgres) AcknowledgeAlert(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE alerts
		SET is_acknowledged = TRUE,
		    acknowledged_at = COALESCE(acknowledged_at, $2)
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, at)
	if err != nil {
		return apperr.Store("acknowledge_alert", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("alert", id)
	}

	return nil
}
