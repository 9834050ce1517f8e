package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/google/uuid"
)

// Memory is a mutex-guarded in-memory Store used by tests and local runs
// without a database. Ordering mirrors the Postgres implementation:
// newest-first by created_at, insertion order breaking ties.
type Memory struct {
	mu       sync.RWMutex
	sensors  map[string]*db.Sensor
	readings map[string][]*db.WaterReading
	alerts   []*db.Alert
	alertIdx map[string]*db.Alert
	seq      map[string]int
	nextSeq  int
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		sensors:  make(map[string]*db.Sensor),
		readings: make(map[string][]*db.WaterReading),
		alertIdx: make(map[string]*db.Alert),
		seq:      make(map[string]int),
	}
}

func (m *Memory) track(id string) {
	m.nextSeq++
	m.seq[id] = m.nextSeq
}

// CreateSensor stores a new sensor and returns its generated ID
func (m *Memory) CreateSensor(ctx context.Context, sensor *db.Sensor) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *sensor
	stored.ID = uuid.NewString()
	m.sensors[stored.ID] = &stored
	m.track(stored.ID)
	return stored.ID, nil
}

// GetSensor retrieves a sensor by ID
func (m *Memory) GetSensor(ctx context.Context, id string) (*db.Sensor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sensor, ok := m.sensors[id]
	if !ok {
		return nil, apperr.NotFound("sensor", id)
	}
	copied := *sensor
	return &copied, nil
}

// ListSensors retrieves all sensors, newest-first
func (m *Memory) ListSensors(ctx context.Context) ([]db.Sensor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sensors := make([]db.Sensor, 0, len(m.sensors))
	for _, s := range m.sensors {
		sensors = append(sensors, *s)
	}
	sort.Slice(sensors, func(i, j int) bool {
		if !sensors[i].CreatedAt.Equal(sensors[j].CreatedAt) {
			return sensors[i].CreatedAt.After(sensors[j].CreatedAt)
		}
		return m.seq[sensors[i].ID] > m.seq[sensors[j].ID]
	})
	return sensors, nil
}

// UpdateSensorStatus updates a sensor's status and updated_at timestamp
func (m *Memory) UpdateSensorStatus(ctx context.Context, id, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sensor, ok := m.sensors[id]
	if !ok {
		return apperr.NotFound("sensor", id)
	}
	sensor.Status = status
	updated := at
	sensor.UpdatedAt = &updated
	return nil
}

// TouchSensorReading updates a sensor's last_reading_at timestamp
func (m *Memory) TouchSensorReading(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sensor, ok := m.sensors[id]
	if !ok {
		return apperr.NotFound("sensor", id)
	}
	last := at
	sensor.LastReadingAt = &last
	return nil
}

// SaveReading stores a water reading and returns its generated ID
func (m *Memory) SaveReading(ctx context.Context, reading *db.WaterReading) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *reading
	stored.ID = uuid.NewString()
	m.readings[stored.SensorID] = append(m.readings[stored.SensorID], &stored)
	m.track(stored.ID)
	return stored.ID, nil
}

// GetReadings retrieves up to limit readings for a sensor, newest-first
func (m *Memory) GetReadings(ctx context.Context, sensorID string, limit int) ([]db.WaterReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.readings[sensorID]
	readings := make([]db.WaterReading, 0, len(stored))
	for _, r := range stored {
		readings = append(readings, *r)
	}
	sort.Slice(readings, func(i, j int) bool {
		if !readings[i].CreatedAt.Equal(readings[j].CreatedAt) {
			return readings[i].CreatedAt.After(readings[j].CreatedAt)
		}
		return m.seq[readings[i].ID] > m.seq[readings[j].ID]
	})
	if limit > 0 && len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}

// AnnotateReading backfills the anomaly flag and score on a stored reading
func (m *Memory) AnnotateReading(ctx context.Context, sensorID, readingID string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.readings[sensorID] {
		if r.ID == readingID {
			r.IsAnomaly = true
			r.AnomalyScore = score
			return nil
		}
	}
	return apperr.NotFound("reading", readingID)
}

// SaveAlert stores an alert and returns its generated ID
func (m *Memory) SaveAlert(ctx context.Context, alert *db.Alert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *alert
	stored.ID = uuid.NewString()
	stored.NotifiedVia = append([]string(nil), alert.NotifiedVia...)
	m.alerts = append(m.alerts, &stored)
	m.alertIdx[stored.ID] = &stored
	m.track(stored.ID)
	return stored.ID, nil
}

// GetAlerts retrieves up to limit alerts, newest-first
func (m *Memory) GetAlerts(ctx context.Context, limit int) ([]db.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]db.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		copied := *a
		copied.NotifiedVia = append([]string(nil), a.NotifiedVia...)
		alerts = append(alerts, copied)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		}
		return m.seq[alerts[i].ID] > m.seq[alerts[j].ID]
	})
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

// AcknowledgeAlert marks an alert acknowledged, keeping the first
// acknowledgment time on repeat calls
func (m *Memory) AcknowledgeAlert(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alertIdx[id]
	if !ok {
		return apperr.NotFound("alert", id)
	}
	if !alert.IsAcknowledged {
		alert.IsAcknowledged = true
		acked := at
		alert.AcknowledgedAt = &acked
	}
	return nil
}
