package service

import (
	"context"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"go.uber.org/zap"
)

// SensorCreate holds the fields for registering a new sensor
type SensorCreate struct {
	Name       string
	Location   string
	DeviceType string
	Latitude   *float64
	Longitude  *float64
}

var validStatuses = map[string]bool{
	db.StatusActive:   true,
	db.StatusInactive: true,
	db.StatusError:    true,
	db.StatusDeleted:  true,
}

// SensorService manages the sensor registry
type SensorService struct {
	store  store.Store
	logger *zap.Logger
}

// NewSensorService creates a new sensor service
func NewSensorService(st store.Store, logger *zap.Logger) *SensorService {
	return &SensorService{store: st, logger: logger}
}

// Create registers a new sensor with status active
func (s *SensorService) Create(ctx context.Context, in SensorCreate) (*db.Sensor, error) {
	if in.Name == "" {
		return nil, apperr.Validation("sensor name is required")
	}
	if in.Location == "" {
		return nil, apperr.Validation("sensor location is required")
	}
	if in.DeviceType == "" {
		return nil, apperr.Validation("sensor device_type is required")
	}

	sensor := &db.Sensor{
		Name:       in.Name,
		Location:   in.Location,
		DeviceType: in.DeviceType,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Status:     db.StatusActive,
		CreatedAt:  time.Now(),
	}

	id, err := s.store.CreateSensor(ctx, sensor)
	if err != nil {
		s.logger.Error("failed to create sensor", zap.Error(err), zap.String("name", in.Name))
		return nil, err
	}
	sensor.ID = id

	s.logger.Info("sensor registered",
		zap.String("sensor_id", id),
		zap.String("device_type", in.DeviceType),
		zap.String("location", in.Location),
	)

	return sensor, nil
}

// Get retrieves a sensor by ID
func (s *SensorService) Get(ctx context.Context, id string) (*db.Sensor, error) {
	return s.store.GetSensor(ctx, id)
}

// List retrieves all sensors. A store read failure degrades to an
// empty list.
func (s *SensorService) List(ctx context.Context) []db.Sensor {
	sensors, err := s.store.ListSensors(ctx)
	if err != nil {
		s.logger.Warn("failed to list sensors, returning empty result", zap.Error(err))
		return nil
	}
	return sensors
}

// UpdateStatus transitions a sensor to the given status
func (s *SensorService) UpdateStatus(ctx context.Context, id, status string) error {
	if !validStatuses[status] {
		return apperr.Validation("unknown sensor status %q", status)
	}
	return s.store.UpdateSensorStatus(ctx, id, status, time.Now())
}

// Delete soft-deletes a sensor; the record is kept with status deleted
func (s *SensorService) Delete(ctx context.Context, id string) error {
	return s.store.UpdateSensorStatus(ctx, id, db.StatusDeleted, time.Now())
}

// TouchLastReading records that a sensor just delivered a reading
func (s *SensorService) TouchLastReading(ctx context.Context, id string, at time.Time) error {
	return s.store.TouchSensorReading(ctx, id, at)
}
