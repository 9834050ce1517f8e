package service

import (
	"context"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"github.com/aquaguard/water-quality-worker/internal/validator"
	"go.uber.org/zap"
)

// ReadingInput holds an incoming measurement for ingestion
type ReadingInput struct {
	SensorID    string
	PhLevel     float64
	TdsLevel    float64
	Turbidity   float64
	Temperature *float64
	Timestamp   *time.Time
}

// ReadingService validates, classifies and persists readings
type ReadingService struct {
	store     store.Store
	validator *validator.Validator
	alerts    *AlertService
	logger    *zap.Logger
}

// NewReadingService creates a new reading service
func NewReadingService(st store.Store, v *validator.Validator, alerts *AlertService, logger *zap.Logger) *ReadingService {
	return &ReadingService{
		store:     st,
		validator: v,
		alerts:    alerts,
		logger:    logger,
	}
}

// ClassifyQuality computes the quality status of a reading from its
// measurements. Total and deterministic; most severe match wins.
func ClassifyQuality(ph, tds, turbidity float64) string {
	if ph < 6.5 || ph > 8.5 || tds > 500 || turbidity > 5 {
		return db.QualityPoor
	}
	if ph < 7.0 || ph > 8.0 || tds > 300 || turbidity > 2 {
		return db.QualityFair
	}
	return db.QualityGood
}

// Ingest validates and persists a reading, updates the owning sensor's
// liveness, and synchronously evaluates threshold alerts. Readings for
// unknown sensors are rejected.
func (s *ReadingService) Ingest(ctx context.Context, in ReadingInput) (*db.WaterReading, error) {
	if in.SensorID == "" {
		return nil, apperr.Validation("sensor_id is required")
	}
	if result := s.validator.ValidateMeasurements(in.PhLevel, in.TdsLevel, in.Turbidity); !result.IsValid {
		return nil, apperr.Validation("%s", result.Reason)
	}

	if _, err := s.store.GetSensor(ctx, in.SensorID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation("unknown sensor %q", in.SensorID)
		}
		return nil, err
	}

	createdAt := time.Now()
	if in.Timestamp != nil {
		createdAt = *in.Timestamp
	}

	reading := &db.WaterReading{
		SensorID:      in.SensorID,
		PhLevel:       in.PhLevel,
		TdsLevel:      in.TdsLevel,
		Turbidity:     in.Turbidity,
		Temperature:   in.Temperature,
		IsAnomaly:     false,
		AnomalyScore:  0,
		QualityStatus: ClassifyQuality(in.PhLevel, in.TdsLevel, in.Turbidity),
		CreatedAt:     createdAt,
	}

	id, err := s.store.SaveReading(ctx, reading)
	if err != nil {
		s.logger.Error("failed to save reading", zap.Error(err), zap.String("sensor_id", in.SensorID))
		return nil, err
	}
	reading.ID = id

	if err := s.store.TouchSensorReading(ctx, in.SensorID, time.Now()); err != nil {
		s.logger.Warn("failed to update sensor last_reading_at",
			zap.Error(err),
			zap.String("sensor_id", in.SensorID),
		)
	}

	if _, err := s.alerts.CheckAndCreate(ctx, reading); err != nil {
		s.logger.Warn("threshold alerting failed for reading",
			zap.Error(err),
			zap.String("reading_id", id),
			zap.String("sensor_id", in.SensorID),
		)
	}

	s.logger.Debug("reading ingested",
		zap.String("reading_id", id),
		zap.String("sensor_id", in.SensorID),
		zap.String("quality_status", reading.QualityStatus),
	)

	return reading, nil
}

// GetReadings returns up to limit readings for a sensor, newest-first.
// A store read failure degrades to an empty list.
func (s *ReadingService) GetReadings(ctx context.Context, sensorID string, limit int) []db.WaterReading {
	readings, err := s.store.GetReadings(ctx, sensorID, limit)
	if err != nil {
		s.logger.Warn("failed to get readings, returning empty result",
			zap.Error(err),
			zap.String("sensor_id", sensorID),
		)
		return nil
	}
	return readings
}

// GetReadingsByTimeRange returns the readings within the trailing window
func (s *ReadingService) GetReadingsByTimeRange(ctx context.Context, sensorID string, hours int, limit int) ([]db.WaterReading, error) {
	if err := validator.ValidateWindowHours(hours); err != nil {
		return nil, err
	}

	readings := s.GetReadings(ctx, sensorID, limit)
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	var windowed []db.WaterReading
	for _, r := range readings {
		if !r.CreatedAt.Before(cutoff) {
			windowed = append(windowed, r)
		}
	}
	return windowed, nil
}
