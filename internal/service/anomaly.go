package service

import (
	"context"
	"math"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/anomaly"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"github.com/aquaguard/water-quality-worker/internal/validator"
	"go.uber.org/zap"
)

// AnomalyStats summarizes detection results over a window
type AnomalyStats struct {
	TotalReadings       int
	AnomaliesDetected   int
	AnomalyPercentage   float64
	LastAnomalyTime     *time.Time
	AverageAnomalyScore float64
}

// SensorAnomalyStats pairs per-sensor anomaly statistics with identity
type SensorAnomalyStats struct {
	SensorID   string
	SensorName string
	Stats      AnomalyStats
}

// AnomalyService orchestrates windowed detection over stored readings
// and backfills anomaly annotations.
type AnomalyService struct {
	store      store.Store
	detector   *anomaly.Detector
	fetchLimit int
	logger     *zap.Logger
}

// NewAnomalyService creates a new anomaly service
func NewAnomalyService(st store.Store, detector *anomaly.Detector, fetchLimit int, logger *zap.Logger) *AnomalyService {
	return &AnomalyService{
		store:      st,
		detector:   detector,
		fetchLimit: fetchLimit,
		logger:     logger,
	}
}

// DetectAnomalies runs the outlier model over a sensor's trailing
// window and annotates flagged readings in place. Every invocation
// re-evaluates the full windowed set; with no new readings the result
// is identical across runs. Store read failures and model failures
// both degrade to an empty result.
func (s *AnomalyService) DetectAnomalies(ctx context.Context, sensorID string, hours int) ([]string, []anomaly.Detail, error) {
	if err := validator.ValidateWindowHours(hours); err != nil {
		return nil, nil, err
	}

	readings, err := s.store.GetReadings(ctx, sensorID, s.fetchLimit)
	if err != nil {
		s.logger.Warn("failed to fetch readings for detection, reporting no anomalies",
			zap.Error(err),
			zap.String("sensor_id", sensorID),
		)
		return nil, nil, nil
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	windowed := anomaly.FilterWindow(readings, cutoff)

	ids, details, err := s.detector.Detect(windowed)
	if err != nil {
		s.logger.Error("detection model failed, reporting no anomalies",
			zap.Error(err),
			zap.String("sensor_id", sensorID),
		)
		return nil, nil, nil
	}

	for _, d := range details {
		if err := s.store.AnnotateReading(ctx, sensorID, d.ReadingID, d.Score); err != nil {
			s.logger.Error("failed to annotate anomalous reading",
				zap.Error(err),
				zap.String("reading_id", d.ReadingID),
				zap.String("sensor_id", sensorID),
			)
		}
	}

	if len(ids) > 0 {
		s.logger.Info("anomalies detected",
			zap.String("sensor_id", sensorID),
			zap.Int("window_hours", hours),
			zap.Int("window_size", len(windowed)),
			zap.Int("anomalies", len(ids)),
		)
	}

	return ids, details, nil
}

// Statistics re-runs detection and derives summary statistics over the
// window. The total reading count is recomputed in an independent pass.
func (s *AnomalyService) Statistics(ctx context.Context, sensorID string, hours int) (*AnomalyStats, error) {
	ids, details, err := s.DetectAnomalies(ctx, sensorID, hours)
	if err != nil {
		return nil, err
	}

	readings, err := s.store.GetReadings(ctx, sensorID, s.fetchLimit)
	if err != nil {
		s.logger.Warn("failed to fetch readings for anomaly statistics",
			zap.Error(err),
			zap.String("sensor_id", sensorID),
		)
		readings = nil
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	totalInRange := len(anomaly.FilterWindow(readings, cutoff))

	stats := &AnomalyStats{
		TotalReadings:     totalInRange,
		AnomaliesDetected: len(ids),
	}
	if totalInRange > 0 {
		stats.AnomalyPercentage = roundTo(float64(len(ids))/float64(totalInRange)*100, 2)
	}
	if len(details) > 0 {
		last := details[0].Timestamp
		stats.LastAnomalyTime = &last

		var sum float64
		for _, d := range details {
			sum += d.Score
		}
		stats.AverageAnomalyScore = roundTo(sum/float64(len(details)), 4)
	}

	return stats, nil
}

// AllStatistics computes anomaly statistics for every registered sensor
func (s *AnomalyService) AllStatistics(ctx context.Context, hours int) ([]SensorAnomalyStats, error) {
	if err := validator.ValidateWindowHours(hours); err != nil {
		return nil, err
	}

	sensors, err := s.store.ListSensors(ctx)
	if err != nil {
		s.logger.Warn("failed to list sensors for anomaly statistics", zap.Error(err))
		return nil, nil
	}

	all := make([]SensorAnomalyStats, 0, len(sensors))
	for _, sensor := range sensors {
		stats, err := s.Statistics(ctx, sensor.ID, hours)
		if err != nil {
			return nil, err
		}
		all = append(all, SensorAnomalyStats{
			SensorID:   sensor.ID,
			SensorName: sensor.Name,
			Stats:      *stats,
		})
	}
	return all, nil
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
