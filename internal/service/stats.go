package service

import (
	"context"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"github.com/aquaguard/water-quality-worker/internal/validator"
	"go.uber.org/zap"
)

// ReadingStats summarizes raw readings over a window. This is a pure
// read-aggregate; it never invokes the outlier model.
type ReadingStats struct {
	SensorID     string
	ReadingCount int
	AvgPh        float64
	AvgTds       float64
	AvgTurbidity float64
	MinPh        float64
	MaxPh        float64
	MinTds       float64
	MaxTds       float64
	MinTurbidity float64
	MaxTurbidity float64
	AnomalyCount int
}

// SensorReadingStats pairs per-sensor reading statistics with identity
type SensorReadingStats struct {
	SensorID   string
	SensorName string
	Stats      ReadingStats
}

// StatsService computes windowed summaries over stored readings
type StatsService struct {
	store      store.Store
	fetchLimit int
	logger     *zap.Logger
}

// NewStatsService creates a new statistics service
func NewStatsService(st store.Store, fetchLimit int, logger *zap.Logger) *StatsService {
	return &StatsService{
		store:      st,
		fetchLimit: fetchLimit,
		logger:     logger,
	}
}

// ReadingStatistics computes count, averages, extremes and the count of
// readings already flagged anomalous over the trailing window. An empty
// window yields zero values, with the pH maximum falling back to 14.
func (s *StatsService) ReadingStatistics(ctx context.Context, sensorID string, hours int) (*ReadingStats, error) {
	if err := validator.ValidateWindowHours(hours); err != nil {
		return nil, err
	}

	readings, err := s.store.GetReadings(ctx, sensorID, s.fetchLimit)
	if err != nil {
		s.logger.Warn("failed to fetch readings for statistics",
			zap.Error(err),
			zap.String("sensor_id", sensorID),
		)
		readings = nil
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var windowed []db.WaterReading
	for _, r := range readings {
		if !r.CreatedAt.Before(cutoff) {
			windowed = append(windowed, r)
		}
	}

	stats := &ReadingStats{SensorID: sensorID}
	if len(windowed) == 0 {
		stats.MaxPh = 14
		return stats, nil
	}

	stats.ReadingCount = len(windowed)
	stats.MinPh, stats.MaxPh = windowed[0].PhLevel, windowed[0].PhLevel
	stats.MinTds, stats.MaxTds = windowed[0].TdsLevel, windowed[0].TdsLevel
	stats.MinTurbidity, stats.MaxTurbidity = windowed[0].Turbidity, windowed[0].Turbidity

	var sumPh, sumTds, sumTurbidity float64
	for _, r := range windowed {
		sumPh += r.PhLevel
		sumTds += r.TdsLevel
		sumTurbidity += r.Turbidity

		if r.PhLevel < stats.MinPh {
			stats.MinPh = r.PhLevel
		}
		if r.PhLevel > stats.MaxPh {
			stats.MaxPh = r.PhLevel
		}
		if r.TdsLevel < stats.MinTds {
			stats.MinTds = r.TdsLevel
		}
		if r.TdsLevel > stats.MaxTds {
			stats.MaxTds = r.TdsLevel
		}
		if r.Turbidity < stats.MinTurbidity {
			stats.MinTurbidity = r.Turbidity
		}
		if r.Turbidity > stats.MaxTurbidity {
			stats.MaxTurbidity = r.Turbidity
		}

		if r.IsAnomaly {
			stats.AnomalyCount++
		}
	}

	count := float64(len(windowed))
	stats.AvgPh = sumPh / count
	stats.AvgTds = sumTds / count
	stats.AvgTurbidity = sumTurbidity / count

	return stats, nil
}

// AllReadingStatistics computes reading statistics for every sensor
func (s *StatsService) AllReadingStatistics(ctx context.Context, hours int) ([]SensorReadingStats, error) {
	if err := validator.ValidateWindowHours(hours); err != nil {
		return nil, err
	}

	sensors, err := s.store.ListSensors(ctx)
	if err != nil {
		s.logger.Warn("failed to list sensors for statistics", zap.Error(err))
		return nil, nil
	}

	all := make([]SensorReadingStats, 0, len(sensors))
	for _, sensor := range sensors {
		stats, err := s.ReadingStatistics(ctx, sensor.ID, hours)
		if err != nil {
			return nil, err
		}
		all = append(all, SensorReadingStats{
			SensorID:   sensor.ID,
			SensorName: sensor.Name,
			Stats:      *stats,
		})
	}
	return all, nil
}
