package service_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/service"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"go.uber.org/zap"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReadingStatistics_Aggregates(t *testing.T) {
	mem := store.NewMemory()
	sensorID := seedSensor(t, mem)
	now := time.Now()

	seedReading(t, mem, sensorID, 7.0, 200, 1.0, now.Add(-3*time.Hour))
	seedReading(t, mem, sensorID, 7.5, 250, 2.0, now.Add(-2*time.Hour))
	seedReading(t, mem, sensorID, 8.0, 300, 3.0, now.Add(-1*time.Hour))
	svc := service.NewStatsService(mem, 1000, zap.NewNop())

	stats, err := svc.ReadingStatistics(context.Background(), sensorID, 24)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if stats.ReadingCount != 3 {
		t.Errorf("Expected 3 readings, got %d", stats.ReadingCount)
	}
	if !almostEqual(stats.AvgPh, 7.5) {
		t.Errorf("Expected avg pH 7.5, got %f", stats.AvgPh)
	}
	if !almostEqual(stats.AvgTds, 250) {
		t.Errorf("Expected avg TDS 250, got %f", stats.AvgTds)
	}
	if !almostEqual(stats.AvgTurbidity, 2.0) {
		t.Errorf("Expected avg turbidity 2.0, got %f", stats.AvgTurbidity)
	}
	if stats.MinPh != 7.0 || stats.MaxPh != 8.0 {
		t.Errorf("Expected pH range [7.0, 8.0], got [%f, %f]", stats.MinPh, stats.MaxPh)
	}
	if stats.MinTds != 200 || stats.MaxTds != 300 {
		t.Errorf("Expected TDS range [200, 300], got [%f, %f]", stats.MinTds, stats.MaxTds)
	}
	if stats.MinTurbidity != 1.0 || stats.MaxTurbidity != 3.0 {
		t.Errorf("Expected turbidity range [1.0, 3.0], got [%f, %f]", stats.MinTurbidity, stats.MaxTurbidity)
	}
	if stats.AnomalyCount != 0 {
		t.Errorf("Expected 0 flagged readings, got %d", stats.AnomalyCount)
	}
}

func TestReadingStatistics_EmptyWindowFallbacks(t *testing.T) {
	mem := store.NewMemory()
	sensorID := seedSensor(t, mem)
	svc := service.NewStatsService(mem, 1000, zap.NewNop())

	stats, err := svc.ReadingStatistics(context.Background(), sensorID, 24)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if stats.ReadingCount != 0 {
		t.Errorf("Expected 0 readings, got %d", stats.ReadingCount)
	}
	if stats.MaxPh != 14 {
		t.Errorf("Expected pH maximum fallback of 14, got %f", stats.MaxPh)
	}
	if stats.MinPh != 0 || stats.MinTds != 0 || stats.MaxTds != 0 {
		t.Error("Expected remaining extremes to be zero for an empty window")
	}
}

func TestReadingStatistics_WindowFiltering(t *testing.T) {
	mem := store.NewMemory()
	sensorID := seedSensor(t, mem)
	now := time.Now()

	seedReading(t, mem, sensorID, 7.0, 200, 1.0, now.Add(-1*time.Hour))
	seedReading(t, mem, sensorID, 9.9, 900, 9.0, now.Add(-30*time.Hour))
	svc := service.NewStatsService(mem, 1000, zap.NewNop())

	stats, err := svc.ReadingStatistics(context.Background(), sensorID, 24)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.ReadingCount != 1 {
		t.Fatalf("Expected only the in-window reading, got %d", stats.ReadingCount)
	}
	if stats.MaxPh != 7.0 {
		t.Errorf("Expected the stale reading excluded from extremes, got max pH %f", stats.MaxPh)
	}
}

func TestReadingStatistics_CountsFlaggedReadings(t *testing.T) {
	mem := store.NewMemory()
	sensorID := seedSensor(t, mem)
	now := time.Now()

	readingID := seedReading(t, mem, sensorID, 7.0, 200, 1.0, now.Add(-1*time.Hour))
	seedReading(t, mem, sensorID, 7.2, 210, 1.1, now.Add(-2*time.Hour))
	if err := mem.AnnotateReading(context.Background(), sensorID, readingID, -0.3); err != nil {
		t.Fatalf("Failed to annotate: %v", err)
	}
	svc := service.NewStatsService(mem, 1000, zap.NewNop())

	stats, err := svc.ReadingStatistics(context.Background(), sensorID, 24)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.AnomalyCount != 1 {
		t.Errorf("Expected 1 flagged reading, got %d", stats.AnomalyCount)
	}
}

func TestReadingStatistics_InvalidWindowRejected(t *testing.T) {
	mem := store.NewMemory()
	sensorID := seedSensor(t, mem)
	svc := service.NewStatsService(mem, 1000, zap.NewNop())

	if _, err := svc.ReadingStatistics(context.Background(), sensorID, 0); err == nil {
		t.Error("Expected window validation error for 0 hours")
	}
	if _, err := svc.ReadingStatistics(context.Background(), sensorID, 721); err == nil {
		t.Error("Expected window validation error for 721 hours")
	}
}

func TestAllReadingStatistics_CoversEverySensor(t *testing.T) {
	mem := store.NewMemory()
	first := seedSensor(t, mem)
	second := seedSensor(t, mem)
	now := time.Now()
	seedReading(t, mem, first, 7.0, 200, 1.0, now.Add(-1*time.Hour))
	svc := service.NewStatsService(mem, 1000, zap.NewNop())

	all, err := svc.AllReadingStatistics(context.Background(), 24)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected stats for 2 sensors, got %d", len(all))
	}

	counts := make(map[string]int, len(all))
	for _, entry := range all {
		counts[entry.SensorID] = entry.Stats.ReadingCount
	}
	if counts[first] != 1 {
		t.Errorf("Expected 1 reading for the active sensor, got %d", counts[first])
	}
	if counts[second] != 0 {
		t.Errorf("Expected 0 readings for the idle sensor, got %d", counts[second])
	}
}
