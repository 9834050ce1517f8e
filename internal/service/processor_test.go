package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aquaguard/water-quality-worker/internal/config"
	"github.com/aquaguard/water-quality-worker/internal/service"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"github.com/aquaguard/water-quality-worker/internal/validator"
	"go.uber.org/zap"
)

func newTestProcessor(mem *store.Memory) *service.ProcessorService {
	dispatcher, _, _, _ := allChannelsDispatcher()
	readings := newTestReadingService(mem, dispatcher)
	v := validator.NewValidator(testTimestampToleranceMinutes)
	return service.NewProcessorService(readings, v, nil, &config.Config{}, zap.NewNop())
}

func TestProcessMessage_MalformedJSON(t *testing.T) {
	proc := newTestProcessor(store.NewMemory())

	if err := proc.ProcessMessage(context.Background(), []byte("not json")); err == nil {
		t.Error("Expected error for malformed message body")
	}
}

func TestProcessMessage_SkipsInvalidReadings(t *testing.T) {
	mem := store.NewMemory()
	sensorID := seedSensor(t, mem)
	proc := newTestProcessor(mem)

	// Unknown sensor and out-of-range pH are both skipped, not fatal.
	body := fmt.Sprintf(`{
		"request_id": "req-1",
		"device_id": "dev-1",
		"payload": {"readings": [
			{"sensor_id": "ghost", "ph_level": 7.0, "tds_level": 200, "turbidity": 1},
			{"sensor_id": "%s", "ph_level": 15.0, "tds_level": 200, "turbidity": 1}
		]}
	}`, sensorID)

	if err := proc.ProcessMessage(context.Background(), []byte(body)); err != nil {
		t.Fatalf("Expected invalid readings to be skipped, got %v", err)
	}

	readings, err := mem.GetReadings(context.Background(), sensorID, 10)
	if err != nil {
		t.Fatalf("GetReadings failed: %v", err)
	}
	if len(readings) != 0 {
		t.Errorf("Expected nothing persisted, got %d readings", len(readings))
	}
}

func TestProcessMessage_EmptyBatch(t *testing.T) {
	proc := newTestProcessor(store.NewMemory())

	body := `{"request_id": "req-2", "device_id": "dev-1", "payload": {"readings": []}}`
	if err := proc.ProcessMessage(context.Background(), []byte(body)); err != nil {
		t.Errorf("Expected empty batch to succeed, got %v", err)
	}
}
