package service_test

import (
	"context"
	"testing"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/service"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"go.uber.org/zap"
)

func TestSensorCreate_Defaults(t *testing.T) {
	mem := store.NewMemory()
	svc := service.NewSensorService(mem, zap.NewNop())

	sensor, err := svc.Create(context.Background(), service.SensorCreate{
		Name:       "Sensor-OHT-01",
		Location:   "block A rooftop",
		DeviceType: db.DeviceOverheadTank,
	})
	if err != nil {
		t.Fatalf("Expected successful create, got %v", err)
	}
	if sensor.ID == "" {
		t.Error("Expected a generated sensor ID")
	}
	if sensor.Status != db.StatusActive {
		t.Errorf("Expected new sensor to be active, got %s", sensor.Status)
	}

	got, err := svc.Get(context.Background(), sensor.ID)
	if err != nil {
		t.Fatalf("Expected sensor to be retrievable, got %v", err)
	}
	if got.Name != "Sensor-OHT-01" {
		t.Errorf("Expected stored name to round-trip, got %s", got.Name)
	}
}

func TestSensorCreate_RequiredFields(t *testing.T) {
	mem := store.NewMemory()
	svc := service.NewSensorService(mem, zap.NewNop())

	cases := []struct {
		name  string
		input service.SensorCreate
	}{
		{"missing name", service.SensorCreate{Location: "basement", DeviceType: db.DeviceUndergroundTank}},
		{"missing location", service.SensorCreate{Name: "Sensor-UGT-01", DeviceType: db.DeviceUndergroundTank}},
		{"missing device type", service.SensorCreate{Name: "Sensor-UGT-01", Location: "basement"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			if !apperr.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestSensorGet_UnknownID(t *testing.T) {
	mem := store.NewMemory()
	svc := service.NewSensorService(mem, zap.NewNop())

	_, err := svc.Get(context.Background(), "no-such-sensor")
	if !apperr.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestSensorUpdateStatus(t *testing.T) {
	mem := store.NewMemory()
	svc := service.NewSensorService(mem, zap.NewNop())
	sensorID := seedSensor(t, mem)

	if err := svc.UpdateStatus(context.Background(), sensorID, db.StatusError); err != nil {
		t.Fatalf("Expected status update to succeed, got %v", err)
	}
	got, err := svc.Get(context.Background(), sensorID)
	if err != nil {
		t.Fatalf("Failed to read back sensor: %v", err)
	}
	if got.Status != db.StatusError {
		t.Errorf("Expected status error, got %s", got.Status)
	}

	if err := svc.UpdateStatus(context.Background(), sensorID, "melted"); !apperr.IsValidation(err) {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}
}

func TestSensorDelete_SoftDeletes(t *testing.T) {
	mem := store.NewMemory()
	svc := service.NewSensorService(mem, zap.NewNop())
	sensorID := seedSensor(t, mem)

	if err := svc.Delete(context.Background(), sensorID); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	got, err := svc.Get(context.Background(), sensorID)
	if err != nil {
		t.Fatalf("Expected soft-deleted sensor to remain readable, got %v", err)
	}
	if got.Status != db.StatusDeleted {
		t.Errorf("Expected status deleted, got %s", got.Status)
	}
}
