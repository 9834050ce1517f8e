package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/notify"
	"github.com/aquaguard/water-quality-worker/internal/service"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"github.com/aquaguard/water-quality-worker/internal/validator"
	"go.uber.org/zap"
)

const testTimestampToleranceMinutes = 10080

type fakeNotifier struct {
	name  string
	fail  bool
	calls int
}

func (f *fakeNotifier) Name() string {
	return f.name
}

func (f *fakeNotifier) Notify(ctx context.Context, alert *db.Alert) error {
	f.calls++
	if f.fail {
		return errors.New("channel down")
	}
	return nil
}

func allChannelsDispatcher() (*notify.Dispatcher, *fakeNotifier, *fakeNotifier, *fakeNotifier) {
	sms := &fakeNotifier{name: db.ChannelSMS}
	email := &fakeNotifier{name: db.ChannelEmail}
	push := &fakeNotifier{name: db.ChannelPush}
	return notify.NewDispatcher(zap.NewNop(), sms, email, push), sms, email, push
}

func newTestReadingService(mem *store.Memory, dispatcher *notify.Dispatcher) *service.ReadingService {
	logger := zap.NewNop()
	alerts := service.NewAlertService(mem, dispatcher, logger)
	v := validator.NewValidator(testTimestampToleranceMinutes)
	return service.NewReadingService(mem, v, alerts, logger)
}

func seedSensor(t *testing.T, mem *store.Memory) string {
	t.Helper()

	id, err := mem.CreateSensor(context.Background(), &db.Sensor{
		Name:       "Sensor-TST-01",
		Location:   "rooftop tank",
		DeviceType: db.DeviceOverheadTank,
		Status:     db.StatusActive,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed sensor: %v", err)
	}
	return id
}

func seedReading(t *testing.T, mem *store.Memory, sensorID string, ph, tds, turbidity float64, at time.Time) string {
	t.Helper()

	id, err := mem.SaveReading(context.Background(), &db.WaterReading{
		SensorID:      sensorID,
		PhLevel:       ph,
		TdsLevel:      tds,
		Turbidity:     turbidity,
		QualityStatus: service.ClassifyQuality(ph, tds, turbidity),
		CreatedAt:     at,
	})
	if err != nil {
		t.Fatalf("failed to seed reading: %v", err)
	}
	return id
}
