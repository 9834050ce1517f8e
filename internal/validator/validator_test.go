package validator_test

import (
	"testing"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/validator"
)

func TestValidateMeasurements(t *testing.T) {
	v := validator.NewValidator(10)

	cases := []struct {
		name      string
		ph        float64
		tds       float64
		turbidity float64
		valid     bool
	}{
		{"typical reading", 7.2, 220, 1.5, true},
		{"ph at lower bound", 0, 100, 1, true},
		{"ph at upper bound", 14, 100, 1, true},
		{"ph below range", -0.1, 100, 1, false},
		{"ph above range", 14.1, 100, 1, false},
		{"negative tds", 7.0, -1, 1, false},
		{"negative turbidity", 7.0, 100, -0.5, false},
		{"zero tds and turbidity", 7.0, 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := v.ValidateMeasurements(tc.ph, tc.tds, tc.turbidity)
			if result.IsValid != tc.valid {
				t.Errorf("Expected valid=%v, got %v (reason: %s)", tc.valid, result.IsValid, result.Reason)
			}
			if !tc.valid && result.Reason == "" {
				t.Error("Expected a reason for rejected measurements")
			}
		})
	}
}

func TestValidateTimestamp(t *testing.T) {
	v := validator.NewValidator(10)
	receivedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if result := v.ValidateTimestamp(receivedAt.Add(-5*time.Minute), receivedAt); !result.IsValid {
		t.Errorf("Expected timestamp within tolerance to pass, got: %s", result.Reason)
	}
	if result := v.ValidateTimestamp(receivedAt.Add(10*time.Minute), receivedAt); !result.IsValid {
		t.Errorf("Expected timestamp at tolerance boundary to pass, got: %s", result.Reason)
	}
	if result := v.ValidateTimestamp(receivedAt.Add(-11*time.Minute), receivedAt); result.IsValid {
		t.Error("Expected stale timestamp to be rejected")
	}
	if result := v.ValidateTimestamp(receivedAt.Add(11*time.Minute), receivedAt); result.IsValid {
		t.Error("Expected future timestamp to be rejected")
	}
}

func TestValidateWindowHours(t *testing.T) {
	for _, hours := range []int{1, 24, 720} {
		if err := validator.ValidateWindowHours(hours); err != nil {
			t.Errorf("Expected %d hours to be accepted, got %v", hours, err)
		}
	}
	for _, hours := range []int{0, -5, 721} {
		err := validator.ValidateWindowHours(hours)
		if !apperr.IsValidation(err) {
			t.Errorf("Expected validation error for %d hours, got %v", hours, err)
		}
	}
}
