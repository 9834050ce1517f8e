package validator

import (
	"fmt"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/tools/timeparser"
)

// Detection and statistics windows are bounded to [1, 720] hours.
const (
	MinWindowHours = 1
	MaxWindowHours = 720
)

// ValidationResult holds validation outcome
type ValidationResult struct {
	IsValid bool
	Reason  string
}

// Validator handles reading validation with configurable parameters
type Validator struct {
	timestampToleranceMinutes int
}

// NewValidator creates a new validator with the specified timestamp tolerance
func NewValidator(timestampToleranceMinutes int) *Validator {
	return &Validator{
		timestampToleranceMinutes: timestampToleranceMinutes,
	}
}

// ValidateMeasurements validates the raw measurement values of a reading.
func (v *Validator) ValidateMeasurements(ph, tds, turbidity float64) ValidationResult {
	if ph < 0 || ph > 14 {
		return ValidationResult{Reason: fmt.Sprintf("ph_level %.2f outside range [0, 14]", ph)}
	}
	if tds < 0 {
		return ValidationResult{Reason: fmt.Sprintf("tds_level %.2f must be non-negative", tds)}
	}
	if turbidity < 0 {
		return ValidationResult{Reason: fmt.Sprintf("turbidity %.2f must be non-negative", turbidity)}
	}
	return ValidationResult{IsValid: true}
}

// ValidateTimestamp checks a device-supplied timestamp against the
// tolerance window around the server receive time.
func (v *Validator) ValidateTimestamp(readingTime, receivedAt time.Time) ValidationResult {
	if !timeparser.IsWithinTolerance(readingTime, receivedAt, v.timestampToleranceMinutes) {
		return ValidationResult{
			Reason: fmt.Sprintf("timestamp outside tolerance window (±%d minutes)", v.timestampToleranceMinutes),
		}
	}
	return ValidationResult{IsValid: true}
}

// ValidateWindowHours validates a lookback window for detection and statistics.
func ValidateWindowHours(hours int) error {
	if hours < MinWindowHours || hours > MaxWindowHours {
		return apperr.Validation("hours %d outside range [%d, %d]", hours, MinWindowHours, MaxWindowHours)
	}
	return nil
}
