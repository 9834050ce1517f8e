package timeparser

import (
	"fmt"
	"time"
)

// ParseSensorTimestamp attempts to parse a device-supplied timestamp with
// the formats the field firmware is known to emit.
func ParseSensorTimestamp(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339,          // Standard RFC3339 (simulator and current firmware)
		"2006-01-02T15:04:05", // RFC3339 without zone (older firmware)
		"02/01/2006 15:04:05", // DD/MM/YYYY HH:mm:ss
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", dateStr, lastErr)
}

// IsWithinTolerance checks if the reading timestamp is within tolerance of received time
func IsWithinTolerance(readingTime, receivedTime time.Time, toleranceMinutes int) bool {
	diff := readingTime.Sub(receivedTime)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(toleranceMinutes)*time.Minute
}
