package timeparser_test

import (
	"testing"
	"time"

	"github.com/aquaguard/water-quality-worker/tools/timeparser"
)

func TestParseSensorTimestamp(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			"rfc3339",
			"2026-03-14T09:30:00Z",
			time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			"rfc3339 with offset",
			"2026-03-14T09:30:00+05:30",
			time.Date(2026, 3, 14, 9, 30, 0, 0, time.FixedZone("", 5*3600+30*60)),
		},
		{
			"no zone",
			"2026-03-14T09:30:00",
			time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			"day first",
			"14/03/2026 09:30:00",
			time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := timeparser.ParseSensorTimestamp(tc.input)
			if err != nil {
				t.Fatalf("Expected successful parse, got %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseSensorTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "not a time", "2026-13-45T99:99:99Z", "03-14-2026 09:30:00"} {
		if _, err := timeparser.ParseSensorTimestamp(input); err == nil {
			t.Errorf("Expected parse error for %q", input)
		}
	}
}

func TestIsWithinTolerance(t *testing.T) {
	receivedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if !timeparser.IsWithinTolerance(receivedAt.Add(-9*time.Minute), receivedAt, 10) {
		t.Error("Expected reading 9 minutes old to be within a 10 minute tolerance")
	}
	if !timeparser.IsWithinTolerance(receivedAt.Add(10*time.Minute), receivedAt, 10) {
		t.Error("Expected reading exactly at the tolerance boundary to pass")
	}
	if timeparser.IsWithinTolerance(receivedAt.Add(-11*time.Minute), receivedAt, 10) {
		t.Error("Expected reading beyond tolerance to fail")
	}
}
