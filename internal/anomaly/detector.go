package anomaly

import (
	"math"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/db"
)

// Detection model configuration. The seed is fixed so repeated runs over
// an unchanged reading set reproduce identical flags and scores.
const (
	ContaminationRate = 0.10
	Estimators        = 100
	Seed              = 42
	MinSamples        = 5
)

// Detail describes one flagged reading.
type Detail struct {
	ReadingID string
	SensorID  string
	Timestamp time.Time
	PhLevel   float64
	TdsLevel  float64
	Turbidity float64
	Score     float64
	Severity  string
}

// Detector identifies readings statistically inconsistent with a
// sensor's recent history using an isolation forest over the
// (ph, tds, turbidity) feature space.
type Detector struct {
	estimators    int
	contamination float64
	seed          int64
	minSamples    int
}

// NewDetector creates a detector with the standard model configuration
func NewDetector() *Detector {
	return &Detector{
		estimators:    Estimators,
		contamination: ContaminationRate,
		seed:          Seed,
		minSamples:    MinSamples,
	}
}

// Detect evaluates a windowed reading set and returns the flagged
// reading IDs with a detail record per flag, preserving input order.
// Fewer than MinSamples readings yields an empty result, not an error.
func (d *Detector) Detect(readings []db.WaterReading) ([]string, []Detail, error) {
	if len(readings) < d.minSamples {
		return nil, nil, nil
	}

	features := make([][]float64, len(readings))
	for i, r := range readings {
		features[i] = []float64{r.PhLevel, r.TdsLevel, r.Turbidity}
	}

	forest, err := FitForest(features, d.estimators, d.seed)
	if err != nil {
		return nil, nil, apperr.Detection(err)
	}

	scores := forest.ScoreSamples(features)
	threshold := ContaminationThreshold(scores, d.contamination)

	var ids []string
	var details []Detail
	for i, score := range scores {
		if score >= threshold {
			continue
		}
		r := readings[i]
		ids = append(ids, r.ID)
		details = append(details, Detail{
			ReadingID: r.ID,
			SensorID:  r.SensorID,
			Timestamp: r.CreatedAt,
			PhLevel:   r.PhLevel,
			TdsLevel:  r.TdsLevel,
			Turbidity: r.Turbidity,
			Score:     score,
			Severity:  SeverityForScore(score),
		})
	}

	return ids, details, nil
}

// SeverityForScore maps a score magnitude to an alert severity
func SeverityForScore(score float64) string {
	abs := math.Abs(score)
	switch {
	case abs > 0.5:
		return db.SeverityCritical
	case abs > 0.3:
		return db.SeverityHigh
	case abs > 0.1:
		return db.SeverityMedium
	}
	return db.SeverityLow
}

// FilterWindow returns the readings created at or after cutoff,
// preserving order.
func FilterWindow(readings []db.WaterReading, cutoff time.Time) []db.WaterReading {
	var windowed []db.WaterReading
	for _, r := range readings {
		if !r.CreatedAt.Before(cutoff) {
			windowed = append(windowed, r)
		}
	}
	return windowed
}
