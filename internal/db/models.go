package db

import (
	"time"
)

// Sensor statuses. Sensors are never physically deleted; removal is a
// status transition to StatusDeleted.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusError    = "error"
	StatusDeleted  = "deleted"
)

// Device types reported by the field hardware.
const (
	DeviceOverheadTank    = "overhead_tank"
	DeviceUndergroundTank = "underground_tank"
	DeviceKitchenTap      = "kitchen_tap"
	DeviceStorageBucket   = "storage_bucket"
)

// Quality classifications for a reading.
const (
	QualityGood = "good"
	QualityFair = "fair"
	QualityPoor = "poor"
)

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert types, one per rule family.
const (
	AlertPhHigh        = "ph_high"
	AlertPhLow         = "ph_low"
	AlertTdsHigh       = "tds_high"
	AlertTurbidityHigh = "turbidity_high"
	AlertAnomaly       = "anomaly"
)

// Notification channels.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// Sensor represents a registered water quality sensor
type Sensor struct {
	ID            string
	Name          string
	Location      string
	DeviceType    string
	Latitude      *float64
	Longitude     *float64
	Status        string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	LastReadingAt *time.Time
}

// WaterReading represents a single water quality measurement.
// IsAnomaly and AnomalyScore are the only fields mutated after creation;
// anomaly detection backfills them through the store's annotate operation.
type WaterReading struct {
	ID            string
	SensorID      string
	PhLevel       float64
	TdsLevel      float64
	Turbidity     float64
	Temperature   *float64
	IsAnomaly     bool
	AnomalyScore  float64
	QualityStatus string
	CreatedAt     time.Time
}

// Alert represents a threshold or anomaly alert raised against a reading.
// Mutated only by acknowledgment, which is one-way.
type Alert struct {
	ID             string
	SensorID       string
	AlertType      string
	Message        string
	Severity       string
	ReadingID      string
	IsAcknowledged bool
	AcknowledgedAt *time.Time
	NotifiedVia    []string
	CreatedAt      time.Time
}
