package entity

import "time"

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

const (
	AlertTypeThreshold = "threshold"
	AlertTypeAnomaly   = "anomaly"
)

// Alert is raised when a reading violates a threshold or carries the
// upstream anomaly flag.
type Alert struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	SensorID   string        `gorm:"index" json:"sensor_id"`
	SensorType string        `gorm:"not null" json:"sensor_type"`
	AlertType  string        `gorm:"not null" json:"alert_type"`
	Severity   AlertSeverity `gorm:"default:medium" json:"severity"`
	Message    string        `gorm:"not null" json:"message"`
	Value      float64       `json:"value"`
	Threshold  *float64      `json:"threshold,omitempty"`
	IsResolved bool          `gorm:"default:false" json:"is_resolved"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

func (Alert) TableName() string { return "alerts" }
