package entity

import "time"

const (
	SensorTypeRawMaterial    = "raw_material"
	SensorTypeProductionLine = "production_line"
	SensorTypeWarehouse      = "warehouse"
)

// SensorTypes lists the monitored plant areas in a stable order.
func SensorTypes() []string {
	return []string{SensorTypeRawMaterial, SensorTypeProductionLine, SensorTypeWarehouse}
}

func KnownSensorType(t string) bool {
	for _, s := range SensorTypes() {
		if s == t {
			return true
		}
	}
	return false
}

// SensorReading is one timestamped measurement of a single parameter.
// Readings are immutable once stored.
type SensorReading struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SensorID   string    `gorm:"index;not null" json:"sensor_id"`
	SensorType string    `gorm:"not null" json:"sensor_type"`
	Parameter  string    `gorm:"not null" json:"parameter"`
	Value      float64   `gorm:"not null" json:"value"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
	IsAnomaly  bool      `json:"is_anomaly"`
	Location   string    `json:"location,omitempty"`
}

func (SensorReading) TableName() string { return "sensor_data" }
