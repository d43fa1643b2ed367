package entity

import "time"

// KPI holds a calculated plant indicator (OEE, stock level, production rate).
type KPI struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	KPIName    string    `gorm:"column:kpi_name;not null" json:"kpi_name"`
	SensorType string    `gorm:"not null" json:"sensor_type"`
	Value      float64   `gorm:"not null" json:"value"`
	Target     float64   `json:"target"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
}

func (KPI) TableName() string { return "kpis" }
