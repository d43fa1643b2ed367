package psql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type GormReadingRepo struct {
	DB *gorm.DB
}

func NewGormReadingRepo(db *gorm.DB) *GormReadingRepo {
	return &GormReadingRepo{DB: db}
}

func (r *GormReadingRepo) CreateBatch(ctx context.Context, readings []entity.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&readings).Error
}

// ListByType returns readings newer than since, newest first. A limit of 0
// means unbounded.
func (r *GormReadingRepo) ListByType(ctx context.Context, sensorType string, since time.Time, limit int) ([]entity.SensorReading, error) {
	var readings []entity.SensorReading
	q := r.DB.WithContext(ctx).
		Where("sensor_type = ? AND timestamp >= ?", sensorType, since).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *GormReadingRepo) LatestPerParameter(ctx context.Context, sensorType string) ([]entity.SensorReading, error) {
	var params []string
	if err := r.DB.WithContext(ctx).
		Model(&entity.SensorReading{}).
		Where("sensor_type = ?", sensorType).
		Distinct("parameter").
		Pluck("parameter", &params).Error; err != nil {
		return nil, err
	}

	latest := make([]entity.SensorReading, 0, len(params))
	for _, param := range params {
		var reading entity.SensorReading
		err := r.DB.WithContext(ctx).
			Where("sensor_type = ? AND parameter = ?", sensorType, param).
			Order("timestamp DESC").
			First(&reading).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}
		latest = append(latest, reading)
	}
	return latest, nil
}

func (r *GormReadingRepo) CountSensors(ctx context.Context, sensorType string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&entity.SensorReading{}).
		Where("sensor_type = ?", sensorType).
		Distinct("sensor_id").
		Count(&count).Error
	return count, err
}

func (r *GormReadingRepo) CountSince(ctx context.Context, sensorType string, since time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&entity.SensorReading{}).
		Where("sensor_type = ? AND timestamp >= ?", sensorType, since).
		Count(&count).Error
	return count, err
}
