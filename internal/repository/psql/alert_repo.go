package psql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type GormAlertRepo struct {
	DB *gorm.DB
}

func NewGormAlertRepo(db *gorm.DB) *GormAlertRepo {
	return &GormAlertRepo{DB: db}
}

func (r *GormAlertRepo) Create(ctx context.Context, alert *entity.Alert) error {
	return r.DB.WithContext(ctx).Create(alert).Error
}

func (r *GormAlertRepo) ListActive(ctx context.Context, limit int) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.DB.WithContext(ctx).
		Where("is_resolved = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

func (r *GormAlertRepo) CountActive(ctx context.Context, sensorType string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&entity.Alert{}).
		Where("sensor_type = ? AND is_resolved = ?", sensorType, false).
		Count(&count).Error
	return count, err
}

func (r *GormAlertRepo) Resolve(ctx context.Context, id uint) (*entity.Alert, error) {
	var alert entity.Alert
	if err := r.DB.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrNotFound
		}
		return nil, fmt.Errorf("alert not found: %w", err)
	}

	now := time.Now().UTC()
	alert.IsResolved = true
	alert.ResolvedAt = &now

	if err := r.DB.WithContext(ctx).Save(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}
