package psql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type GormObjectRepo struct {
	DB *gorm.DB
}

func NewGormObjectRepo(db *gorm.DB) *GormObjectRepo {
	return &GormObjectRepo{DB: db}
}

func (r *GormObjectRepo) List(ctx context.Context, search, pipelineCode, objectType string) ([]entity.Object, error) {
	q := r.DB.WithContext(ctx).Model(&entity.Object{})

	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("object_code ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if pipelineCode != "" {
		q = q.Where("pipeline_code = ?", pipelineCode)
	}
	if objectType != "" {
		q = q.Where("object_type = ?", objectType)
	}

	var objects []entity.Object
	if err := q.Find(&objects).Error; err != nil {
		return nil, err
	}
	return objects, nil
}

func (r *GormObjectRepo) Get(ctx context.Context, id uint) (*entity.Object, error) {
	var obj entity.Object
	err := r.DB.WithContext(ctx).First(&obj, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (r *GormObjectRepo) DefectsCount(ctx context.Context, objectID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&entity.Defect{}).
		Where("object_id = ?", objectID).
		Count(&count).Error
	return count, err
}

func (r *GormObjectRepo) Defects(ctx context.Context, objectID uint) ([]entity.Defect, error) {
	var defects []entity.Defect
	err := r.DB.WithContext(ctx).
		Where("object_id = ?", objectID).
		Find(&defects).Error
	return defects, err
}
