package psql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type GormPipelineRepo struct {
	DB *gorm.DB
}

func NewGormPipelineRepo(db *gorm.DB) *GormPipelineRepo {
	return &GormPipelineRepo{DB: db}
}

func (r *GormPipelineRepo) List(ctx context.Context) ([]entity.Pipeline, error) {
	var pipelines []entity.Pipeline
	err := r.DB.WithContext(ctx).Find(&pipelines).Error
	return pipelines, err
}
