package psql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type GormKPIRepo struct {
	DB *gorm.DB
}

func NewGormKPIRepo(db *gorm.DB) *GormKPIRepo {
	return &GormKPIRepo{DB: db}
}

func (r *GormKPIRepo) CreateBatch(ctx context.Context, kpis []entity.KPI) error {
	if len(kpis) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&kpis).Error
}

func (r *GormKPIRepo) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.DB.WithContext(ctx).
		Model(&entity.KPI{}).
		Distinct("kpi_name").
		Pluck("kpi_name", &names).Error
	return names, err
}

func (r *GormKPIRepo) LatestByName(ctx context.Context, name string) (*entity.KPI, error) {
	var kpi entity.KPI
	err := r.DB.WithContext(ctx).
		Where("kpi_name = ?", name).
		Order("timestamp DESC").
		First(&kpi).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &kpi, nil
}
