package psql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type GormDefectRepo struct {
	DB *gorm.DB
}

func NewGormDefectRepo(db *gorm.DB) *GormDefectRepo {
	return &GormDefectRepo{DB: db}
}

func (r *GormDefectRepo) CreateBatch(ctx context.Context, defects []entity.Defect) error {
	if len(defects) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&defects).Error
}

func (r *GormDefectRepo) List(ctx context.Context, filter usecase.DefectFilter) ([]entity.Defect, error) {
	q := r.DB.WithContext(ctx).Model(&entity.Defect{}).Preload("Object")

	if filter.PipelineCode != "" {
		q = q.Where("pipeline_code = ?", filter.PipelineCode)
	}
	if filter.DefectType != "" {
		q = q.Where("defect_type ILIKE ?", "%"+filter.DefectType+"%")
	}
	if filter.Identification != "" {
		q = q.Where("identification ILIKE ?", "%"+filter.Identification+"%")
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}
	if filter.MinDepth != nil {
		q = q.Where("max_depth_percent >= ?", *filter.MinDepth)
	}
	if filter.MaxDepth != nil {
		q = q.Where("max_depth_percent <= ?", *filter.MaxDepth)
	}
	if filter.DateFrom != nil {
		q = q.Where("inspection_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("inspection_date <= ?", *filter.DateTo)
	}

	q = applyDefectOrder(q, filter.SortBy, filter.SortOrder)

	var defects []entity.Defect
	if err := q.Limit(filter.Limit).Find(&defects).Error; err != nil {
		return nil, err
	}
	return defects, nil
}

func applyDefectOrder(q *gorm.DB, sortBy, sortOrder string) *gorm.DB {
	dir := "DESC"
	if sortOrder == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "max_depth_percent":
		return q.Order("max_depth_percent " + dir)
	case "erf_b31g":
		return q.Order("erf_b31g " + dir)
	case "severity":
		// critical > high > medium > low regardless of lexical order
		rank := "CASE severity WHEN 'critical' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 WHEN 'low' THEN 4 ELSE 5 END"
		if sortOrder == "asc" {
			return q.Order(rank + " DESC")
		}
		return q.Order(rank + " ASC")
	default:
		return q.Order("inspection_date " + dir + " NULLS LAST")
	}
}

func (r *GormDefectRepo) Get(ctx context.Context, id uint) (*entity.Defect, error) {
	var defect entity.Defect
	err := r.DB.WithContext(ctx).Preload("Object").First(&defect, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &defect, nil
}

// CountByDefectType groups the registry by diagnostics method/defect type.
func (r *GormDefectRepo) CountByDefectType(ctx context.Context) ([]usecase.CountRow, error) {
	var rows []usecase.CountRow
	err := r.DB.WithContext(ctx).
		Model(&entity.Defect{}).
		Select("defect_type AS key, COUNT(id) AS count").
		Group("defect_type").
		Scan(&rows).Error
	return rows, err
}

func (r *GormDefectRepo) CountBySeverity(ctx context.Context) ([]usecase.CountRow, error) {
	var rows []usecase.CountRow
	err := r.DB.WithContext(ctx).
		Model(&entity.Defect{}).
		Select("severity AS key, COUNT(id) AS count").
		Group("severity").
		Scan(&rows).Error
	return rows, err
}

func (r *GormDefectRepo) TopObjects(ctx context.Context, limit int, onlySevere bool) ([]usecase.TopObjectRow, error) {
	q := r.DB.WithContext(ctx).
		Table("objects").
		Select("objects.id AS object_id, objects.object_code, objects.name, COUNT(defects.id) AS defects_count").
		Joins("LEFT JOIN defects ON defects.object_id = objects.id")
	if onlySevere {
		q = q.Where("defects.severity IN ?", []string{"high", "critical"})
	}

	var rows []usecase.TopObjectRow
	err := q.Group("objects.id, objects.object_code, objects.name").
		Order("defects_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *GormDefectRepo) CountByYear(ctx context.Context) ([]usecase.YearRow, error) {
	var rows []usecase.YearRow
	err := r.DB.WithContext(ctx).
		Model(&entity.Defect{}).
		Select("EXTRACT(YEAR FROM inspection_date)::int AS year, COUNT(id) AS count").
		Where("inspection_date IS NOT NULL").
		Group("year").
		Order("year").
		Scan(&rows).Error
	return rows, err
}

func (r *GormDefectRepo) Totals(ctx context.Context) (int64, int64, error) {
	var objects, defects int64
	if err := r.DB.WithContext(ctx).Model(&entity.Object{}).Count(&objects).Error; err != nil {
		return 0, 0, err
	}
	if err := r.DB.WithContext(ctx).Model(&entity.Defect{}).Count(&defects).Error; err != nil {
		return 0, 0, err
	}
	return objects, defects, nil
}
