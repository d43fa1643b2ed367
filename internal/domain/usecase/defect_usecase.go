package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

var ErrNotFound = fmt.Errorf("not found")

// DefectFilter carries the list query; zero values mean "no constraint".
type DefectFilter struct {
	PipelineCode   string
	DefectType     string
	Identification string
	Severity       string
	MinDepth       *float64
	MaxDepth       *float64
	DateFrom       *time.Time
	DateTo         *time.Time
	SortBy         string // inspection_date | max_depth_percent | erf_b31g | severity
	SortOrder      string // asc | desc
	Limit          int
}

type DefectRepo interface {
	List(ctx context.Context, filter DefectFilter) ([]entity.Defect, error)
	Get(ctx context.Context, id uint) (*entity.Defect, error)
}

type ObjectRepo interface {
	List(ctx context.Context, search, pipelineCode, objectType string) ([]entity.Object, error)
	Get(ctx context.Context, id uint) (*entity.Object, error)
	DefectsCount(ctx context.Context, objectID uint) (int64, error)
	Defects(ctx context.Context, objectID uint) ([]entity.Defect, error)
}

type PipelineRepo interface {
	List(ctx context.Context) ([]entity.Pipeline, error)
}

// ObjectWithDefects is the detail view of an asset.
type ObjectWithDefects struct {
	entity.Object
	DefectsCount int64           `json:"defects_count"`
	Defects      []entity.Defect `json:"defects,omitempty"`
}

// DefectUseCase serves the defect registry, asset list and pipeline
// geometry.
type DefectUseCase struct {
	Defects   DefectRepo
	Objects   ObjectRepo
	Pipelines PipelineRepo
	Stats     DefectStatsRepo
}

func NewDefectUseCase(d DefectRepo, o ObjectRepo, p PipelineRepo, s DefectStatsRepo) *DefectUseCase {
	return &DefectUseCase{Defects: d, Objects: o, Pipelines: p, Stats: s}
}

func (u *DefectUseCase) List(ctx context.Context, filter DefectFilter) ([]entity.Defect, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.SortBy == "" {
		filter.SortBy = "inspection_date"
	}
	if filter.SortOrder != "asc" {
		filter.SortOrder = "desc"
	}
	return u.Defects.List(ctx, filter)
}

func (u *DefectUseCase) Get(ctx context.Context, id uint) (*entity.Defect, error) {
	return u.Defects.Get(ctx, id)
}

func (u *DefectUseCase) ListObjects(ctx context.Context, search, pipelineCode, objectType string) ([]ObjectWithDefects, error) {
	objects, err := u.Objects.List(ctx, search, pipelineCode, objectType)
	if err != nil {
		return nil, err
	}
	out := make([]ObjectWithDefects, 0, len(objects))
	for _, obj := range objects {
		count, err := u.Objects.DefectsCount(ctx, obj.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ObjectWithDefects{Object: obj, DefectsCount: count})
	}
	return out, nil
}

func (u *DefectUseCase) GetObject(ctx context.Context, id uint) (*ObjectWithDefects, error) {
	obj, err := u.Objects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	defects, err := u.Objects.Defects(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ObjectWithDefects{
		Object:       *obj,
		DefectsCount: int64(len(defects)),
		Defects:      defects,
	}, nil
}

func (u *DefectUseCase) ListPipelines(ctx context.Context) ([]entity.Pipeline, error) {
	return u.Pipelines.List(ctx)
}

func (u *DefectUseCase) MethodStats(ctx context.Context) ([]CountRow, error) {
	return u.Stats.CountByDefectType(ctx)
}

func (u *DefectUseCase) SeverityStats(ctx context.Context) ([]CountRow, error) {
	return u.Stats.CountBySeverity(ctx)
}

// TopRisks lists the objects carrying the most high/critical defects.
func (u *DefectUseCase) TopRisks(ctx context.Context, limit int) ([]TopObjectRow, error) {
	if limit <= 0 {
		limit = 10
	}
	return u.Stats.TopObjects(ctx, limit, true)
}

func (u *DefectUseCase) InspectionsByYear(ctx context.Context) ([]YearRow, error) {
	return u.Stats.CountByYear(ctx)
}
