package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type fakeObjectRepo struct {
	objects []entity.Object
	defects map[uint][]entity.Defect
}

func (r *fakeObjectRepo) List(_ context.Context, _, _, _ string) ([]entity.Object, error) {
	return r.objects, nil
}

func (r *fakeObjectRepo) Get(_ context.Context, id uint) (*entity.Object, error) {
	for i := range r.objects {
		if r.objects[i].ID == id {
			return &r.objects[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeObjectRepo) DefectsCount(_ context.Context, objectID uint) (int64, error) {
	return int64(len(r.defects[objectID])), nil
}

func (r *fakeObjectRepo) Defects(_ context.Context, objectID uint) ([]entity.Defect, error) {
	return r.defects[objectID], nil
}

type fakePipelineRepo struct {
	pipelines []entity.Pipeline
}

func (r *fakePipelineRepo) List(context.Context) ([]entity.Pipeline, error) {
	return r.pipelines, nil
}

func TestDefectList_AppliesDefaults(t *testing.T) {
	repo := &fakeDefectRepo{}
	uc := NewDefectUseCase(repo, &fakeObjectRepo{}, &fakePipelineRepo{}, fakeDefectStats{})

	_, err := uc.List(context.Background(), DefectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastFilter.Limit)
	assert.Equal(t, "inspection_date", repo.lastFilter.SortBy)
	assert.Equal(t, "desc", repo.lastFilter.SortOrder)
}

func TestDefectList_KeepsExplicitSort(t *testing.T) {
	repo := &fakeDefectRepo{}
	uc := NewDefectUseCase(repo, &fakeObjectRepo{}, &fakePipelineRepo{}, fakeDefectStats{})

	_, err := uc.List(context.Background(), DefectFilter{SortBy: "erf_b31g", SortOrder: "asc", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastFilter.Limit)
	assert.Equal(t, "erf_b31g", repo.lastFilter.SortBy)
	assert.Equal(t, "asc", repo.lastFilter.SortOrder)
}

func TestDefectGet_NotFound(t *testing.T) {
	uc := NewDefectUseCase(&fakeDefectRepo{}, &fakeObjectRepo{}, &fakePipelineRepo{}, fakeDefectStats{})
	_, err := uc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListObjects_WithCounts(t *testing.T) {
	objects := &fakeObjectRepo{
		objects: []entity.Object{{ID: 1, ObjectCode: "OBJ-1"}, {ID: 2, ObjectCode: "OBJ-2"}},
		defects: map[uint][]entity.Defect{1: {{DefectCode: "DEF-1"}, {DefectCode: "DEF-2"}}},
	}
	uc := NewDefectUseCase(&fakeDefectRepo{}, objects, &fakePipelineRepo{}, fakeDefectStats{})

	out, err := uc.ListObjects(context.Background(), "", "", "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].DefectsCount)
	assert.Equal(t, int64(0), out[1].DefectsCount)
	assert.Empty(t, out[0].Defects)
}

func TestGetObject_IncludesDefectList(t *testing.T) {
	objects := &fakeObjectRepo{
		objects: []entity.Object{{ID: 1, ObjectCode: "OBJ-1"}},
		defects: map[uint][]entity.Defect{1: {{DefectCode: "DEF-1"}}},
	}
	uc := NewDefectUseCase(&fakeDefectRepo{}, objects, &fakePipelineRepo{}, fakeDefectStats{})

	obj, err := uc.GetObject(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "OBJ-1", obj.ObjectCode)
	assert.Equal(t, int64(1), obj.DefectsCount)
	require.Len(t, obj.Defects, 1)
}

func TestTopRisks_DefaultLimit(t *testing.T) {
	uc := NewDefectUseCase(&fakeDefectRepo{}, &fakeObjectRepo{}, &fakePipelineRepo{}, fakeDefectStats{})
	rows, err := uc.TopRisks(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestListPipelines(t *testing.T) {
	pipelines := &fakePipelineRepo{pipelines: []entity.Pipeline{{PipelineCode: "MG-01", Geometry: `{"type":"LineString"}`}}}
	uc := NewDefectUseCase(&fakeDefectRepo{}, &fakeObjectRepo{}, pipelines, fakeDefectStats{})

	out, err := uc.ListPipelines(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "MG-01", out[0].PipelineCode)
}
