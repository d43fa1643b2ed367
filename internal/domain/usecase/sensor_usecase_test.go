package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

func TestSensorData_UnknownType(t *testing.T) {
	uc := NewSensorUseCase(&fakeReadingRepo{}, &fakeSnapshotCache{}, zap.NewNop().Sugar())
	_, err := uc.Data(context.Background(), "spaceship", 24, 100)
	assert.ErrorIs(t, err, ErrUnknownSensorType)
}

func TestSensorData_WindowFilter(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeReadingRepo{stored: []entity.SensorReading{
		{SensorType: entity.SensorTypeWarehouse, Parameter: "humidity", Value: 40, Timestamp: now.Add(-30 * time.Minute)},
		{SensorType: entity.SensorTypeWarehouse, Parameter: "humidity", Value: 42, Timestamp: now.Add(-48 * time.Hour)},
	}}
	uc := NewSensorUseCase(repo, &fakeSnapshotCache{}, zap.NewNop().Sugar())

	data, err := uc.Data(context.Background(), entity.SensorTypeWarehouse, 24, 100)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, 40.0, data[0].Value)
}

func TestSensorLatest_CacheFastPath(t *testing.T) {
	cached := []entity.SensorReading{{SensorID: "wh_temp_001", Parameter: "temperature", Value: 18}}
	cache := &fakeSnapshotCache{snapshots: map[string][]entity.SensorReading{
		entity.SensorTypeWarehouse: cached,
	}}
	// repo stays empty: a hit must not touch it
	uc := NewSensorUseCase(&fakeReadingRepo{}, cache, zap.NewNop().Sugar())

	latest, err := uc.Latest(context.Background(), entity.SensorTypeWarehouse)
	require.NoError(t, err)
	assert.Equal(t, cached, latest)
}

func TestSensorLatest_CacheMissFallsBackAndRefreshes(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeReadingRepo{stored: []entity.SensorReading{
		{SensorID: "wh_temp_001", SensorType: entity.SensorTypeWarehouse, Parameter: "temperature", Value: 18, Timestamp: now},
	}}
	cache := &fakeSnapshotCache{}
	uc := NewSensorUseCase(repo, cache, zap.NewNop().Sugar())

	latest, err := uc.Latest(context.Background(), entity.SensorTypeWarehouse)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, latest, cache.snapshots[entity.SensorTypeWarehouse])
}

func TestSensorIngest_StampsTypeAndTimestamp(t *testing.T) {
	repo := &fakeReadingRepo{}
	cache := &fakeSnapshotCache{}
	uc := NewSensorUseCase(repo, cache, zap.NewNop().Sugar())

	ts := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	stored, err := uc.Ingest(context.Background(), entity.SensorTypeWarehouse, []entity.SensorReading{
		{SensorID: "ext_001", SensorType: "whatever-upstream-said", Parameter: "humidity", Value: 44, Timestamp: ts},
		{SensorID: "ext_002", Parameter: "temperature", Value: 19},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// route sensor type wins over the payload's
	assert.Equal(t, entity.SensorTypeWarehouse, stored[0].SensorType)
	assert.Equal(t, ts, stored[0].Timestamp)

	// missing timestamp is stamped on receive
	assert.False(t, stored[1].Timestamp.IsZero())

	assert.Equal(t, stored, repo.stored)
	assert.Equal(t, stored, cache.snapshots[entity.SensorTypeWarehouse])
}

func TestSensorIngest_UnknownType(t *testing.T) {
	uc := NewSensorUseCase(&fakeReadingRepo{}, &fakeSnapshotCache{}, zap.NewNop().Sugar())
	_, err := uc.Ingest(context.Background(), "spaceship", []entity.SensorReading{{Parameter: "p", Value: 1}})
	assert.ErrorIs(t, err, ErrUnknownSensorType)
}

func TestSensorIngest_EmptyBatch(t *testing.T) {
	repo := &fakeReadingRepo{}
	uc := NewSensorUseCase(repo, &fakeSnapshotCache{}, zap.NewNop().Sugar())

	stored, err := uc.Ingest(context.Background(), entity.SensorTypeWarehouse, nil)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Empty(t, repo.stored)
}

func TestSensorInsights_EndToEnd(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeReadingRepo{}
	for i := 0; i < 5; i++ {
		repo.stored = append(repo.stored, entity.SensorReading{
			SensorType: entity.SensorTypeWarehouse,
			Parameter:  "humidity",
			Value:      40,
			Timestamp:  now.Add(time.Duration(-i) * time.Minute),
		})
	}
	uc := NewSensorUseCase(repo, &fakeSnapshotCache{}, zap.NewNop().Sugar())

	insights, err := uc.Insights(context.Background(), entity.SensorTypeWarehouse, 24, 100)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, "humidity", insights[0].Param)
	assert.Contains(t, insights[0].Text, "Среднее значение 40.00")
	assert.Equal(t, []string{"Существенных отклонений не обнаружено"}, insights[0].Recommendations)
}
