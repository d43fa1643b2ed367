package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

var ErrUnknownSensorType = fmt.Errorf("unknown sensor type")

type ReadingRepo interface {
	CreateBatch(ctx context.Context, readings []entity.SensorReading) error
	ListByType(ctx context.Context, sensorType string, since time.Time, limit int) ([]entity.SensorReading, error)
	LatestPerParameter(ctx context.Context, sensorType string) ([]entity.SensorReading, error)
	CountSensors(ctx context.Context, sensorType string) (int64, error)
	CountSince(ctx context.Context, sensorType string, since time.Time) (int64, error)
}

type SnapshotCache interface {
	SetLatest(ctx context.Context, sensorType string, readings []entity.SensorReading) error
	GetLatest(ctx context.Context, sensorType string) ([]entity.SensorReading, error)
}

type SensorUseCase struct {
	Readings  ReadingRepo
	Snapshots SnapshotCache
	log       *zap.SugaredLogger
}

func NewSensorUseCase(r ReadingRepo, s SnapshotCache, log *zap.SugaredLogger) *SensorUseCase {
	return &SensorUseCase{Readings: r, Snapshots: s, log: log}
}

// Data returns readings of one sensor type within the trailing window,
// newest first.
func (u *SensorUseCase) Data(ctx context.Context, sensorType string, hours, limit int) ([]entity.SensorReading, error) {
	if !entity.KnownSensorType(sensorType) {
		return nil, ErrUnknownSensorType
	}
	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = 1000
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return u.Readings.ListByType(ctx, sensorType, since, limit)
}

// Latest returns the newest reading per parameter, served from the snapshot
// cache when possible.
func (u *SensorUseCase) Latest(ctx context.Context, sensorType string) ([]entity.SensorReading, error) {
	if !entity.KnownSensorType(sensorType) {
		return nil, ErrUnknownSensorType
	}

	if cached, err := u.Snapshots.GetLatest(ctx, sensorType); err == nil && len(cached) > 0 {
		return cached, nil
	}

	latest, err := u.Readings.LatestPerParameter(ctx, sensorType)
	if err != nil {
		return nil, fmt.Errorf("latest per parameter: %w", err)
	}
	if err := u.Snapshots.SetLatest(ctx, sensorType, latest); err != nil {
		u.log.Warnw("failed to refresh snapshot cache", "sensor_type", sensorType, "error", err)
	}
	return latest, nil
}

// Ingest stores externally produced readings under one sensor type and
// refreshes the latest-value snapshot. Readings arrive already normalized;
// the sensor type from the route wins over whatever the payload carried,
// and missing timestamps are stamped with the receive time.
func (u *SensorUseCase) Ingest(ctx context.Context, sensorType string, readings []entity.SensorReading) ([]entity.SensorReading, error) {
	if !entity.KnownSensorType(sensorType) {
		return nil, ErrUnknownSensorType
	}
	if len(readings) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	for i := range readings {
		readings[i].SensorType = sensorType
		if readings[i].Timestamp.IsZero() {
			readings[i].Timestamp = now
		}
	}

	if err := u.Readings.CreateBatch(ctx, readings); err != nil {
		return nil, fmt.Errorf("store readings: %w", err)
	}
	if err := u.Snapshots.SetLatest(ctx, sensorType, readings); err != nil {
		u.log.Warnw("failed to update snapshot cache", "sensor_type", sensorType, "error", err)
	}
	return readings, nil
}

// Insights runs the aggregation pipeline over the trailing data window.
func (u *SensorUseCase) Insights(ctx context.Context, sensorType string, hours, limit int) ([]entity.Insight, error) {
	readings, err := u.Data(ctx, sensorType, hours, limit)
	if err != nil {
		return nil, err
	}
	return BuildInsights(readings), nil
}
