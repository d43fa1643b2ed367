package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

const snapshotTTL = time.Hour

// SnapshotRepo caches the newest reading per parameter so the dashboard's
// latest-value cards skip the database on refresh.
type SnapshotRepo struct {
	Client *redis.Client
}

func NewSnapshotRepo(client *redis.Client) *SnapshotRepo {
	return &SnapshotRepo{Client: client}
}

func (r *SnapshotRepo) SetLatest(ctx context.Context, sensorType string, readings []entity.SensorReading) error {
	data, err := json.Marshal(readings)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, "sensor_latest:"+sensorType, data, snapshotTTL).Err()
}

func (r *SnapshotRepo) GetLatest(ctx context.Context, sensorType string) ([]entity.SensorReading, error) {
	data, err := r.Client.Get(ctx, "sensor_latest:"+sensorType).Bytes()
	if err != nil {
		return nil, err
	}
	var readings []entity.SensorReading
	if err := json.Unmarshal(data, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}
