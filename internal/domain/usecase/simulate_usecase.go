package usecase

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type KPIRepo interface {
	CreateBatch(ctx context.Context, kpis []entity.KPI) error
	Names(ctx context.Context) ([]string, error)
	LatestByName(ctx context.Context, name string) (*entity.KPI, error)
}

type sensorConfig struct {
	ID    string
	Param string
	Base  float64
	Range float64
	Unit  string
}

var sensorConfigs = map[string][]sensorConfig{
	entity.SensorTypeRawMaterial: {
		{ID: "rm_temp_001", Param: "temperature", Base: 20.0, Range: 5.0, Unit: "°C"},
		{ID: "rm_humidity_001", Param: "humidity", Base: 45.0, Range: 10.0, Unit: "%"},
		{ID: "rm_quantity_001", Param: "quantity", Base: 5000.0, Range: 500.0, Unit: "kg"},
		{ID: "rm_vibration_001", Param: "vibration", Base: 0.5, Range: 0.3, Unit: "mm/s"},
	},
	entity.SensorTypeProductionLine: {
		{ID: "pl_temp_001", Param: "temperature", Base: 75.0, Range: 10.0, Unit: "°C"},
		{ID: "pl_vibration_001", Param: "vibration", Base: 2.5, Range: 1.0, Unit: "mm/s"},
		{ID: "pl_speed_001", Param: "production_speed", Base: 100.0, Range: 15.0, Unit: "units/min"},
		{ID: "pl_defect_001", Param: "defect_rate", Base: 2.0, Range: 1.5, Unit: "%"},
		{ID: "pl_pressure_001", Param: "pressure", Base: 1.5, Range: 0.3, Unit: "bar"},
	},
	entity.SensorTypeWarehouse: {
		{ID: "wh_temp_001", Param: "temperature", Base: 18.0, Range: 3.0, Unit: "°C"},
		{ID: "wh_humidity_001", Param: "humidity", Base: 40.0, Range: 8.0, Unit: "%"},
		{ID: "wh_stock_001", Param: "stock_level", Base: 8000.0, Range: 1000.0, Unit: "units"},
		{ID: "wh_vibration_001", Param: "vibration", Base: 0.2, Range: 0.1, Unit: "mm/s"},
	},
}

const defaultAnomalyProb = 0.05

// SimulatorUseCase produces synthetic readings and KPIs in place of a real
// sensor fleet.
type SimulatorUseCase struct {
	Readings    ReadingRepo
	KPIs        KPIRepo
	Snapshots   SnapshotCache
	rng         *rand.Rand
	anomalyProb float64
	log         *zap.SugaredLogger
}

func NewSimulatorUseCase(r ReadingRepo, k KPIRepo, s SnapshotCache, seed int64, log *zap.SugaredLogger) *SimulatorUseCase {
	return &SimulatorUseCase{
		Readings:    r,
		KPIs:        k,
		Snapshots:   s,
		rng:         rand.New(rand.NewSource(seed)),
		anomalyProb: defaultAnomalyProb,
		log:         log,
	}
}

// generateValue draws a value around base with Gaussian noise and an
// occasional spike or drop flagged as an anomaly. Values are clamped at
// zero and rounded to two decimals.
func (u *SimulatorUseCase) generateValue(base, rng float64) (float64, bool) {
	value := base + u.rng.NormFloat64()*rng*0.3

	isAnomaly := false
	if u.rng.Float64() < u.anomalyProb {
		isAnomaly = true
		if u.rng.Float64() < 0.5 {
			value = base + rng*2
		} else {
			value = base - rng*1.5
		}
	}

	if value < 0 {
		value = 0
	}
	return math.Round(value*100) / 100, isAnomaly
}

// GenerateReadings builds one tick of readings for a sensor type without
// persisting anything. Unknown types yield an empty slice.
func (u *SimulatorUseCase) GenerateReadings(sensorType string, ts time.Time) []entity.SensorReading {
	configs := sensorConfigs[sensorType]
	readings := make([]entity.SensorReading, 0, len(configs))
	for _, cfg := range configs {
		value, isAnomaly := u.generateValue(cfg.Base, cfg.Range)
		readings = append(readings, entity.SensorReading{
			SensorID:   cfg.ID,
			SensorType: sensorType,
			Parameter:  cfg.Param,
			Value:      value,
			Unit:       cfg.Unit,
			Timestamp:  ts,
			IsAnomaly:  isAnomaly,
		})
	}
	return readings
}

// SimulateAndStore generates one tick, persists it and refreshes the
// latest-value snapshot.
func (u *SimulatorUseCase) SimulateAndStore(ctx context.Context, sensorType string) ([]entity.SensorReading, error) {
	if !entity.KnownSensorType(sensorType) {
		return nil, ErrUnknownSensorType
	}

	readings := u.GenerateReadings(sensorType, time.Now().UTC())
	if err := u.Readings.CreateBatch(ctx, readings); err != nil {
		return nil, fmt.Errorf("store readings: %w", err)
	}
	if err := u.Snapshots.SetLatest(ctx, sensorType, readings); err != nil {
		u.log.Warnw("failed to update snapshot cache", "sensor_type", sensorType, "error", err)
	}
	return readings, nil
}

// GenerateKPIs builds one tick of plant KPIs.
func (u *SimulatorUseCase) GenerateKPIs(ts time.Time) []entity.KPI {
	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	uniform := func(lo, hi float64) float64 { return lo + u.rng.Float64()*(hi-lo) }

	return []entity.KPI{
		{KPIName: "OEE", SensorType: entity.SensorTypeProductionLine, Value: round(uniform(75, 95)), Target: 85, Unit: "%", Timestamp: ts},
		{KPIName: "stock_level", SensorType: entity.SensorTypeWarehouse, Value: round(uniform(6000, 10000)), Target: 8000, Unit: "units", Timestamp: ts},
		{KPIName: "production_rate", SensorType: entity.SensorTypeProductionLine, Value: round(uniform(90, 110)), Target: 100, Unit: "units/min", Timestamp: ts},
	}
}

func (u *SimulatorUseCase) SaveKPIs(ctx context.Context) ([]entity.KPI, error) {
	kpis := u.GenerateKPIs(time.Now().UTC())
	if err := u.KPIs.CreateBatch(ctx, kpis); err != nil {
		return nil, fmt.Errorf("store kpis: %w", err)
	}
	return kpis, nil
}
