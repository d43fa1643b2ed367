package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type CountRow struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type YearRow struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

type TopObjectRow struct {
	ObjectID     uint   `json:"object_id"`
	ObjectCode   string `json:"object_code"`
	Name         string `json:"object_name"`
	DefectsCount int64  `json:"defects_count"`
}

type DefectStatsRepo interface {
	CountByDefectType(ctx context.Context) ([]CountRow, error)
	CountBySeverity(ctx context.Context) ([]CountRow, error)
	TopObjects(ctx context.Context, limit int, onlySevere bool) ([]TopObjectRow, error)
	CountByYear(ctx context.Context) ([]YearRow, error)
	Totals(ctx context.Context) (objects, defects int64, err error)
}

type TypeSummary struct {
	SensorCount      int64                  `json:"sensor_count"`
	RecentDataPoints int64                  `json:"recent_data_points"`
	ActiveAlerts     int64                  `json:"active_alerts"`
	LatestData       []entity.SensorReading `json:"latest_data"`
}

type Widgets struct {
	Methods           []CountRow     `json:"methods"`
	Severity          []CountRow     `json:"severity"`
	TopObjects        []TopObjectRow `json:"top_objects"`
	InspectionsByYear []YearRow      `json:"inspections_by_year"`
	Totals            struct {
		Objects int64 `json:"objects"`
		Defects int64 `json:"defects"`
	} `json:"totals"`
}

// DashboardUseCase aggregates the widgets, KPI cards and the per-area
// summary shown on the landing view.
type DashboardUseCase struct {
	Readings    ReadingRepo
	Alerts      AlertRepo
	KPIs        KPIRepo
	DefectStats DefectStatsRepo
}

func NewDashboardUseCase(r ReadingRepo, a AlertRepo, k KPIRepo, d DefectStatsRepo) *DashboardUseCase {
	return &DashboardUseCase{Readings: r, Alerts: a, KPIs: k, DefectStats: d}
}

// LatestKPIs returns the newest value for every KPI name.
func (u *DashboardUseCase) LatestKPIs(ctx context.Context) ([]entity.KPI, error) {
	names, err := u.KPIs.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("kpi names: %w", err)
	}
	kpis := make([]entity.KPI, 0, len(names))
	for _, name := range names {
		latest, err := u.KPIs.LatestByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("latest kpi %q: %w", name, err)
		}
		if latest != nil {
			kpis = append(kpis, *latest)
		}
	}
	return kpis, nil
}

// Summary reports sensor coverage, recent ingest volume and active alerts
// per plant area.
func (u *DashboardUseCase) Summary(ctx context.Context) (map[string]TypeSummary, error) {
	summary := make(map[string]TypeSummary, len(entity.SensorTypes()))
	cutoff := time.Now().UTC().Add(-time.Hour)

	for _, sensorType := range entity.SensorTypes() {
		sensors, err := u.Readings.CountSensors(ctx, sensorType)
		if err != nil {
			return nil, err
		}
		recent, err := u.Readings.CountSince(ctx, sensorType, cutoff)
		if err != nil {
			return nil, err
		}
		alerts, err := u.Alerts.CountActive(ctx, sensorType)
		if err != nil {
			return nil, err
		}
		latest, err := u.Readings.LatestPerParameter(ctx, sensorType)
		if err != nil {
			return nil, err
		}
		if len(latest) > 5 {
			latest = latest[:5]
		}

		summary[sensorType] = TypeSummary{
			SensorCount:      sensors,
			RecentDataPoints: recent,
			ActiveAlerts:     alerts,
			LatestData:       latest,
		}
	}
	return summary, nil
}

// Widgets returns the defect-oriented dashboard blocks.
func (u *DashboardUseCase) Widgets(ctx context.Context) (*Widgets, error) {
	var w Widgets
	var err error

	if w.Methods, err = u.DefectStats.CountByDefectType(ctx); err != nil {
		return nil, err
	}
	if w.Severity, err = u.DefectStats.CountBySeverity(ctx); err != nil {
		return nil, err
	}
	if w.TopObjects, err = u.DefectStats.TopObjects(ctx, 5, false); err != nil {
		return nil, err
	}
	if w.InspectionsByYear, err = u.DefectStats.CountByYear(ctx); err != nil {
		return nil, err
	}
	if w.Totals.Objects, w.Totals.Defects, err = u.DefectStats.Totals(ctx); err != nil {
		return nil, err
	}
	return &w, nil
}
