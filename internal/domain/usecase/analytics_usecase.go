package usecase

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	IsAnomaly bool      `json:"is_anomaly"`
}

type TrendMetric struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type TrendSummary struct {
	Name   string  `json:"name"`
	Change float64 `json:"change"`
}

type TrendSeries struct {
	Title string       `json:"title"`
	Name  string       `json:"name"`
	Data  []TrendPoint `json:"data"`
}

type Trends struct {
	Metrics  []TrendMetric  `json:"metrics"`
	Detailed []TrendSeries  `json:"detailed"`
	Summary  []TrendSummary `json:"summary"`
}

var periodHours = map[string]int{
	"1h":  1,
	"24h": 24,
	"7d":  168,
	"30d": 720,
}

// AnalyticsUseCase shapes sensor history into per-parameter chart series
// with a half-window percent-change summary.
type AnalyticsUseCase struct {
	Readings ReadingRepo
}

func NewAnalyticsUseCase(r ReadingRepo) *AnalyticsUseCase {
	return &AnalyticsUseCase{Readings: r}
}

// Trends loads the requested window and groups it per parameter. The change
// figure compares the mean of the second half of each series against the
// first half.
func (u *AnalyticsUseCase) Trends(ctx context.Context, sensorType, period, metric string) (*Trends, error) {
	if !entity.KnownSensorType(sensorType) {
		return nil, ErrUnknownSensorType
	}

	hours, ok := periodHours[period]
	if !ok {
		hours = 24
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	readings, err := u.Readings.ListByType(ctx, sensorType, since, 0)
	if err != nil {
		return nil, err
	}

	// Chart series run oldest first.
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	if metric != "" {
		filtered := readings[:0]
		for _, r := range readings {
			if r.Parameter == metric {
				filtered = append(filtered, r)
			}
		}
		readings = filtered
	}

	groups := GroupByParameter(readings)
	params := make([]string, 0, len(groups))
	for p := range groups {
		params = append(params, p)
	}
	sort.Strings(params)

	out := &Trends{}
	for _, p := range params {
		series := groups[p]
		title := titleize(p)
		out.Metrics = append(out.Metrics, TrendMetric{Key: p, Name: title})

		points := make([]TrendPoint, 0, len(series))
		for _, r := range series {
			points = append(points, TrendPoint{
				Timestamp: r.Timestamp,
				Value:     r.Value,
				Unit:      r.Unit,
				IsAnomaly: r.IsAnomaly,
			})
		}
		out.Detailed = append(out.Detailed, TrendSeries{Title: title, Name: p, Data: points})

		if change, ok := halfWindowChange(series); ok {
			out.Summary = append(out.Summary, TrendSummary{Name: title, Change: change})
		}
	}
	return out, nil
}

// halfWindowChange returns the percent change between the means of the two
// halves of the series. Needs at least two points; a zero first-half mean
// reports zero change instead of dividing.
func halfWindowChange(series []entity.SensorReading) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	mid := len(series) / 2

	var firstSum, secondSum float64
	for _, r := range series[:mid] {
		firstSum += r.Value
	}
	for _, r := range series[mid:] {
		secondSum += r.Value
	}
	firstAvg := firstSum / float64(mid)
	secondAvg := secondSum / float64(len(series)-mid)

	if firstAvg == 0 {
		return 0, true
	}
	change := (secondAvg - firstAvg) / firstAvg * 100
	return math.Round(change*100) / 100, true
}

func titleize(param string) string {
	words := strings.Split(param, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
