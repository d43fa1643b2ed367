package usecase

import (
	"fmt"
	"math"
	"sort"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

// trendWindow is the number of most recent values the trend delta looks at.
const trendWindow = 8

// GroupByParameter partitions readings into per-parameter series, keeping
// arrival order within each series. Readings with an empty parameter are
// dropped; no other validation happens here.
func GroupByParameter(readings []entity.SensorReading) map[string][]entity.SensorReading {
	groups := make(map[string][]entity.SensorReading)
	for _, r := range readings {
		if r.Parameter == "" {
			continue
		}
		groups[r.Parameter] = append(groups[r.Parameter], r)
	}
	return groups
}

// ComputeStatistics reduces one parameter's series to a Statistics record.
// Non-finite values are excluded from every aggregate. Returns nil when the
// series is empty or has no finite values; it never errors.
//
// Trend is the difference between the last value and the value trendWindow
// positions before it, in arrival order. The series is deliberately not
// sorted by timestamp first: sorting would change the observed numbers.
func ComputeStatistics(series []entity.SensorReading) *entity.Statistics {
	values := make([]float64, 0, len(series))
	anomalies := 0
	for _, r := range series {
		if r.IsAnomaly {
			anomalies++
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		values = append(values, r.Value)
	}
	if len(values) == 0 {
		return nil
	}

	st := entity.Statistics{
		Min:            values[0],
		Max:            values[0],
		Latest:         values[len(values)-1],
		AnomaliesCount: anomalies,
	}
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	st.Avg = sum / float64(len(values))

	n := trendWindow
	if len(values) < n {
		n = len(values)
	}
	window := values[len(values)-n:]
	st.Trend = window[n-1] - window[0]

	return &st
}

const (
	noDataText           = "Нет данных"
	noDataRecommendation = "Ожидание данных с сенсора"
	fallbackText         = "Существенных отклонений не обнаружено"
)

// recommendationRules are evaluated independently: every matching rule
// appends its text, not first-match-wins.
var recommendationRules = []struct {
	applies func(st entity.Statistics) bool
	text    string
}{
	{
		applies: func(st entity.Statistics) bool { return st.AnomaliesCount > 2 },
		text:    "Проверьте сенсор и процесс: серия аномалий",
	},
	{
		applies: func(st entity.Statistics) bool {
			base := st.Avg
			if base == 0 {
				base = 1
			}
			return math.Abs(st.Trend) > base*0.1
		},
		text: "Значимый тренд: пересмотрите пороги",
	},
}

// BuildInsight formats one parameter's Statistics into operator text and a
// recommendation list. Pure function, never errors.
func BuildInsight(param string, st *entity.Statistics) entity.Insight {
	if st == nil {
		return entity.Insight{
			Param:           param,
			Text:            noDataText,
			Recommendations: []string{noDataRecommendation},
		}
	}

	direction := "стабилен"
	switch {
	case st.Trend > 0:
		direction = "растёт"
	case st.Trend < 0:
		direction = "снижается"
	}

	text := fmt.Sprintf("Среднее значение %.2f (мин %.2f, макс %.2f), тренд %s",
		st.Avg, st.Min, st.Max, direction)
	if st.AnomaliesCount > 0 {
		text += fmt.Sprintf("; аномалий за период: %d", st.AnomaliesCount)
	}

	var recs []string
	for _, rule := range recommendationRules {
		if rule.applies(*st) {
			recs = append(recs, rule.text)
		}
	}
	if len(recs) == 0 {
		recs = []string{fallbackText}
	}

	return entity.Insight{Param: param, Text: text, Recommendations: recs}
}

// BuildInsights runs the full pipeline over a flat reading slice. Parameters
// are emitted in sorted order so repeated runs over the same input produce
// identical output.
func BuildInsights(readings []entity.SensorReading) []entity.Insight {
	groups := GroupByParameter(readings)
	params := make([]string, 0, len(groups))
	for p := range groups {
		params = append(params, p)
	}
	sort.Strings(params)

	insights := make([]entity.Insight, 0, len(params))
	for _, p := range params {
		insights = append(insights, BuildInsight(p, ComputeStatistics(groups[p])))
	}
	return insights
}
