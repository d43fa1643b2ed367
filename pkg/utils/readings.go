package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

// rawReading tolerates the value encodings upstream feeds actually send:
// numbers, numeric strings, and a missing is_anomaly flag.
type rawReading struct {
	SensorID   string          `json:"sensor_id"`
	SensorType string          `json:"sensor_type"`
	Parameter  string          `json:"parameter"`
	Value      json.RawMessage `json:"value"`
	Unit       string          `json:"unit"`
	Timestamp  string          `json:"timestamp"`
	IsAnomaly  *bool           `json:"is_anomaly"`
	Location   string          `json:"location"`
}

type wrappedReadings struct {
	Data       []rawReading `json:"data"`
	SensorData []rawReading `json:"sensor_data"`
}

// NormalizeReadings maps any accepted upstream payload shape into canonical
// readings: a bare array, {"data": [...]}, or {"sensor_data": [...]}. This
// is the single place where the shape ambiguity lives; the pipeline behind
// it only ever sees []entity.SensorReading.
//
// A value that does not coerce to a number becomes NaN so the statistics
// stage can exclude it without the reading disappearing from its series.
func NormalizeReadings(payload []byte) ([]entity.SensorReading, error) {
	var raws []rawReading
	if err := json.Unmarshal(payload, &raws); err != nil {
		var wrapped wrappedReadings
		if err := json.Unmarshal(payload, &wrapped); err != nil {
			return nil, fmt.Errorf("unrecognized readings payload: %w", err)
		}
		raws = wrapped.Data
		if len(raws) == 0 {
			raws = wrapped.SensorData
		}
	}

	readings := make([]entity.SensorReading, 0, len(raws))
	for _, raw := range raws {
		r := entity.SensorReading{
			SensorID:   raw.SensorID,
			SensorType: raw.SensorType,
			Parameter:  raw.Parameter,
			Value:      coerceValue(raw.Value),
			Unit:       raw.Unit,
			Location:   raw.Location,
		}
		if raw.IsAnomaly != nil {
			r.IsAnomaly = *raw.IsAnomaly
		}
		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			r.Timestamp = ts
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func coerceValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return math.NaN()
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if num, err := strconv.ParseFloat(str, 64); err == nil {
			return num
		}
	}
	return math.NaN()
}
