package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/pkg/utils"
)

type AlertRepo interface {
	Create(ctx context.Context, alert *entity.Alert) error
	ListActive(ctx context.Context, limit int) ([]entity.Alert, error)
	CountActive(ctx context.Context, sensorType string) (int64, error)
	Resolve(ctx context.Context, id uint) (*entity.Alert, error)
}

type Publisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

type threshold struct {
	Min *float64
	Max *float64
}

func f(v float64) *float64 { return &v }

var thresholds = map[string]map[string]threshold{
	entity.SensorTypeRawMaterial: {
		"temperature": {Min: f(15), Max: f(25)},
		"humidity":    {Min: f(35), Max: f(55)},
		"quantity":    {Min: f(1000), Max: f(10000)},
		"vibration":   {Max: f(1)},
	},
	entity.SensorTypeProductionLine: {
		"temperature":      {Min: f(60), Max: f(90)},
		"vibration":        {Max: f(5)},
		"production_speed": {Min: f(80), Max: f(120)},
		"defect_rate":      {Max: f(5)},
		"pressure":         {Min: f(1), Max: f(2)},
	},
	entity.SensorTypeWarehouse: {
		"temperature": {Min: f(15), Max: f(22)},
		"humidity":    {Min: f(30), Max: f(50)},
		"stock_level": {Min: f(2000), Max: f(12000)},
		"vibration":   {Max: f(0.5)},
	},
}

var paramNames = map[string]string{
	"temperature":      "Температура",
	"humidity":         "Влажность",
	"quantity":         "Количество",
	"vibration":        "Вибрация",
	"production_speed": "Скорость производства",
	"defect_rate":      "Процент брака",
	"pressure":         "Давление",
	"stock_level":      "Уровень запасов",
}

func translateParam(param string) string {
	if name, ok := paramNames[param]; ok {
		return name
	}
	return param
}

// AlertUseCase checks readings against thresholds and the upstream anomaly
// flag, persists raised alerts and publishes them to the event bus.
type AlertUseCase struct {
	Alerts    AlertRepo
	Publisher Publisher
	log       *zap.SugaredLogger

	// publish retry policy; doubling backoff capped at publishMaxDelay
	publishAttempts  int
	publishBaseDelay time.Duration
	publishMaxDelay  time.Duration
}

func NewAlertUseCase(a AlertRepo, p Publisher, log *zap.SugaredLogger) *AlertUseCase {
	return &AlertUseCase{
		Alerts:    a,
		Publisher: p,
		log:       log,

		publishAttempts:  5,
		publishBaseDelay: 500 * time.Millisecond,
		publishMaxDelay:  10 * time.Second,
	}
}

// CheckThreshold returns an alert when the reading is outside its configured
// band, nil otherwise.
func (u *AlertUseCase) CheckThreshold(r entity.SensorReading) *entity.Alert {
	byParam, ok := thresholds[r.SensorType]
	if !ok {
		return nil
	}
	th, ok := byParam[r.Parameter]
	if !ok {
		return nil
	}

	name := translateParam(r.Parameter)
	var message string
	severity := entity.SeverityMedium
	var limit *float64

	switch {
	case th.Min != nil && r.Value < *th.Min:
		if r.Parameter == "quantity" || r.Parameter == "stock_level" {
			severity = entity.SeverityHigh
		}
		message = fmt.Sprintf("%s ниже минимального порога: %.2f < %.2f", name, r.Value, *th.Min)
		limit = th.Min
	case th.Max != nil && r.Value > *th.Max:
		if r.Parameter == "temperature" || r.Parameter == "defect_rate" {
			severity = entity.SeverityHigh
		}
		message = fmt.Sprintf("%s превышает максимальный порог: %.2f > %.2f", name, r.Value, *th.Max)
		limit = th.Max
	default:
		return nil
	}

	return &entity.Alert{
		SensorID:   r.SensorID,
		SensorType: r.SensorType,
		AlertType:  entity.AlertTypeThreshold,
		Severity:   severity,
		Message:    message,
		Value:      r.Value,
		Threshold:  limit,
	}
}

// checkAnomalyFlag raises a high-severity alert for readings the upstream
// marked as anomalous. The flag is opaque; no extra semantics are inferred.
func (u *AlertUseCase) checkAnomalyFlag(r entity.SensorReading) *entity.Alert {
	if !r.IsAnomaly {
		return nil
	}
	return &entity.Alert{
		SensorID:   r.SensorID,
		SensorType: r.SensorType,
		AlertType:  entity.AlertTypeAnomaly,
		Severity:   entity.SeverityHigh,
		Message:    fmt.Sprintf("Обнаружена аномалия: %s = %.2f", translateParam(r.Parameter), r.Value),
		Value:      r.Value,
	}
}

// ProcessReading evaluates one reading, stores raised alerts and publishes
// them. A publish failure is logged, not escalated: the alert is already
// persisted and queryable.
func (u *AlertUseCase) ProcessReading(ctx context.Context, r entity.SensorReading) ([]entity.Alert, error) {
	var alerts []entity.Alert
	if a := u.CheckThreshold(r); a != nil {
		alerts = append(alerts, *a)
	}
	if a := u.checkAnomalyFlag(r); a != nil {
		alerts = append(alerts, *a)
	}

	for i := range alerts {
		if err := u.Alerts.Create(ctx, &alerts[i]); err != nil {
			return nil, fmt.Errorf("store alert: %w", err)
		}
		body, err := utils.ToRawMessage(alerts[i])
		if err != nil {
			return nil, err
		}
		if err := u.publishWithRetry(ctx, body); err != nil {
			u.log.Errorw("failed to publish alert", "sensor_id", r.SensorID, "error", err)
		}
	}
	return alerts, nil
}

func (u *AlertUseCase) ActiveAlerts(ctx context.Context, limit int) ([]entity.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	return u.Alerts.ListActive(ctx, limit)
}

func (u *AlertUseCase) Resolve(ctx context.Context, id uint) (*entity.Alert, error) {
	return u.Alerts.Resolve(ctx, id)
}

// publishWithRetry keeps trying the bus until the policy is exhausted. The
// alert is already persisted by then, so giving up loses the live push but
// never the alert itself.
func (u *AlertUseCase) publishWithRetry(ctx context.Context, msg json.RawMessage) error {
	var lastErr error

	for attempt := 1; attempt <= u.publishAttempts; attempt++ {
		if err := u.Publisher.Publish(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == u.publishAttempts {
			break
		}

		backoff := u.publishBaseDelay << (attempt - 1)
		if backoff > u.publishMaxDelay {
			backoff = u.publishMaxDelay
		}

		select {
		case <-time.After(backoff):

		case <-ctx.Done():
			return errors.New("publish canceled by context")
		}
	}

	return lastErr
}
