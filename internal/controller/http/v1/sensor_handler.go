package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
	"github.com/Requiemgoi/integrity-os/pkg/utils"
)

type SensorUseCase interface {
	Data(ctx context.Context, sensorType string, hours, limit int) ([]entity.SensorReading, error)
	Latest(ctx context.Context, sensorType string) ([]entity.SensorReading, error)
	Insights(ctx context.Context, sensorType string, hours, limit int) ([]entity.Insight, error)
	Ingest(ctx context.Context, sensorType string, readings []entity.SensorReading) ([]entity.SensorReading, error)
}

type Simulator interface {
	SimulateAndStore(ctx context.Context, sensorType string) ([]entity.SensorReading, error)
}

type AlertProcessor interface {
	ProcessReading(ctx context.Context, r entity.SensorReading) ([]entity.Alert, error)
}

type SensorHandler struct {
	Sensors   SensorUseCase
	Simulator Simulator
	Alerts    AlertProcessor
}

func NewSensorHandler(s SensorUseCase, sim Simulator, a AlertProcessor) *SensorHandler {
	return &SensorHandler{Sensors: s, Simulator: sim, Alerts: a}
}

func (h *SensorHandler) GetTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sensor_types": entity.SensorTypes()})
}

func (h *SensorHandler) GetData(c *gin.Context) {
	hours := intQuery(c, "hours", 24)
	limit := intQuery(c, "limit", 1000)

	data, err := h.Sensors.Data(c.Request.Context(), c.Param("sensor_type"), hours, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *SensorHandler) GetLatest(c *gin.Context) {
	data, err := h.Sensors.Latest(c.Request.Context(), c.Param("sensor_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *SensorHandler) GetInsights(c *gin.Context) {
	hours := intQuery(c, "hours", 24)
	limit := intQuery(c, "limit", 1000)

	insights, err := h.Sensors.Insights(c.Request.Context(), c.Param("sensor_type"), hours, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// Simulate generates one tick of readings and runs alert checks over them.
func (h *SensorHandler) Simulate(c *gin.Context) {
	ctx := c.Request.Context()

	readings, err := h.Simulator.SimulateAndStore(ctx, c.Param("sensor_type"))
	if err != nil {
		respondError(c, err)
		return
	}

	alertCount := 0
	for _, r := range readings {
		alerts, err := h.Alerts.ProcessReading(ctx, r)
		if err != nil {
			respondError(c, err)
			return
		}
		alertCount += len(alerts)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          fmt.Sprintf("Сгенерировано %d точек данных", len(readings)),
		"data_points":      len(readings),
		"alerts_generated": alertCount,
	})
}

// IngestData accepts a reading batch from an external feed. Upstream
// senders disagree on the envelope (bare array, {"data": [...]} or
// {"sensor_data": [...]}) and on value encoding; NormalizeReadings is the
// single place where that ambiguity is resolved.
func (h *SensorHandler) IngestData(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось прочитать тело запроса"})
		return
	}

	readings, err := utils.NormalizeReadings(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат данных"})
		return
	}

	stored, err := h.Sensors.Ingest(ctx, c.Param("sensor_type"), readings)
	if err != nil {
		respondError(c, err)
		return
	}

	alertCount := 0
	for _, r := range stored {
		alerts, err := h.Alerts.ProcessReading(ctx, r)
		if err != nil {
			respondError(c, err)
			return
		}
		alertCount += len(alerts)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          fmt.Sprintf("Принято %d точек данных", len(stored)),
		"data_points":      len(stored),
		"alerts_generated": alertCount,
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnknownSensorType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный тип сенсора"})
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "не найдено"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
