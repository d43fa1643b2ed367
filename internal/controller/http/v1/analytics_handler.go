package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type AnalyticsUseCase interface {
	Trends(ctx context.Context, sensorType, period, metric string) (*usecase.Trends, error)
}

type AnalyticsHandler struct {
	Analytics AnalyticsUseCase
}

func NewAnalyticsHandler(a AnalyticsUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: a}
}

func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	sensorType := c.Query("sensor_type")
	period := c.DefaultQuery("period", "24h")
	metric := c.Query("metric")

	trends, err := h.Analytics.Trends(c.Request.Context(), sensorType, period, metric)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}
