package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type DashboardUseCase interface {
	LatestKPIs(ctx context.Context) ([]entity.KPI, error)
	Summary(ctx context.Context) (map[string]usecase.TypeSummary, error)
	Widgets(ctx context.Context) (*usecase.Widgets, error)
}

type KPIGenerator interface {
	SaveKPIs(ctx context.Context) ([]entity.KPI, error)
}

type AlertUseCase interface {
	ActiveAlerts(ctx context.Context, limit int) ([]entity.Alert, error)
	Resolve(ctx context.Context, id uint) (*entity.Alert, error)
}

type DashboardHandler struct {
	Dashboard DashboardUseCase
	KPIs      KPIGenerator
	Alerts    AlertUseCase
}

func NewDashboardHandler(d DashboardUseCase, k KPIGenerator, a AlertUseCase) *DashboardHandler {
	return &DashboardHandler{Dashboard: d, KPIs: k, Alerts: a}
}

func (h *DashboardHandler) GetKPIs(c *gin.Context) {
	kpis, err := h.Dashboard.LatestKPIs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kpis": kpis})
}

func (h *DashboardHandler) GenerateKPIs(c *gin.Context) {
	kpis, err := h.KPIs.SaveKPIs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Сгенерировано %d KPI", len(kpis)),
		"kpis":    len(kpis),
	})
}

func (h *DashboardHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.Alerts.ActiveAlerts(c.Request.Context(), intQuery(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *DashboardHandler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный id"})
		return
	}

	alert, err := h.Alerts.Resolve(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.Dashboard.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) GetWidgets(c *gin.Context) {
	widgets, err := h.Dashboard.Widgets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, widgets)
}
