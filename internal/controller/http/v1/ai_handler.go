package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type RiskUseCase interface {
	Evaluate(ctx context.Context, d usecase.DefectInput) usecase.DefectEvaluation
	Summary(defects []usecase.DefectInput) usecase.RiskDashboard
}

type AIHandler struct {
	Risk RiskUseCase
}

func NewAIHandler(r RiskUseCase) *AIHandler {
	return &AIHandler{Risk: r}
}

func (h *AIHandler) EvaluateDefect(c *gin.Context) {
	var input usecase.DefectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Risk.Evaluate(c.Request.Context(), input))
}

func (h *AIHandler) DefectsSummary(c *gin.Context) {
	var inputs []usecase.DefectInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Risk.Summary(inputs))
}
