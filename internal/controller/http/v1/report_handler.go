package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type ReportUseCase interface {
	ExportDefectsCSV(ctx context.Context, filter usecase.DefectFilter) (string, error)
}

type ReportHandler struct {
	Reports ReportUseCase
}

func NewReportHandler(r ReportUseCase) *ReportHandler {
	return &ReportHandler{Reports: r}
}

// ExportDefects builds a CSV snapshot of the filtered defect list and
// returns a time-limited download link.
func (h *ReportHandler) ExportDefects(c *gin.Context) {
	filter, ok := defectFilterFromQuery(c)
	if !ok {
		return
	}

	url, err := h.Reports.ExportDefectsCSV(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file_url": url})
}
