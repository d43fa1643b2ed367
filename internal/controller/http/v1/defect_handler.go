package v1

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type DefectUseCase interface {
	List(ctx context.Context, filter usecase.DefectFilter) ([]entity.Defect, error)
	Get(ctx context.Context, id uint) (*entity.Defect, error)
	ListObjects(ctx context.Context, search, pipelineCode, objectType string) ([]usecase.ObjectWithDefects, error)
	GetObject(ctx context.Context, id uint) (*usecase.ObjectWithDefects, error)
	ListPipelines(ctx context.Context) ([]entity.Pipeline, error)
	MethodStats(ctx context.Context) ([]usecase.CountRow, error)
	SeverityStats(ctx context.Context) ([]usecase.CountRow, error)
	TopRisks(ctx context.Context, limit int) ([]usecase.TopObjectRow, error)
	InspectionsByYear(ctx context.Context) ([]usecase.YearRow, error)
}

type DefectImporter interface {
	ImportDefectsCSV(ctx context.Context, r io.Reader, pipelineCode string) (usecase.ImportResult, error)
}

type DefectHandler struct {
	Defects  DefectUseCase
	Importer DefectImporter
}

func NewDefectHandler(d DefectUseCase, imp DefectImporter) *DefectHandler {
	return &DefectHandler{Defects: d, Importer: imp}
}

// defectFilterFromQuery maps the list query string onto the filter. Bad
// dates are a client error; everything else falls back to defaults.
func defectFilterFromQuery(c *gin.Context) (usecase.DefectFilter, bool) {
	filter := usecase.DefectFilter{
		PipelineCode:   c.Query("pipeline_code"),
		DefectType:     c.Query("defect_type"),
		Identification: c.Query("identification"),
		Severity:       c.Query("severity"),
		SortBy:         c.DefaultQuery("sort_by", "inspection_date"),
		SortOrder:      c.DefaultQuery("sort_order", "desc"),
		Limit:          intQuery(c, "limit", 100),
	}

	if v := c.Query("min_depth"); v != "" {
		if depth, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinDepth = &depth
		}
	}
	if v := c.Query("max_depth"); v != "" {
		if depth, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxDepth = &depth
		}
	}

	if v := c.Query("date_from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат date_from, используйте YYYY-MM-DD"})
			return filter, false
		}
		filter.DateFrom = &from
	}
	if v := c.Query("date_to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат date_to, используйте YYYY-MM-DD"})
			return filter, false
		}
		// include the whole day
		end := to.Add(24*time.Hour - time.Second)
		filter.DateTo = &end
	}

	return filter, true
}

func (h *DefectHandler) List(c *gin.Context) {
	filter, ok := defectFilterFromQuery(c)
	if !ok {
		return
	}
	defects, err := h.Defects.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, defects)
}

func (h *DefectHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный id"})
		return
	}
	defect, err := h.Defects.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, defect)
}

// Import loads an inspection-results CSV into the registry. The file comes
// as multipart field "file"; pipeline_code fills rows that carry none.
func (h *DefectHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "файл не найден в запросе"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось открыть файл"})
		return
	}
	defer file.Close()

	result, err := h.Importer.ImportDefectsCSV(c.Request.Context(), file, c.Query("pipeline_code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DefectHandler) MethodStats(c *gin.Context) {
	rows, err := h.Defects.MethodStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"methods": rows})
}

func (h *DefectHandler) SeverityStats(c *gin.Context) {
	rows, err := h.Defects.SeverityStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"severity": rows})
}

func (h *DefectHandler) TopRisks(c *gin.Context) {
	rows, err := h.Defects.TopRisks(c.Request.Context(), intQuery(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"top_risks": rows})
}

func (h *DefectHandler) InspectionsByYear(c *gin.Context) {
	rows, err := h.Defects.InspectionsByYear(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"by_year": rows})
}

func (h *DefectHandler) ListObjects(c *gin.Context) {
	objects, err := h.Defects.ListObjects(c.Request.Context(),
		c.Query("search"), c.Query("pipeline_code"), c.Query("object_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, objects)
}

func (h *DefectHandler) GetObject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный id"})
		return
	}
	obj, err := h.Defects.GetObject(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obj)
}

func (h *DefectHandler) ListPipelines(c *gin.Context) {
	pipelines, err := h.Defects.ListPipelines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pipelines)
}
