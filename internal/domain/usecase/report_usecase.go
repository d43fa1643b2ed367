package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type ReportStorage interface {
	Upload(ctx context.Context, key string, file []byte) error
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

const reportURLExpiry = 24 * time.Hour

// ReportUseCase builds defect exports and hands out download links from
// object storage.
type ReportUseCase struct {
	Defects DefectRepo
	Storage ReportStorage
}

func NewReportUseCase(d DefectRepo, s ReportStorage) *ReportUseCase {
	return &ReportUseCase{Defects: d, Storage: s}
}

// ExportDefectsCSV writes the filtered defect list as CSV to object storage
// and returns a presigned download URL.
func (u *ReportUseCase) ExportDefectsCSV(ctx context.Context, filter DefectFilter) (string, error) {
	if filter.Limit <= 0 {
		filter.Limit = 1000
	}
	defects, err := u.Defects.List(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("list defects: %w", err)
	}

	data, err := BuildDefectsCSV(defects)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/defects_%s.csv", uuid.New().String())
	if err := u.Storage.Upload(ctx, key, data); err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return u.Storage.GetPresignedURL(ctx, key, reportURLExpiry)
}

// BuildDefectsCSV renders the export rows. Pure function, stable column
// order.
func BuildDefectsCSV(defects []entity.Defect) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"defect_code", "pipeline_code", "severity", "defect_type", "identification",
		"max_depth_percent", "depth_mm", "wall_thickness", "erf_b31g",
		"latitude", "longitude", "inspection_date", "comment",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	floatCol := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}

	for _, d := range defects {
		date := ""
		if d.InspectionDate != nil {
			date = d.InspectionDate.Format("2006-01-02")
		}
		row := []string{
			d.DefectCode, d.PipelineCode, d.Severity, d.DefectType, d.Identification,
			floatCol(d.MaxDepthPercent), floatCol(d.DepthMM), floatCol(d.WallThickness), floatCol(d.ERFB31G),
			floatCol(d.Latitude), floatCol(d.Longitude), date, d.Comment,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
