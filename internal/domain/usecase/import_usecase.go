package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type DefectWriter interface {
	CreateBatch(ctx context.Context, defects []entity.Defect) error
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

const importBatchSize = 500

// ImportUseCase bulk-loads inline-inspection result tables into the defect
// registry.
type ImportUseCase struct {
	Defects DefectWriter
	log     *zap.SugaredLogger
}

func NewImportUseCase(d DefectWriter, log *zap.SugaredLogger) *ImportUseCase {
	return &ImportUseCase{Defects: d, log: log}
}

// ImportDefectsCSV reads a CSV in the export column format and stores its
// rows in batches. Rows without a defect code and rows that fail to parse
// are skipped and reported per line, they never abort the import. A row
// without a pipeline_code falls back to the pipelineCode argument.
func (u *ImportUseCase) ImportDefectsCSV(ctx context.Context, r io.Reader, pipelineCode string) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["defect_code"]; !ok {
		return ImportResult{}, fmt.Errorf("csv header has no defect_code column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	floatField := func(row []string, name string) *float64 {
		raw := field(row, name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return &v
	}

	var result ImportResult
	var batch []entity.Defect
	line := 1

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := u.Defects.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("store defects: %w", err)
		}
		result.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("строка %d: %v", line, err))
			continue
		}

		code := field(row, "defect_code")
		if code == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("строка %d: пустой defect_code", line))
			continue
		}

		d := entity.Defect{
			DefectCode:      code,
			PipelineCode:    field(row, "pipeline_code"),
			Severity:        field(row, "severity"),
			DefectType:      field(row, "defect_type"),
			Identification:  field(row, "identification"),
			MaxDepthPercent: floatField(row, "max_depth_percent"),
			DepthMM:         floatField(row, "depth_mm"),
			WallThickness:   floatField(row, "wall_thickness"),
			ERFB31G:         floatField(row, "erf_b31g"),
			Latitude:        floatField(row, "latitude"),
			Longitude:       floatField(row, "longitude"),
			Comment:         field(row, "comment"),
		}
		if d.PipelineCode == "" {
			d.PipelineCode = pipelineCode
		}
		if d.Severity == "" {
			d.Severity = "medium"
		}
		if raw := field(row, "inspection_date"); raw != "" {
			if ts, err := time.Parse("2006-01-02", raw); err == nil {
				d.InspectionDate = &ts
			}
		}

		batch = append(batch, d)
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	u.log.Infow("defect import finished",
		"imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}
