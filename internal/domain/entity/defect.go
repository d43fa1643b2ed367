package entity

import "time"

// Defect is an inline-inspection finding on a pipeline wall.
type Defect struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	DefectCode   string  `gorm:"index;not null" json:"defect_code"`
	ObjectID     *uint   `gorm:"index" json:"object_id,omitempty"`
	PipelineCode string  `gorm:"index" json:"pipeline_code,omitempty"`
	Severity     string  `gorm:"default:medium" json:"severity"`

	// Location on the pipeline
	WeldDistance     *float64 `json:"weld_distance,omitempty"`
	SectionNumber    *int     `json:"section_number,omitempty"`
	SectionLength    *float64 `json:"section_length,omitempty"`
	MeasuredDistance *float64 `json:"measured_distance,omitempty"`
	Orientation      string   `json:"orientation,omitempty"`

	// Classification
	DefectType     string `json:"defect_type,omitempty"`
	Identification string `json:"identification,omitempty"`
	ExternalSize   string `json:"external_size,omitempty"`

	// Dimensions
	LengthMM        *float64 `gorm:"column:length_mm" json:"length_mm,omitempty"`
	WidthMM         *float64 `gorm:"column:width_mm" json:"width_mm,omitempty"`
	MaxDepthPercent *float64 `json:"max_depth_percent,omitempty"`
	AvgDepthPercent *float64 `json:"avg_depth_percent,omitempty"`
	DepthMM         *float64 `gorm:"column:depth_mm" json:"depth_mm,omitempty"`

	// Wall thickness
	WallThickness *float64 `json:"wall_thickness,omitempty"`
	RemainingWall *float64 `json:"remaining_wall,omitempty"`

	// Estimated repair factors
	ERFB31G *float64 `gorm:"column:erf_b31g" json:"erf_b31g,omitempty"`
	ERFDNV  *float64 `gorm:"column:erf_dnv" json:"erf_dnv,omitempty"`

	// Geography
	SurfaceLocation string   `json:"surface_location,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Elevation       *float64 `json:"elevation,omitempty"`

	Comment        string     `json:"comment,omitempty"`
	InspectionDate *time.Time `gorm:"index" json:"inspection_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	Object *Object `gorm:"foreignKey:ObjectID" json:"-"`
}

func (Defect) TableName() string { return "defects" }

// Object is a physical asset on a pipeline (valve, joint, crossing).
type Object struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ObjectCode   string    `gorm:"uniqueIndex;not null" json:"object_code"`
	Name         string    `json:"name,omitempty"`
	ObjectType   string    `json:"object_type,omitempty"`
	PipelineCode string    `gorm:"index" json:"pipeline_code,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Object) TableName() string { return "objects" }

// Pipeline carries route geometry as a GeoJSON string for the map layer.
type Pipeline struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	PipelineCode string `gorm:"uniqueIndex;not null" json:"pipeline_code"`
	Name         string `json:"name,omitempty"`
	Geometry     string `json:"geometry"`
}

func (Pipeline) TableName() string { return "pipelines" }
