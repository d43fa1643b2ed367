package usecase

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"go.uber.org/zap"
)

// DefectInput describes a single defect submitted for risk evaluation.
// It is independent of the stored Defect entity so evaluation works for
// defects that are not in the registry yet.
type DefectInput struct {
	PipelineID string   `json:"pipeline_id,omitempty"`
	ObjectID   string   `json:"object_id,omitempty"`
	LocationKM *float64 `json:"location_km,omitempty"`

	DefectType  string `json:"defect_type" binding:"required"`
	Description string `json:"description,omitempty"`

	DepthMM         *float64 `json:"depth_mm,omitempty"`
	WallThicknessMM *float64 `json:"wall_thickness_mm,omitempty"`
	LengthMM        *float64 `json:"length_mm,omitempty"`
	WidthMM         *float64 `json:"width_mm,omitempty"`

	InternalPressureMPa *float64 `json:"internal_pressure_mpa,omitempty"`
	DistanceFromWeldMM  *float64 `json:"distance_from_weld_mm,omitempty"`
	MetalLossPercent    *float64 `json:"metal_loss_percent,omitempty"`

	DetectionMethod   string `json:"detection_method,omitempty"`
	YearOfLaying      *int   `json:"year_of_laying,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

type RuleBasedResult struct {
	RiskScore float64  `json:"risk_score"`
	RiskLevel string   `json:"risk_level"`
	Factors   []string `json:"factors"`
}

type MLClassification struct {
	Label       string  `json:"label"` // normal | medium | high
	Probability float64 `json:"probability"`
}

type AIEvaluation struct {
	Summary           string `json:"summary"`
	RecommendedAction string `json:"recommended_action"`
	Explanation       string `json:"explanation"`
}

type DefectEvaluation struct {
	RuleBased RuleBasedResult  `json:"rule_based"`
	ML        MLClassification `json:"ml"`
	AI        *AIEvaluation    `json:"ai,omitempty"`
	UsedAI    bool             `json:"used_ai"`
}

type RiskBucket struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

type RiskDashboard struct {
	TotalDefects     int          `json:"total_defects"`
	ByLevel          []RiskBucket `json:"by_level"`
	AverageRiskScore float64      `json:"average_risk_score"`
}

// LLMClient refines a rule-based evaluation with an external model. A nil
// client means AI refinement is disabled.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// RiskUseCase scores defect criticality with additive rules and optionally
// asks an LLM for an operator-facing explanation.
type RiskUseCase struct {
	LLM LLMClient
	log *zap.SugaredLogger
}

func NewRiskUseCase(llm LLMClient, log *zap.SugaredLogger) *RiskUseCase {
	return &RiskUseCase{LLM: llm, log: log}
}

// EvaluateRules runs the additive scoring. Each factor contributes
// independently; the total is clamped to [0, 100].
func (u *RiskUseCase) EvaluateRules(d DefectInput) RuleBasedResult {
	score := 0.0
	var factors []string
	add := func(points float64, factor string) {
		score += points
		factors = append(factors, factor)
	}

	// Relative defect depth against wall thickness.
	if d.DepthMM != nil && d.WallThicknessMM != nil && *d.WallThicknessMM > 0 {
		ratio := *d.DepthMM / *d.WallThicknessMM
		switch {
		case ratio < 0.2:
			add(10, "Небольшая относительная глубина дефекта (<20% толщины)")
		case ratio < 0.4:
			add(30, "Средняя глубина дефекта (20-40% толщины)")
		case ratio < 0.6:
			add(60, "Большая глубина дефекта (40-60% толщины)")
		default:
			add(85, "Критическая глубина дефекта (>60% толщины)")
		}
	} else if d.DepthMM != nil {
		add(40, "Неизвестна толщина стенки, глубина учитывается как средний риск")
	}

	if d.MetalLossPercent != nil {
		switch loss := *d.MetalLossPercent; {
		case loss < 10:
			add(5, "Небольшой металлоотбор (<10%)")
		case loss < 30:
			add(20, "Умеренный металлоотбор (10-30%)")
		case loss < 50:
			add(40, "Существенный металлоотбор (30-50%)")
		default:
			add(60, "Очень высокий металлоотбор (>50%)")
		}
	}

	if d.InternalPressureMPa != nil {
		switch p := *d.InternalPressureMPa; {
		case p < 2:
			add(5, "Низкое рабочее давление (<2 МПа)")
		case p < 6:
			add(15, "Среднее рабочее давление (2-6 МПа)")
		default:
			add(30, "Высокое рабочее давление (>6 МПа)")
		}
	}

	if d.DistanceFromWeldMM != nil {
		switch dist := *d.DistanceFromWeldMM; {
		case dist < 50:
			add(25, "Дефект рядом со сварным швом (<50 мм)")
		case dist < 200:
			add(10, "Дефект в зоне влияния сварного шва (50-200 мм)")
		}
	}

	defectType := strings.ToLower(d.DefectType)
	if strings.Contains(defectType, "crack") || strings.Contains(defectType, "трещ") {
		add(40, "Трещина: потенциально хрупкий отказ")
	}
	if strings.Contains(defectType, "corrosion") || strings.Contains(defectType, "корроз") {
		add(20, "Коррозионный дефект")
	}
	if strings.Contains(defectType, "dent") || strings.Contains(defectType, "вмят") {
		add(15, "Вмятина: локальное снижение прочности")
	}

	score = math.Max(0, math.Min(score, 100))

	level := "low"
	switch {
	case score >= 75:
		level = "critical"
	case score >= 50:
		level = "high"
	case score >= 25:
		level = "medium"
	}

	return RuleBasedResult{
		RiskScore: math.Round(score*10) / 10,
		RiskLevel: level,
		Factors:   factors,
	}
}

// riskToMLLabel folds the four risk levels into the three dashboard
// classes: low -> normal, medium -> medium, high/critical -> high.
func riskToMLLabel(level string) string {
	switch strings.ToLower(level) {
	case "low":
		return "normal"
	case "medium":
		return "medium"
	default:
		return "high"
	}
}

const riskSystemPrompt = "You are an integrity engineer helping to assess pipeline defects. " +
	"You receive a JSON with raw defect data and a simple rule-based risk score. " +
	"Respond ONLY with JSON having keys: summary, recommended_action, explanation. " +
	"Use short, practical Russian language for operators, no marketing. " +
	"Risk scale: low, medium, high, critical."

// Evaluate scores one defect and, when an LLM client is configured, asks it
// to refine the result. LLM failures degrade to the rule-based answer.
func (u *RiskUseCase) Evaluate(ctx context.Context, d DefectInput) DefectEvaluation {
	rules := u.EvaluateRules(d)

	eval := DefectEvaluation{
		RuleBased: rules,
		ML: MLClassification{
			Label:       riskToMLLabel(rules.RiskLevel),
			Probability: math.Round(rules.RiskScore*10) / 1000,
		},
	}

	if u.LLM == nil {
		return eval
	}

	payload, err := json.Marshal(map[string]any{
		"defect":     d,
		"rule_based": rules,
	})
	if err != nil {
		return eval
	}

	answer, err := u.LLM.Complete(ctx, riskSystemPrompt, "Данные дефекта (JSON):\n"+string(payload))
	if err != nil {
		u.log.Warnw("llm refinement failed, falling back to rules", "error", err)
		return eval
	}

	eval.AI = parseAIEvaluation(answer)
	eval.UsedAI = eval.AI != nil
	return eval
}

// parseAIEvaluation expects a JSON object; a non-JSON answer becomes the
// explanation of a stub result.
func parseAIEvaluation(answer string) *AIEvaluation {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}

	var out AIEvaluation
	if err := json.Unmarshal([]byte(answer), &out); err != nil {
		return &AIEvaluation{Summary: "AI-оценка дефекта", Explanation: answer}
	}
	out.Summary = strings.TrimSpace(out.Summary)
	out.RecommendedAction = strings.TrimSpace(out.RecommendedAction)
	out.Explanation = strings.TrimSpace(out.Explanation)
	return &out
}

// Summary aggregates rule-based scores over a batch. The LLM is not called
// here, it is too expensive per batch.
func (u *RiskUseCase) Summary(defects []DefectInput) RiskDashboard {
	if len(defects) == 0 {
		return RiskDashboard{ByLevel: []RiskBucket{}}
	}

	counts := map[string]int{}
	total := 0.0
	for _, d := range defects {
		res := u.EvaluateRules(d)
		counts[riskToMLLabel(res.RiskLevel)]++
		total += res.RiskScore
	}

	buckets := make([]RiskBucket, 0, len(counts))
	for _, level := range []string{"normal", "medium", "high"} {
		if counts[level] > 0 {
			buckets = append(buckets, RiskBucket{Level: level, Count: counts[level]})
		}
	}

	return RiskDashboard{
		TotalDefects:     len(defects),
		ByLevel:          buckets,
		AverageRiskScore: math.Round(total/float64(len(defects))*10) / 10,
	}
}
