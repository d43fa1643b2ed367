package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRiskUC(llm LLMClient) *RiskUseCase {
	return NewRiskUseCase(llm, zap.NewNop().Sugar())
}

func TestEvaluateRules_DepthRatioBrackets(t *testing.T) {
	uc := newRiskUC(nil)

	cases := []struct {
		name  string
		depth float64
		score float64
	}{
		{"shallow", 0.5, 10},
		{"medium", 2.5, 30},
		{"deep", 5.0, 60},
		{"critical", 8.0, 85},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := uc.EvaluateRules(DefectInput{
				DefectType:      "metal loss",
				DepthMM:         f(tc.depth),
				WallThicknessMM: f(10),
			})
			assert.Equal(t, tc.score, res.RiskScore)
		})
	}
}

func TestEvaluateRules_UnknownWallThickness(t *testing.T) {
	uc := newRiskUC(nil)
	res := uc.EvaluateRules(DefectInput{DefectType: "metal loss", DepthMM: f(3)})
	assert.Equal(t, 40.0, res.RiskScore)
	assert.Equal(t, "medium", res.RiskLevel)
}

func TestEvaluateRules_AdditiveAndClamped(t *testing.T) {
	uc := newRiskUC(nil)
	res := uc.EvaluateRules(DefectInput{
		DefectType:          "crack с трещиной",
		DepthMM:             f(7),
		WallThicknessMM:     f(10),
		MetalLossPercent:    f(60),
		InternalPressureMPa: f(8),
		DistanceFromWeldMM:  f(10),
	})
	// 85 + 60 + 30 + 25 + 40 clamps to 100.
	assert.Equal(t, 100.0, res.RiskScore)
	assert.Equal(t, "critical", res.RiskLevel)
	assert.Len(t, res.Factors, 5)
}

func TestEvaluateRules_DefectTypeKeywords(t *testing.T) {
	uc := newRiskUC(nil)

	assert.Equal(t, 40.0, uc.EvaluateRules(DefectInput{DefectType: "Продольная трещина"}).RiskScore)
	assert.Equal(t, 20.0, uc.EvaluateRules(DefectInput{DefectType: "External Corrosion"}).RiskScore)
	assert.Equal(t, 15.0, uc.EvaluateRules(DefectInput{DefectType: "Вмятина"}).RiskScore)
	assert.Equal(t, 0.0, uc.EvaluateRules(DefectInput{DefectType: "lamination"}).RiskScore)
}

func TestEvaluateRules_LevelThresholds(t *testing.T) {
	uc := newRiskUC(nil)

	assert.Equal(t, "low", uc.EvaluateRules(DefectInput{DefectType: "dent вмятина"}).RiskLevel)                         // 15
	assert.Equal(t, "medium", uc.EvaluateRules(DefectInput{DefectType: "x", DepthMM: f(1)}).RiskLevel)                 // 40
	assert.Equal(t, "high", uc.EvaluateRules(DefectInput{DefectType: "x", DepthMM: f(5), WallThicknessMM: f(10)}).RiskLevel)    // 60
	assert.Equal(t, "critical", uc.EvaluateRules(DefectInput{DefectType: "x", DepthMM: f(7), WallThicknessMM: f(10)}).RiskLevel) // 85
}

func TestRiskToMLLabel(t *testing.T) {
	assert.Equal(t, "normal", riskToMLLabel("low"))
	assert.Equal(t, "medium", riskToMLLabel("medium"))
	assert.Equal(t, "high", riskToMLLabel("high"))
	assert.Equal(t, "high", riskToMLLabel("critical"))
}

type fakeLLM struct {
	answer string
	err    error
	called bool
}

func (l *fakeLLM) Complete(_ context.Context, _, _ string) (string, error) {
	l.called = true
	return l.answer, l.err
}

func TestEvaluate_WithoutLLM(t *testing.T) {
	uc := newRiskUC(nil)
	eval := uc.Evaluate(context.Background(), DefectInput{DefectType: "коррозия"})
	assert.False(t, eval.UsedAI)
	assert.Nil(t, eval.AI)
	assert.Equal(t, "normal", eval.ML.Label)
}

func TestEvaluate_LLMJSONAnswer(t *testing.T) {
	llm := &fakeLLM{answer: `{"summary":"Опасный дефект","recommended_action":"Ремонт","explanation":"Глубина велика"}`}
	uc := newRiskUC(llm)

	eval := uc.Evaluate(context.Background(), DefectInput{DefectType: "crack"})
	require.True(t, llm.called)
	require.NotNil(t, eval.AI)
	assert.True(t, eval.UsedAI)
	assert.Equal(t, "Опасный дефект", eval.AI.Summary)
	assert.Equal(t, "Ремонт", eval.AI.RecommendedAction)
}

func TestEvaluate_LLMPlainTextAnswer(t *testing.T) {
	llm := &fakeLLM{answer: "дефект выглядит серьёзно"}
	uc := newRiskUC(llm)

	eval := uc.Evaluate(context.Background(), DefectInput{DefectType: "crack"})
	require.NotNil(t, eval.AI)
	assert.Equal(t, "AI-оценка дефекта", eval.AI.Summary)
	assert.Equal(t, "дефект выглядит серьёзно", eval.AI.Explanation)
}

func TestEvaluate_LLMErrorFallsBackToRules(t *testing.T) {
	llm := &fakeLLM{err: errors.New("timeout")}
	uc := newRiskUC(llm)

	eval := uc.Evaluate(context.Background(), DefectInput{DefectType: "crack"})
	assert.Nil(t, eval.AI)
	assert.False(t, eval.UsedAI)
	assert.Equal(t, 40.0, eval.RuleBased.RiskScore)
}

func TestRiskSummary(t *testing.T) {
	uc := newRiskUC(nil)

	dash := uc.Summary([]DefectInput{
		{DefectType: "lamination"},                                  // 0 -> normal
		{DefectType: "x", DepthMM: f(1)},                            // 40 -> medium
		{DefectType: "x", DepthMM: f(7), WallThicknessMM: f(10)},    // 85 -> high
	})

	assert.Equal(t, 3, dash.TotalDefects)
	assert.Equal(t, []RiskBucket{
		{Level: "normal", Count: 1},
		{Level: "medium", Count: 1},
		{Level: "high", Count: 1},
	}, dash.ByLevel)
	assert.InDelta(t, 41.7, dash.AverageRiskScore, 0.01)
}

func TestSummary_Empty(t *testing.T) {
	dash := newRiskUC(nil).Summary(nil)
	assert.Equal(t, 0, dash.TotalDefects)
	assert.Empty(t, dash.ByLevel)
	assert.Equal(t, 0.0, dash.AverageRiskScore)
}
