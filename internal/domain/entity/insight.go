package entity

// Statistics is derived from one parameter's series of readings. It is a
// pure function output: no identity, recomputed on every refresh. A nil
// *Statistics means the series was empty or had no finite values; callers
// must handle absence explicitly.
//
// Latest is the last value in arrival order, which is not guaranteed to be
// the chronologically newest point. Trend likewise compares the ends of the
// arrival-order window, not the timestamp-order window.
type Statistics struct {
	Avg            float64 `json:"avg"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Latest         float64 `json:"latest"`
	Trend          float64 `json:"trend"`
	AnomaliesCount int     `json:"anomalies_count"`
}

// Insight is the operator-facing summary for one parameter.
type Insight struct {
	Param           string   `json:"param"`
	Text            string   `json:"text"`
	Recommendations []string `json:"recommendations"`
}
