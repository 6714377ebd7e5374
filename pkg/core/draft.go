// pkg/core/draft.go
package core

// AnalysisResult is the outcome of one defect-analysis call.
// Fallback marks a locally synthesized stand-in produced when the
// analysis service was unreachable; fallback results are never merged
// into a draft automatically.
type AnalysisResult struct {
	DefectType string  `json:"defectType"`
	Metrics    Metrics `json:"metrics"`
	Fallback   bool    `json:"-"`
}

// Draft is the in-progress, uncommitted marker data owned by the
// capture workflow. Ownership transfers to the record store on save.
type Draft struct {
	X, Y        float64
	Element     *PlanElement
	PhotoURL    string
	TextValue   string
	DrawingData string
	Analysis    *AnalysisResult
}
