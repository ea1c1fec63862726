package model

// Stage identifies one step of the generation pipeline.
type Stage string

const (
	StageBrief     Stage = "BRIEF"
	StageOutline   Stage = "OUTLINE"
	StageDraftJSON Stage = "DRAFT_JSON"
	StageRenderMD  Stage = "RENDER_MD"
	StageQC        Stage = "QC"
	StagePublish   Stage = "PUBLISH"
	StageFailed    Stage = "FAILED"
)

// transitions is the explicit forward table; terminal stages have no entry.
var transitions = map[Stage]Stage{
	StageBrief:     StageOutline,
	StageOutline:   StageDraftJSON,
	StageDraftJSON: StageRenderMD,
	StageRenderMD:  StageQC,
	StageQC:        StagePublish,
}

// Next returns the stage that follows s, or false when s is terminal
// or unknown.
func (s Stage) Next() (Stage, bool) {
	next, ok := transitions[s]
	return next, ok
}

// Terminal reports whether a job in this stage can make no further progress.
func (s Stage) Terminal() bool {
	return s == StagePublish || s == StageFailed
}

// Valid reports whether s is one of the known pipeline stages.
func (s Stage) Valid() bool {
	if _, ok := transitions[s]; ok {
		return true
	}
	return s.Terminal()
}
