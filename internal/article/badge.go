package article

// Thresholds for confidence-weighted badge classification.
const (
	ConfidenceStrong = 0.70
	ConfidenceWeak   = 0.40
)

// Tone is the visual tier of a confidence badge.
type Tone string

const (
	ToneGreen  Tone = "green"
	ToneYellow Tone = "yellow"
	ToneGray   Tone = "gray"
)

// Badge communicates how well a claim is evidenced by its sources.
type Badge struct {
	Tone  Tone   `json:"tone"`
	Label string `json:"label"`
}

// Classify maps a claim confidence and its source list to a badge. Total
// over its domain: out-of-range confidence is clamped rather than
// rejected so the badge stays renderable.
func Classify(confidence float64, sources []string) Badge {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	switch {
	case len(sources) == 0 || confidence < ConfidenceWeak:
		return Badge{Tone: ToneGray, Label: "no source (draft stage)"}
	case confidence >= ConfidenceStrong:
		return Badge{Tone: ToneGreen, Label: "sufficient sourcing (auto-determined)"}
	default:
		return Badge{Tone: ToneYellow, Label: "weak sourcing (auto-determined, needs review)"}
	}
}
