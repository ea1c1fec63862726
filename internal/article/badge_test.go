package article

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		sources    []string
		tone       Tone
	}{
		{"strong with sources", 0.8, []string{"interview-transcript"}, ToneGreen},
		{"exactly strong threshold", 0.70, []string{"interview-transcript"}, ToneGreen},
		{"middling with sources", 0.5, []string{"interview-transcript"}, ToneYellow},
		{"exactly weak threshold", 0.40, []string{"interview-transcript"}, ToneYellow},
		{"middling without sources", 0.5, nil, ToneGray},
		{"weak with sources", 0.3, []string{"interview-transcript"}, ToneGray},
		{"strong without sources", 0.95, []string{}, ToneGray},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.confidence, tc.sources)
			if got.Tone != tc.tone {
				t.Errorf("Classify(%v, %v).Tone = %q, want %q", tc.confidence, tc.sources, got.Tone, tc.tone)
			}
			if got.Label == "" {
				t.Error("badge label must not be empty")
			}
		})
	}
}

func TestClassifyClampsConfidence(t *testing.T) {
	if got := Classify(1.7, []string{"s"}); got.Tone != ToneGreen {
		t.Errorf("confidence above 1 should clamp to green, got %q", got.Tone)
	}
	if got := Classify(-0.3, []string{"s"}); got.Tone != ToneGray {
		t.Errorf("confidence below 0 should clamp to gray, got %q", got.Tone)
	}
}

func TestBadgeLabelsAreStable(t *testing.T) {
	tests := []struct {
		confidence float64
		sources    []string
		label      string
	}{
		{0.9, []string{"s"}, "sufficient sourcing (auto-determined)"},
		{0.5, []string{"s"}, "weak sourcing (auto-determined, needs review)"},
		{0.9, nil, "no source (draft stage)"},
	}
	for _, tc := range tests {
		if got := Classify(tc.confidence, tc.sources); got.Label != tc.label {
			t.Errorf("Classify(%v, %v).Label = %q, want %q", tc.confidence, tc.sources, got.Label, tc.label)
		}
	}
}
