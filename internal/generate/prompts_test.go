package generate

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"articleforge/internal/article"
	"articleforge/internal/model"
)

func stubState(stage model.Stage) *model.JobState {
	return &model.JobState{
		Job: model.GenerateJob{
			IdempotencyKey: "k",
			Inputs:         map[string]string{"topic": "event sourcing"},
		},
		Stage:   stage,
		Brief:   "a brief",
		Outline: []string{"First heading", "Second heading", "Third heading"},
	}
}

func TestStagePromptCarriesPriorOutputs(t *testing.T) {
	prompt, promptCtx := StagePrompt(model.StageBrief, stubState(model.StageBrief))
	if !strings.Contains(prompt, `"event sourcing"`) {
		t.Errorf("brief prompt should quote the topic: %q", prompt)
	}
	if promptCtx != nil {
		t.Errorf("brief prompt context = %v, want none", promptCtx)
	}

	_, promptCtx = StagePrompt(model.StageOutline, stubState(model.StageOutline))
	if promptCtx["brief"] != "a brief" {
		t.Errorf("outline prompt context = %v, want the brief", promptCtx)
	}

	prompt, promptCtx = StagePrompt(model.StageDraftJSON, stubState(model.StageDraftJSON))
	if !strings.Contains(prompt, "strict JSON") {
		t.Error("draft prompt must demand strict JSON")
	}
	if promptCtx["outline"] != "First heading\nSecond heading\nThird heading" {
		t.Errorf("draft prompt context outline = %q", promptCtx["outline"])
	}
}

func TestParseOutline(t *testing.T) {
	raw := "- First heading\n\n* Second heading\n## Third heading\n   Fourth heading  \n"
	got := ParseOutline(raw)
	want := []string{"First heading", "Second heading", "Third heading", "Fourth heading"}
	if len(got) != len(want) {
		t.Fatalf("ParseOutline() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStubProducesValidArticle(t *testing.T) {
	stub := NewStub()
	state := stubState(model.StageDraftJSON)
	prompt, promptCtx := StagePrompt(model.StageDraftJSON, state)

	out, err := stub.Generate(context.Background(), prompt, promptCtx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var a article.StructuredArticle
	if err := json.Unmarshal([]byte(ExtractJSON(out)), &a); err != nil {
		t.Fatalf("stub draft is not valid JSON: %v", err)
	}
	if res := article.Validate(a); !res.IsValid {
		t.Errorf("stub draft must pass validation, got %v", res.Errors)
	}
	for i, s := range a.Sections {
		if s.H2 != state.Outline[i] {
			t.Errorf("section %d heading = %q, want outline entry %q", i, s.H2, state.Outline[i])
		}
	}
}

func TestStubRejectsUnknownPrompt(t *testing.T) {
	if _, err := NewStub().Generate(context.Background(), "tell me a joke", nil); err == nil {
		t.Error("stub must refuse prompts it did not build")
	}
}
