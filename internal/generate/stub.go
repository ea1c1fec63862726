package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"articleforge/internal/article"
	"articleforge/internal/ports"
)

// Stub is a deterministic offline generator. It recognizes the stage by
// the prompt it built itself and returns schema-conforming output, so a
// full pipeline run works without a generation backend.
type Stub struct{}

var _ ports.Generator = (*Stub)(nil)

// NewStub returns the offline generator.
func NewStub() *Stub { return &Stub{} }

func (s *Stub) Generate(_ context.Context, prompt string, promptCtx map[string]string) (string, error) {
	topic := extractTopic(prompt)
	switch {
	case strings.Contains(prompt, "editorial brief"):
		return fmt.Sprintf("Brief: a practical explainer on %s for working engineers, covering background, current practice, and tradeoffs.", topic), nil
	case strings.Contains(prompt, "outline"):
		return strings.Join([]string{
			"Background and context",
			"How it works today",
			"Tradeoffs and open problems",
		}, "\n"), nil
	case strings.Contains(prompt, "strict JSON"):
		return stubArticleJSON(topic, promptCtx["outline"])
	default:
		return "", fmt.Errorf("stub generator: unrecognized prompt")
	}
}

func stubArticleJSON(topic, outline string) (string, error) {
	headings := strings.Split(outline, "\n")
	if len(headings) < article.SectionsMin {
		headings = []string{"Background and context", "How it works today", "Tradeoffs and open problems"}
	}

	a := article.StructuredArticle{
		Title: clampRunes(fmt.Sprintf("Understanding %s in practice", topic), article.TitleMin, article.TitleMax),
		Lead: clampRunes(fmt.Sprintf(
			"This article walks through %s: where it came from, how teams apply it day to day, and which tradeoffs still matter.",
			topic), article.LeadMin, article.LeadMax),
		CTA: "Subscribe to get the next interview writeup in your inbox.",
	}
	for i, h := range headings {
		if i >= article.SectionsMax {
			break
		}
		a.Sections = append(a.Sections, article.Section{
			H2:   clampRunes(strings.TrimSpace(h), article.HeadingMin, article.HeadingMax),
			Body: stubBody(topic, strings.TrimSpace(h)),
		})
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal stub article: %w", err)
	}
	return string(raw), nil
}

func stubBody(topic, heading string) string {
	sentence := fmt.Sprintf("On the subject of %s, the interview material points at %s as a recurring theme worth unpacking carefully. ", topic, strings.ToLower(heading))
	body := strings.Repeat(sentence, 1+article.BodyMin/len(sentence))
	return clampRunes(strings.TrimSpace(body), article.BodyMin, article.BodyMax)
}

// clampRunes pads short text and trims long text so stub output always
// sits inside the schema bounds, keeping terminal punctuation intact.
func clampRunes(s string, min, max int) string {
	for len([]rune(s)) < min {
		s += " It matters in production."
	}
	runes := []rune(s)
	if len(runes) > max {
		s = strings.TrimSpace(string(runes[:max-1])) + "."
	}
	return s
}

func extractTopic(prompt string) string {
	start := strings.Index(prompt, `"`)
	if start < 0 {
		return "the topic"
	}
	rest := prompt[start+1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "the topic"
	}
	return rest[:end]
}
