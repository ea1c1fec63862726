// Package article holds the structured article domain: the generation
// target type, its schema validator, heuristic quality scorer, confidence
// badge classifier, and the canonical markdown renderer.
package article

import (
	"encoding/json"
	"fmt"
)

// Section is one H2 block of a structured article.
type Section struct {
	H2   string `json:"h2"`
	Body string `json:"body"`
}

// FAQEntry is one question/answer pair of the optional FAQ block.
type FAQEntry struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// StructuredArticle is the canonical generation target produced at the
// DRAFT_JSON stage and validated at QC.
type StructuredArticle struct {
	Title    string     `json:"title"`
	Lead     string     `json:"lead"`
	Sections []Section  `json:"sections"`
	FAQ      []FAQEntry `json:"faq,omitempty"`
	CTA      string     `json:"cta,omitempty"`
}

// Draft is the tagged draft payload. A draft starts unvalidated, holding
// only the raw generator output; QC parses and validates it, after which
// Article is set and Validated is true. Stages must go through Parse or
// Parsed rather than touching Raw, so nothing consumes the payload as
// structured data before a validation step ran.
type Draft struct {
	Raw       json.RawMessage    `json:"raw,omitempty"`
	Article   *StructuredArticle `json:"article,omitempty"`
	Validated bool               `json:"validated"`
}

// NewDraft wraps a raw generator payload as an unvalidated draft.
func NewDraft(raw []byte) Draft {
	return Draft{Raw: append(json.RawMessage(nil), raw...)}
}

// Empty reports whether the draft holds no payload at all.
func (d Draft) Empty() bool {
	return len(d.Raw) == 0 && d.Article == nil
}

// Parse decodes the raw payload into a StructuredArticle without marking
// it validated. Returns the already-parsed article when validation has
// run.
func (d Draft) Parse() (StructuredArticle, error) {
	if d.Validated && d.Article != nil {
		return *d.Article, nil
	}
	if len(d.Raw) == 0 {
		return StructuredArticle{}, fmt.Errorf("draft is empty")
	}
	var a StructuredArticle
	if err := json.Unmarshal(d.Raw, &a); err != nil {
		return StructuredArticle{}, fmt.Errorf("decode draft: %w", err)
	}
	return a, nil
}

// Parsed returns the validated article, if any.
func (d Draft) Parsed() (StructuredArticle, bool) {
	if !d.Validated || d.Article == nil {
		return StructuredArticle{}, false
	}
	return *d.Article, true
}

// MarkValidated records the article form after a passing QC run.
func (d *Draft) MarkValidated(a StructuredArticle) {
	d.Article = &a
	d.Validated = true
}
