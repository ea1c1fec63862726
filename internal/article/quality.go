package article

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"articleforge/pkg/utils"
)

// Scoring knobs. Deductions are per validator finding; richness and
// readability weights were tuned against hand-checked drafts.
const (
	errorPenalty   = 15
	warningPenalty = 5

	longSentenceWords   = 30
	longSentencePenalty = 8
	breakReward         = 3
)

var (
	numericPattern  = regexp.MustCompile(`\d+(?:[.,]\d+)?%?`)
	properNounLike  = regexp.MustCompile(`\b\p{Lu}\p{Ll}{2,}`)
	listLinePattern = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s`)
	sentenceEnd     = regexp.MustCompile(`[.!?…]+[)"'\x60]*\s+`)
	terminalPunct   = `.!?…)"'`
)

// QualityMetrics is the quality scorer output: three 0-100 scores plus
// human-readable issue lists. Recomputed on demand; never stored between
// runs.
type QualityMetrics struct {
	StructureScore   int      `json:"structure_score"`
	ContentRichness  int      `json:"content_richness"`
	ReadabilityScore int      `json:"readability_score"`
	DuplicateIssues  []string `json:"duplicate_issues"`
	TruncationIssues []string `json:"truncation_issues"`
	HeadingIssues    []string `json:"heading_issues"`
}

// Score computes heuristic quality metrics for a candidate and its
// validation result. Deterministic for identical inputs and safe on
// invalid candidates.
func Score(a StructuredArticle, validation ValidationResult) QualityMetrics {
	m := QualityMetrics{
		DuplicateIssues:  []string{},
		TruncationIssues: []string{},
		HeadingIssues:    []string{},
	}

	m.StructureScore = clampScore(100 - errorPenalty*len(validation.Errors) - warningPenalty*len(validation.Warnings))
	m.ContentRichness = richness(a)
	m.ReadabilityScore = readability(a)

	seen := map[string]bool{}
	for _, s := range a.Sections {
		norm := NormalizeHeading(s.H2)
		if seen[norm] {
			m.DuplicateIssues = append(m.DuplicateIssues,
				fmt.Sprintf("heading %q repeats an earlier section heading", s.H2))
		}
		seen[norm] = true
	}

	for i, s := range a.Sections {
		if headingMarker.MatchString(s.Body) {
			m.HeadingIssues = append(m.HeadingIssues,
				fmt.Sprintf("section %d (%q) body contains residual heading markers", i+1, utils.Truncate(s.H2, 30)))
		}
	}

	m.TruncationIssues = truncationIssues(a)

	return m
}

// truncationIssues flags bodies that appear cut off mid-sentence. A body
// sitting at the length cap without terminal punctuation is the strongest
// signal; a dangling final character is reported even within bounds.
func truncationIssues(a StructuredArticle) []string {
	issues := []string{}
	for i, s := range a.Sections {
		if endsAbruptly(s.Body) {
			if utf8.RuneCountInString(s.Body) >= BodyMax {
				issues = append(issues,
					fmt.Sprintf("section %d body reaches the %d-char cap without terminal punctuation (likely truncated)", i+1, BodyMax))
			} else {
				issues = append(issues,
					fmt.Sprintf("section %d body ends without terminal punctuation", i+1))
			}
		}
	}
	if tail := articleTail(a); tail != "" && endsAbruptly(tail) {
		issues = append(issues, "article ends without terminal punctuation (response may be cut off)")
	}
	return issues
}

// articleTail returns the text that closes the rendered article.
func articleTail(a StructuredArticle) string {
	if a.CTA != "" {
		return a.CTA
	}
	if n := len(a.FAQ); n > 0 {
		return a.FAQ[n-1].A
	}
	if n := len(a.Sections); n > 0 {
		return a.Sections[n-1].Body
	}
	return a.Lead
}

func endsAbruptly(text string) bool {
	text = strings.TrimRight(text, " \t\n")
	if text == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	return !strings.ContainsRune(terminalPunct, last)
}

// richness rewards numeric data, proper-noun-like tokens, and list markup,
// normalized by body length so longer articles are not favored outright.
func richness(a StructuredArticle) int {
	var bodies strings.Builder
	for _, s := range a.Sections {
		bodies.WriteString(s.Body)
		bodies.WriteString("\n")
	}
	text := bodies.String()
	words := utils.WordCount(text)
	if words == 0 {
		return 0
	}

	hits := 2*len(numericPattern.FindAllString(text, -1)) +
		len(properNounLike.FindAllString(text, -1)) +
		3*len(listLinePattern.FindAllString(text, -1))

	// Scale: one hit per ten words saturates the score.
	return clampScore(hits * 1000 / words)
}

// readability penalizes run-on sentences and rewards paragraph and list
// breaks inside section bodies.
func readability(a StructuredArticle) int {
	score := 100
	for _, s := range a.Sections {
		for _, sentence := range splitSentences(s.Body) {
			if utils.WordCount(sentence) > longSentenceWords {
				score -= longSentencePenalty
			}
		}
		score += breakReward * strings.Count(s.Body, "\n\n")
		score += breakReward * len(listLinePattern.FindAllString(s.Body, -1))
	}
	return clampScore(score)
}

func splitSentences(text string) []string {
	parts := sentenceEnd.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
