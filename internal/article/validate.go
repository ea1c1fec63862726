package article

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"articleforge/pkg/utils"
)

// Schema bounds for a publishable article. Lengths are rune counts.
const (
	TitleMin = 10
	TitleMax = 60
	LeadMin  = 50
	LeadMax  = 300

	SectionsMin = 3
	SectionsMax = 5
	HeadingMin  = 5
	HeadingMax  = 50
	BodyMin     = 200
	BodyMax     = 800

	FAQMax     = 10
	FAQQMin    = 10
	FAQQMax    = 100
	FAQAMin    = 20
	FAQAMax    = 300
	CTAMin     = 20
	CTAMax     = 200
)

// headingMarker matches residual markdown heading syntax (levels 1-3) at
// a line start inside a section body.
var headingMarker = regexp.MustCompile(`(?m)^#{1,3}\s`)

// ValidationStats is always populated, valid or not, so the quality
// scorer can run on failing candidates for diagnostics.
type ValidationStats struct {
	TitleLength       int `json:"title_length"`
	LeadLength        int `json:"lead_length"`
	SectionCount      int `json:"section_count"`
	WordCount         int `json:"word_count"`
	DuplicateHeadings int `json:"duplicate_headings"`
	BadHeadings       int `json:"bad_headings"`
}

// ValidationResult is the outcome of one Validate call. Errors are fatal
// contract violations; warnings cover the optional FAQ/CTA blocks only.
type ValidationResult struct {
	IsValid  bool            `json:"is_valid"`
	Errors   []string        `json:"errors"`
	Warnings []string        `json:"warnings"`
	Stats    ValidationStats `json:"stats"`
}

// Validate checks a candidate article against the schema contracts. It
// accumulates every violation rather than short-circuiting and never
// fails itself; callers always get a result object.
func Validate(a StructuredArticle) ValidationResult {
	res := ValidationResult{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}

	res.Stats.TitleLength = utf8.RuneCountInString(a.Title)
	res.Stats.LeadLength = utf8.RuneCountInString(a.Lead)
	res.Stats.SectionCount = len(a.Sections)
	res.Stats.WordCount = wordCount(a)

	// Rule 1: title and lead bounds.
	if res.Stats.TitleLength < TitleMin || res.Stats.TitleLength > TitleMax {
		res.fail("title length %d outside [%d,%d]", res.Stats.TitleLength, TitleMin, TitleMax)
	}
	if res.Stats.LeadLength < LeadMin || res.Stats.LeadLength > LeadMax {
		res.fail("lead length %d outside [%d,%d]", res.Stats.LeadLength, LeadMin, LeadMax)
	}

	// Rule 2: section count and per-section bounds.
	if len(a.Sections) < SectionsMin || len(a.Sections) > SectionsMax {
		res.fail("section count %d outside [%d,%d]", len(a.Sections), SectionsMin, SectionsMax)
	}
	for i, s := range a.Sections {
		if n := utf8.RuneCountInString(s.H2); n < HeadingMin || n > HeadingMax {
			res.fail("section %d heading length %d outside [%d,%d]", i+1, n, HeadingMin, HeadingMax)
		}
		if n := utf8.RuneCountInString(s.Body); n < BodyMin || n > BodyMax {
			res.fail("section %d body length %d outside [%d,%d]", i+1, n, BodyMin, BodyMax)
		}
	}

	// Rule 3: unique headings after case-insensitive trim. Reported on
	// the repeating section so the error order follows section order.
	seen := map[string]bool{}
	for i, s := range a.Sections {
		norm := NormalizeHeading(s.H2)
		if seen[norm] {
			res.Stats.DuplicateHeadings++
			res.fail("section %d heading %q duplicates an earlier heading", i+1, norm)
		}
		seen[norm] = true
	}

	// Rule 4: no heading contamination inside bodies.
	for i, s := range a.Sections {
		if headingMarker.MatchString(s.Body) {
			res.Stats.BadHeadings++
			res.fail("section %d body contains heading markers", i+1)
		}
	}

	// FAQ and CTA are optional; their bound violations are warnings.
	if len(a.FAQ) > FAQMax {
		res.warn("faq has %d entries, max %d", len(a.FAQ), FAQMax)
	}
	for i, f := range a.FAQ {
		if n := utf8.RuneCountInString(f.Q); n < FAQQMin || n > FAQQMax {
			res.warn("faq %d question length %d outside [%d,%d]", i+1, n, FAQQMin, FAQQMax)
		}
		if n := utf8.RuneCountInString(f.A); n < FAQAMin || n > FAQAMax {
			res.warn("faq %d answer length %d outside [%d,%d]", i+1, n, FAQAMin, FAQAMax)
		}
	}
	if a.CTA != "" {
		if n := utf8.RuneCountInString(a.CTA); n < CTAMin || n > CTAMax {
			res.warn("cta length %d outside [%d,%d]", n, CTAMin, CTAMax)
		}
	}

	return res
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.IsValid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// NormalizeHeading folds a heading for duplicate detection.
func NormalizeHeading(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func wordCount(a StructuredArticle) int {
	total := utils.WordCount(a.Title) + utils.WordCount(a.Lead) + utils.WordCount(a.CTA)
	for _, s := range a.Sections {
		total += utils.WordCount(s.H2) + utils.WordCount(s.Body)
	}
	for _, f := range a.FAQ {
		total += utils.WordCount(f.Q) + utils.WordCount(f.A)
	}
	return total
}

// String summarizes the result for logs.
func (r ValidationResult) String() string {
	status := "valid"
	if !r.IsValid {
		status = "invalid"
	}
	return fmt.Sprintf("%s | sections: %d | words: %d | errors: %d | warnings: %d",
		status, r.Stats.SectionCount, r.Stats.WordCount, len(r.Errors), len(r.Warnings))
}
