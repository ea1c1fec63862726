package article

import (
	"fmt"
	"strings"
)

// faqHeading is the reserved H2 that opens the FAQ block. It cannot
// collide with a real section: valid section headings are at least
// HeadingMin runes long.
const faqHeading = "FAQ"

// ctaDivider separates the closing CTA paragraph from whatever precedes
// it, keeping the region boundaries unambiguous for re-parsing.
const ctaDivider = "---"

// RenderMarkdown serializes a structured article into its canonical
// markdown document. Deterministic and order-preserving: every field maps
// to exactly one region, and ParseMarkdown reverses the mapping.
func RenderMarkdown(a StructuredArticle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(a.Title))
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(a.Lead))

	for _, s := range a.Sections {
		fmt.Fprintf(&b, "## %s\n\n", strings.TrimSpace(s.H2))
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(s.Body))
	}

	if len(a.FAQ) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", faqHeading)
		for _, f := range a.FAQ {
			fmt.Fprintf(&b, "### %s\n\n", strings.TrimSpace(f.Q))
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(f.A))
		}
	}

	if a.CTA != "" {
		fmt.Fprintf(&b, "%s\n\n%s\n", ctaDivider, strings.TrimSpace(a.CTA))
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ParseMarkdown reconstructs a StructuredArticle from a document produced
// by RenderMarkdown. Section bodies keep their internal paragraph breaks.
func ParseMarkdown(doc string) (StructuredArticle, error) {
	var (
		a          StructuredArticle
		inFAQ      bool
		inCTA      bool
		curSection = -1
		curFAQ     = -1
		buf        []string
	)

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if text == "" {
			return
		}
		switch {
		case inCTA:
			a.CTA = text
		case curFAQ >= 0:
			a.FAQ[curFAQ].A = text
		case curSection >= 0:
			a.Sections[curSection].Body = text
		default:
			a.Lead = text
		}
	}

	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# ") && a.Title == "":
			a.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		case strings.HasPrefix(trimmed, "### ") && inFAQ:
			flush()
			a.FAQ = append(a.FAQ, FAQEntry{Q: strings.TrimSpace(strings.TrimPrefix(trimmed, "### "))})
			curFAQ = len(a.FAQ) - 1
		case strings.HasPrefix(trimmed, "## "):
			flush()
			heading := strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
			if heading == faqHeading {
				inFAQ = true
				continue
			}
			a.Sections = append(a.Sections, Section{H2: heading})
			curSection = len(a.Sections) - 1
		case trimmed == ctaDivider:
			flush()
			inCTA = true
		default:
			buf = append(buf, line)
		}
	}
	flush()

	if a.Title == "" {
		return StructuredArticle{}, fmt.Errorf("document has no level-1 title")
	}
	return a, nil
}
