package article

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fullArticle() StructuredArticle {
	a := validArticle()
	a.Sections[1].Body = validBody("first half") + "\n\n" + validBody("second half")
	a.FAQ = []FAQEntry{
		{Q: "How long did the interview run?", A: "Just under two hours across two separate calls."},
		{Q: "Will there be a follow-up piece?", A: "A follow-up on tooling is planned for next quarter."},
	}
	a.CTA = "Subscribe to get the next interview in your inbox."
	return a
}

func TestRenderMarkdownShape(t *testing.T) {
	a := fullArticle()
	doc := RenderMarkdown(a)

	if !strings.HasPrefix(doc, "# "+a.Title+"\n\n") {
		t.Error("document must open with the level-1 title")
	}
	for _, s := range a.Sections {
		if !strings.Contains(doc, "\n## "+s.H2+"\n") {
			t.Errorf("missing section heading %q", s.H2)
		}
	}
	if !strings.Contains(doc, "\n## FAQ\n") {
		t.Error("missing FAQ heading")
	}
	for _, f := range a.FAQ {
		if !strings.Contains(doc, "\n### "+f.Q+"\n") {
			t.Errorf("missing FAQ question %q", f.Q)
		}
	}
	if !strings.Contains(doc, "\n---\n\n"+a.CTA) {
		t.Error("CTA must follow the divider")
	}
	if !strings.HasSuffix(doc, "\n") || strings.HasSuffix(doc, "\n\n") {
		t.Error("document must end with exactly one newline")
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		article StructuredArticle
	}{
		{"sections only", validArticle()},
		{"with faq and cta", fullArticle()},
		{"cta without faq", func() StructuredArticle {
			a := validArticle()
			a.CTA = "Read the rest of the series on the engineering blog."
			return a
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseMarkdown(RenderMarkdown(tc.article))
			if err != nil {
				t.Fatalf("ParseMarkdown: %v", err)
			}
			if diff := cmp.Diff(tc.article, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTripPreservesSectionOrder(t *testing.T) {
	a := validArticle()
	doc := RenderMarkdown(a)

	got, err := ParseMarkdown(doc)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range a.Sections {
		if got.Sections[i].H2 != s.H2 {
			t.Errorf("section %d heading = %q, want %q", i, got.Sections[i].H2, s.H2)
		}
	}
}

func TestParseMarkdownRejectsUntitled(t *testing.T) {
	if _, err := ParseMarkdown("just a paragraph\n\n## Heading here\n\nbody text\n"); err == nil {
		t.Error("expected error for document without a title")
	}
}

func TestRenderedDocumentValidates(t *testing.T) {
	a := fullArticle()
	got, err := ParseMarkdown(RenderMarkdown(a))
	if err != nil {
		t.Fatal(err)
	}
	if res := Validate(got); !res.IsValid {
		t.Errorf("re-parsed article should still validate: %v", res.Errors)
	}
}
