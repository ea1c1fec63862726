package generate

import (
	"fmt"
	"sort"
	"strings"

	"articleforge/internal/article"
	"articleforge/internal/model"
)

// StagePrompt builds the generation prompt for the given stage and the
// context map carrying prior stage outputs.
func StagePrompt(stage model.Stage, state *model.JobState) (string, map[string]string) {
	topic := state.Job.Topic()
	switch stage {
	case model.StageBrief:
		return fmt.Sprintf(
			"Write a short editorial brief for an article about %q: target reader, angle, and the three key points the piece must cover.",
			topic), nil
	case model.StageOutline:
		return fmt.Sprintf(
			"Produce an outline for an article about %q as a plain list, one H2 heading per line, %d to %d headings, no numbering.",
			topic, article.SectionsMin, article.SectionsMax),
			map[string]string{"brief": state.Brief}
	case model.StageDraftJSON:
		return fmt.Sprintf(
			"Write the full article about %q as strict JSON with this shape and nothing else: "+
				`{"title": string (%d-%d chars), "lead": string (%d-%d chars), `+
				`"sections": [{"h2": string (%d-%d chars), "body": string (%d-%d chars)}] (%d-%d sections, unique headings, no markdown headings inside bodies), `+
				`"faq": [{"q": string, "a": string}] (optional, max %d), "cta": string (optional, %d-%d chars)}`,
			topic,
			article.TitleMin, article.TitleMax,
			article.LeadMin, article.LeadMax,
			article.HeadingMin, article.HeadingMax,
			article.BodyMin, article.BodyMax,
			article.SectionsMin, article.SectionsMax,
			article.FAQMax,
			article.CTAMin, article.CTAMax),
			map[string]string{
				"brief":   state.Brief,
				"outline": strings.Join(state.Outline, "\n"),
			}
	default:
		return "", nil
	}
}

// ParseOutline splits an outline completion into heading lines, stripping
// list markers the model tends to add anyway.
func ParseOutline(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*+ \t")
		line = strings.TrimPrefix(line, "## ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ExtractJSON trims chat fencing around a JSON payload. Models keep
// wrapping strict-JSON answers in ``` blocks despite instructions.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if i := strings.LastIndex(raw, "```"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.TrimSpace(raw)
	}
	return raw
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
