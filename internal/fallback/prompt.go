// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/labscout/internal/understand"
	"github.com/pdiddy/labscout/pkg/types"
)

var recommendPromptTmpl = template.Must(template.New("recommend").Parse(`Recommend {{.Count}} real academic papers for this research context.

Field: {{.Field}}
Description: {{.Description}}
{{- if .Experiments}}

Prior experiments:
{{.Experiments}}
{{- end}}

For each paper provide:
- Real paper title (must be a real published paper)
- Year
- Source (arXiv, PubMed, Nature, etc.)
- Why it's relevant (2 sentences)
- Estimated match percentage (0-99%)

Return as JSON array:
[
  {
    "title": "Real Paper Title",
    "date": "2023",
    "source": "arXiv",
    "description": "Why this paper is relevant...",
    "match_percentage": 85,
    "match_reasons": ["Reason 1", "Reason 2"]
  }
]`))

// BuildPrompt renders the recommendation prompt. Experiments, when present,
// are summarized the same way query understanding does. It has no side
// effects.
func BuildPrompt(description, field string, experiments []types.Experiment) (string, error) {
	if field == "" {
		field = "General Science"
	}
	var expContext string
	if len(experiments) > 0 {
		expContext = understand.ExperimentContext(experiments)
	}
	var buf bytes.Buffer
	err := recommendPromptTmpl.Execute(&buf, struct {
		Count       int
		Field       string
		Description string
		Experiments string
	}{MaxRecommendations, field, description, expContext})
	if err != nil {
		return "", fmt.Errorf("rendering recommendation prompt: %w", err)
	}
	return buf.String(), nil
}
