// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package understand

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/labscout/pkg/types"
)

// SystemPrompt frames the model for structured extraction.
const SystemPrompt = "You are an expert academic research assistant. Extract precise search parameters."

// maxContextParameters caps the parameters listed in the experiment context.
const maxContextParameters = 15

// understandingPromptTmpl asks for the SearchSpec fields as one JSON object.
var understandingPromptTmpl = template.Must(template.New("understanding").Parse(`You are an academic research assistant. Analyze this research context and extract detailed search parameters.

## Research Context
Field: {{.Field}}
Description: {{.Description}}

## Experiment Details
{{.Experiments}}

## Task
Extract comprehensive search parameters for finding related academic papers:

1. **primary_query**: Main search query (5-10 words)
2. **semantic_query**: Natural language description for embedding search
3. **keywords**: List of 8-10 specific technical keywords
4. **concepts**: List of 5-7 broader scientific concepts
5. **methodology_terms**: Research methods likely used (e.g., "machine learning", "spectroscopy", "RCT")
6. **synonyms**: Alternative terms for key concepts (helps find papers using different terminology)
7. **paper_types**: Expected paper types ["research", "review", "meta-analysis", "case-study"]
8. **year_preference**: Ideal publication year range
9. **expected_fields**: Related scientific fields

Return as JSON:
{
    "primary_query": "optimized academic search query",
    "semantic_query": "detailed natural language description of the research",
    "keywords": ["keyword1", "keyword2"],
    "concepts": ["concept1", "concept2"],
    "methodology_terms": ["method1", "method2"],
    "synonyms": {"term1": ["syn1", "syn2"], "term2": ["syn3"]},
    "paper_types": ["research", "review"],
    "year_preference": {"min": {{.MinYear}}, "max": {{.MaxYear}}},
    "expected_fields": ["field1", "field2"]
}

Return ONLY valid JSON.`))

// BuildPrompt renders the understanding prompt. It has no side effects.
func BuildPrompt(description, field string, experiments []types.Experiment, currentYear int) (string, error) {
	if field == "" {
		field = "General Science"
	}
	if description == "" {
		description = "Laboratory research project"
	}
	data := struct {
		Field, Description, Experiments string
		MinYear, MaxYear                int
	}{
		Field:       field,
		Description: description,
		Experiments: ExperimentContext(experiments),
		MinYear:     currentYear - defaultYearSpan,
		MaxYear:     currentYear,
	}
	var buf bytes.Buffer
	if err := understandingPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExperimentContext summarizes prior experiments for the prompt: one line
// per experiment and the distinct parameters studied, up to 15.
func ExperimentContext(experiments []types.Experiment) string {
	if len(experiments) == 0 {
		return "No experiments recorded yet."
	}

	var lines []string
	var params []string
	seen := make(map[string]bool)

	for _, exp := range experiments {
		name := exp.Name
		if name == "" {
			name = "Unnamed"
		}
		lines = append(lines, "- Experiment: "+name)
		for _, p := range exp.Parameters {
			if p.Name == "" {
				continue
			}
			unit := p.Unit
			if unit == "" {
				unit = "no unit"
			}
			label := fmt.Sprintf("%s (%s)", p.Name, unit)
			if !seen[label] {
				seen[label] = true
				params = append(params, label)
			}
		}
		if exp.DataPoints > 0 {
			lines = append(lines, fmt.Sprintf("  Data points: %d", exp.DataPoints))
		}
	}

	if len(params) > 0 {
		if len(params) > maxContextParameters {
			params = params[:maxContextParameters]
		}
		lines = append(lines, "\nParameters studied: "+strings.Join(params, ", "))
	}
	return strings.Join(lines, "\n")
}
