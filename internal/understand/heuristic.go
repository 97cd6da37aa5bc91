// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package understand

import (
	"regexp"
	"strings"

	"github.com/pdiddy/labscout/pkg/types"
)

const (
	maxKeywords            = 10
	maxConcepts            = 7
	maxDescriptionKeywords = 10
	maxPrimaryQueryChars   = 100
	defaultYearSpan        = 5
)

var wordRe = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

// Heuristic builds a SearchSpec without any model. The result depends only
// on its inputs and currentYear. QueryEmbedding is left nil.
func Heuristic(description, field string, currentYear int) types.SearchSpec {
	var candidates []string
	candidates = append(candidates, wordRe.FindAllString(strings.ToLower(field), -1)...)
	descWords := wordRe.FindAllString(strings.ToLower(description), -1)
	if len(descWords) > maxDescriptionKeywords {
		descWords = descWords[:maxDescriptionKeywords]
	}
	candidates = append(candidates, descWords...)

	keywords := dedupe(candidates)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	var concepts []string
	if field != "" {
		concepts = []string{field}
	}

	primary := []rune(field + " " + description)
	if len(primary) > maxPrimaryQueryChars {
		primary = primary[:maxPrimaryQueryChars]
	}

	return types.SearchSpec{
		PrimaryQuery:     strings.TrimSpace(string(primary)),
		SemanticQuery:    description,
		Keywords:         keywords,
		Concepts:         concepts,
		MethodologyTerms: []string{},
		Synonyms:         map[string][]string{},
		PaperTypes:       []string{"research"},
		YearPreference:   defaultYears(currentYear),
	}
}

func defaultYears(currentYear int) types.YearRange {
	return types.YearRange{Min: currentYear - defaultYearSpan, Max: currentYear}
}

// dedupe removes repeated strings keeping the first occurrence.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
