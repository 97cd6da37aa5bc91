// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/pdiddy/labscout/pkg/types"
)

const titleKeyLen = 60

// TitleKey returns the deduplication identity of a title: lowercase ASCII
// letters and digits only, truncated to 60 characters.
func TitleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == titleKeyLen {
				break
			}
		}
	}
	return b.String()
}

// Deduplicate drops candidates whose TitleKey was already seen or is
// empty. Survivors keep their relative order; the first occurrence wins.
func Deduplicate(candidates []types.Candidate) []types.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := TitleKey(c.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
