// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripMarkup removes HTML and JATS tags (e.g. <jats:p>) and entities and
// returns the text content with whitespace collapsed. Tag boundaries become
// spaces so adjacent elements do not run together.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ReplaceAll(s, "<", " <")))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}
