package markup

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Title renders a word in English title case ("north" -> "North").
func Title(s string) string {
	return titleCaser.String(strings.ToLower(s))
}

// Highlighter bolds hint words in narrative text so players can spot
// interactive scenery. Patterns are compiled once per hint at content
// load time.
type Highlighter struct {
	regexes []*regexp.Regexp
}

// NewHighlighter compiles case-insensitive patterns for each hint word.
// Hints are matched on word boundaries so "sea" does not match "seat".
func NewHighlighter(hints []string) *Highlighter {
	h := &Highlighter{regexes: make([]*regexp.Regexp, 0, len(hints))}
	for _, hint := range hints {
		hint = strings.TrimSpace(hint)
		if hint == "" {
			continue
		}
		pattern := `(?im)\b(` + regexp.QuoteMeta(hint) + `)\b`
		h.regexes = append(h.regexes, regexp.MustCompile(pattern))
	}
	return h
}

// Bold wraps every hint match in markdown bold markers, preserving the
// original casing of the matched text.
func (h *Highlighter) Bold(text string) string {
	result := text
	for _, re := range h.regexes {
		result = re.ReplaceAllStringFunc(result, func(match string) string {
			if strings.HasPrefix(match, "**") {
				return match
			}
			return "**" + match + "**"
		})
	}
	return result
}
