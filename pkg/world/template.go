package world

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// Content scripts are Go templates evaluated against the World. A
// script can emit control tokens wrapped in %%...%%; tokens are
// stripped from the rendered text and returned separately. The literal
// token "False" vetoes exit visibility and pre-transition moves.
const (
	// PageBreak splits a topic's text into presentation-ordered chunks.
	PageBreak = "{{< pagebreak >}}"

	// TokenFalse aborts the operation whose script emitted it.
	TokenFalse = "False"

	// TokenStartChapterPrefix starts a chapter transition, e.g.
	// %%StartChapter:2%%.
	TokenStartChapterPrefix = "StartChapter:"

	// TokenFindLetterPrefix records a discovered password letter, e.g.
	// %%FindLetter:v%%.
	TokenFindLetterPrefix = "FindLetter:"
)

var tokenPattern = regexp.MustCompile(`%%(.*?)%%`)

// CheckScript validates that a templated script parses. Called at
// content load so malformed scripts are a startup error, not a
// mid-session one.
func CheckScript(text string) error {
	if text == "" {
		return nil
	}
	if _, err := template.New("script").Parse(text); err != nil {
		return fmt.Errorf("invalid script template: %w", err)
	}
	return nil
}

// Eval renders a templated script against the world and extracts
// control tokens.
func (w *World) Eval(text string) (rendered string, tokens []string, err error) {
	tmpl, err := template.New("script").Parse(text)
	if err != nil {
		return "", nil, fmt.Errorf("invalid script template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, w); err != nil {
		return "", nil, fmt.Errorf("script execution failed: %w", err)
	}
	result := sb.String()
	tokens = make([]string, 0, 1)
	rendered = tokenPattern.ReplaceAllStringFunc(result, func(match string) string {
		tokens = append(tokens, strings.TrimSuffix(strings.TrimPrefix(match, "%%"), "%%"))
		return ""
	})
	return rendered, tokens, nil
}

// hasToken reports whether the token list contains the given token.
func hasToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// SplitSections splits templated text on pagebreak markers.
func SplitSections(text string) []string {
	return strings.Split(text, PageBreak)
}
