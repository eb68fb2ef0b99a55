// Package plaintext flattens Markdown produced by text-generation models
// into plain text suitable for chat clients that render no markup.
package plaintext

import (
	"regexp"
	"strings"
)

var (
	headerRegex      = regexp.MustCompile(`^#{1,6}\s+`)
	boldRegex        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRegex   = regexp.MustCompile(`__([^_]+)__`)
	italicRegex      = regexp.MustCompile(`\*([^*]+)\*`)
	italicUnderRegex = regexp.MustCompile(`_([^_]+)_`)
	linkRegex        = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	bulletRegex      = regexp.MustCompile(`^[-*+]\s+`)
	numberedRegex    = regexp.MustCompile(`^\d+[.)]\s+`)
	inlineCodeRegex  = regexp.MustCompile("`([^`]*)`")
)

// Flatten strips Markdown structure from model output. Headers become bare
// lines, list items become "• " bullets, emphasis and links collapse to their
// text. The transformation is deterministic and idempotent on plain text.
func Flatten(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blankRun := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "```" || strings.HasPrefix(trimmed, "```") {
			continue
		}

		trimmed = headerRegex.ReplaceAllString(trimmed, "")
		if bulletRegex.MatchString(trimmed) {
			trimmed = "• " + bulletRegex.ReplaceAllString(trimmed, "")
		} else if numberedRegex.MatchString(trimmed) {
			trimmed = "• " + numberedRegex.ReplaceAllString(trimmed, "")
		}

		trimmed = linkRegex.ReplaceAllString(trimmed, "$1")
		trimmed = boldRegex.ReplaceAllString(trimmed, "$1")
		trimmed = boldUnderRegex.ReplaceAllString(trimmed, "$1")
		trimmed = italicRegex.ReplaceAllString(trimmed, "$1")
		trimmed = italicUnderRegex.ReplaceAllString(trimmed, "$1")
		trimmed = inlineCodeRegex.ReplaceAllString(trimmed, "$1")

		if trimmed == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		out = append(out, trimmed)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
