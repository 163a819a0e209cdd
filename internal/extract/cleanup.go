package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pageNumberRe = regexp.MustCompile(`^\d{1,4}$`)
	blankRunsRe  = regexp.MustCompile(`\n{3,}`)
)

// boilerplate lines dropped during cleanup, compared case-insensitively.
var boilerplate = map[string]struct{}{
	"page":              {},
	"chapter":           {},
	"table of contents": {},
}

// Cleanup strips common PDF extraction artifacts: bare page-number lines,
// boilerplate lines, and very short non-alphabetic fragments left behind by
// running headers. Runs of three or more newlines collapse to two. Cleanup is
// idempotent: applying it to its own output changes nothing.
func Cleanup(text string) string {
	if text == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			// Keep at most one blank line in a row.
			if len(kept) > 0 && kept[len(kept)-1] != "" {
				kept = append(kept, "")
			}
			continue
		}
		if pageNumberRe.MatchString(stripped) {
			continue
		}
		if _, ok := boilerplate[strings.ToLower(stripped)]; ok {
			continue
		}
		if len(stripped) < 4 && !startsWithLetter(stripped) {
			continue
		}
		kept = append(kept, stripped)
	}

	result := strings.Join(kept, "\n")
	result = blankRunsRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func startsWithLetter(s string) bool {
	for _, r := range s {
		return unicode.IsLetter(r)
	}
	return false
}
