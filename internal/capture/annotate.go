package capture

import (
	"regexp"
	"strings"
)

// maxConceptNameLen bounds the name derived from an annotation's text.
const maxConceptNameLen = 80

// learnMarker matches the single-line learning annotation convention:
// a comment prefix followed by LEARN and a colon, whitespace-tolerant
// around the colon. The capture is the rest of the line.
var learnMarker = regexp.MustCompile(`#\s*LEARN\s*:\s*(.+)`)

// ExtractAnnotations returns the trimmed text of every learning annotation
// in the input, in order of appearance.
func ExtractAnnotations(text string) []string {
	matches := learnMarker.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	found := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := strings.TrimSpace(m[1]); t != "" {
			found = append(found, t)
		}
	}
	return found
}

// conceptName derives a concept name from an annotation's explanation text,
// truncated to a bounded length on a rune boundary.
func conceptName(explanation string) string {
	runes := []rune(explanation)
	if len(runes) <= maxConceptNameLen {
		return explanation
	}
	return string(runes[:maxConceptNameLen])
}
