package extract

import (
	"regexp"
	"strings"
)

// fencePattern matches an opening fence with an optional bare tag, a newline,
// and the shortest body up to the next fence. Unterminated fences never match.
var fencePattern = regexp.MustCompile("(?s)```(\\w[\\w+#.-]*)?\\n(.*?)```")

// Markdown extracts triple-backtick fenced regions. Nested fences are not
// supported.
type Markdown struct{}

// Regions implements Extractor.
func (Markdown) Regions(document string) []Region {
	document = strings.ReplaceAll(document, "\r\n", "\n")
	var out []Region
	for _, m := range fencePattern.FindAllStringSubmatch(document, -1) {
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		out = append(out, Region{Body: body, Tag: m[1]})
	}
	return out
}
