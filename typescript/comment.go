package typescript

import "strings"

// docComment renders summary as a single-line JSDoc comment, or "" when the
// summary has no visible text.
func docComment(summary string) string {
	text := strings.Join(strings.Fields(summary), " ")
	if text == "" {
		return ""
	}
	return "/** " + strings.ReplaceAll(text, "*/", "*\\/") + " */"
}
