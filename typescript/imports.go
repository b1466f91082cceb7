package typescript

import (
	"slices"
	"strings"
)

// importSet collects the distinct names a module document imports.
type importSet map[string]struct{}

func (s importSet) add(name string) {
	s[name] = struct{}{}
}

// statements returns one import statement per name, sorted.
func (s importSet) statements() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, importStatement(name))
	}
	slices.Sort(out)
	return out
}

// importStatement derives the module path of a type from its name: every
// type lives in a sibling module named after it.
func importStatement(name string) string {
	return "import { " + name + " } from './" + name + "';"
}

// Assemble prepends the import statements, one per line and followed by a
// single blank line, to body. Statements are expected sorted and distinct.
func Assemble(imports []string, body string) string {
	if len(imports) == 0 {
		return body
	}
	var sb strings.Builder
	for _, stmt := range imports {
		sb.WriteString(stmt)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(body)
	return sb.String()
}
