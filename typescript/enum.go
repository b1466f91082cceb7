package typescript

import "strings"

// CleanEnumInit normalizes a numeric constant initializer for the target
// runtime. Integer suffixes (u, U, l, L) are dropped. Hexadecimal literals
// are kept as written; anything else loses its leading zeros so it is not
// read as octal, and a literal of only zeros becomes "0".
//
// The remainder is not checked to be numeric.
func CleanEnumInit(value string) string {
	value = strings.TrimRight(value, "uUlL")
	if len(value) >= 2 && value[0] == '0' && (value[1] == 'x' || value[1] == 'X') {
		return value
	}
	if trimmed := strings.TrimLeft(value, "0"); trimmed != "" {
		return trimmed
	}
	return "0"
}
