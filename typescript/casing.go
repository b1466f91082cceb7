package typescript

import (
	"unicode"
	"unicode/utf8"
)

// Casing maps source identifiers to output identifiers for three
// independent contexts. Each transform lower-cases the first character only.
type Casing struct {
	TypeNames     bool
	PropertyNames bool
	EnumValues    bool
}

// TypeName applies to declared type names and to base type references.
func (c Casing) TypeName(name string) string {
	if !c.TypeNames {
		return name
	}
	return lowerFirst(name)
}

// PropertyName applies to interface and class members.
func (c Casing) PropertyName(name string) string {
	if !c.PropertyNames {
		return name
	}
	return lowerFirst(name)
}

// EnumValueName applies to enum members.
func (c Casing) EnumValueName(name string) string {
	if !c.EnumValues {
		return name
	}
	return lowerFirst(name)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	lower := unicode.ToLower(r)
	if lower == r {
		return s
	}
	return string(lower) + s[size:]
}
