package typescript

import "strings"

// Wrapping selects how groups of declarations are framed. It is chosen once
// per run from Options and never re-derived while emitting.
type Wrapping int

const (
	// WrapNamespace frames each group in "declare module <group> { ... }".
	WrapNamespace Wrapping = iota

	// WrapGlobal emits declarations flat, in the global scope.
	WrapGlobal

	// WrapModule emits flat, exported declarations and imports every
	// referenced complex type not declared in the same document.
	WrapModule
)

// String returns the strategy name.
func (w Wrapping) String() string {
	switch w {
	case WrapNamespace:
		return "namespace"
	case WrapGlobal:
		return "global"
	case WrapModule:
		return "module"
	default:
		return "unknown"
	}
}

// Default values for Options.
const (
	DefaultIndent     = "    "
	DefaultModuleName = "server"
)

// Options configures one emission. The emitter only reads it.
type Options struct {
	// Casing toggles.
	CamelCaseEnumValues    bool
	CamelCasePropertyNames bool
	CamelCaseTypeNames     bool

	// ClassInsteadOfInterface emits "class" instead of "interface".
	ClassInsteadOfInterface bool

	// GlobalScope suppresses the namespace wrapper.
	GlobalScope bool

	// NodeModule switches to flat, exported, import-based output.
	// A non-empty NodeModulePath implies it.
	NodeModule     bool
	NodeModulePath string

	// DefaultModuleName names the wrapper of declarations whose group key is
	// empty. When it is empty too, such declarations are emitted flat.
	DefaultModuleName string

	// Indent is one indentation level. Empty means DefaultIndent.
	Indent string

	// LineEnding is "lf" (default) or "crlf".
	LineEnding string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		CamelCaseEnumValues:    true,
		CamelCasePropertyNames: true,
		DefaultModuleName:      DefaultModuleName,
		Indent:                 DefaultIndent,
		LineEnding:             "lf",
	}
}

// Wrapping returns the strategy these options select. Node-module mode wins
// over global scope.
func (o Options) Wrapping() Wrapping {
	if o.NodeModule || strings.TrimSpace(o.NodeModulePath) != "" {
		return WrapModule
	}
	if o.GlobalScope {
		return WrapGlobal
	}
	return WrapNamespace
}

// Casing returns the casing policy these options select.
func (o Options) Casing() Casing {
	return Casing{
		TypeNames:     o.CamelCaseTypeNames,
		PropertyNames: o.CamelCasePropertyNames,
		EnumValues:    o.CamelCaseEnumValues,
	}
}

func (o Options) indentUnit() string {
	if o.Indent == "" {
		return DefaultIndent
	}
	return o.Indent
}
