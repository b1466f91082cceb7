package typescript

import (
	"bytes"
	"strings"

	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/ir"
)

// ErrUnnamedDeclaration is returned when a declaration has an empty name.
// It is a caller contract violation and is marked as an assertion failure.
var ErrUnnamedDeclaration = errors.New("declaration has no name")

// anyType is the placeholder for members whose type cannot be named.
const anyType = "any"

// Emitter renders declarations as TypeScript definition text. An Emitter
// carries only its options, so one value may be used for any number of
// concurrent Emit calls.
type Emitter struct {
	opts    Options
	casing  Casing
	wrap    Wrapping
	unit    string
	keyword string
}

// NewEmitter returns an emitter for opts.
func NewEmitter(opts Options) *Emitter {
	keyword := "interface"
	if opts.ClassInsteadOfInterface {
		keyword = "class"
	}
	return &Emitter{
		opts:    opts,
		casing:  opts.Casing(),
		wrap:    opts.Wrapping(),
		unit:    opts.indentUnit(),
		keyword: keyword,
	}
}

// Emit renders decls with opts. See Emitter.Emit.
func Emit(decls []ir.Declaration, opts Options) (string, error) {
	return NewEmitter(opts).Emit(decls)
}

// Wrapping returns the strategy the emitter was built with.
func (e *Emitter) Wrapping() Wrapping {
	return e.wrap
}

// Emit renders decls into one document. Declarations are grouped by key in
// first-seen order and keep their relative order within a group. The result
// is byte-identical for identical input and options; an empty or
// whitespace-only result means there is nothing to generate.
func (e *Emitter) Emit(decls []ir.Declaration) (string, error) {
	for i, d := range decls {
		if d.Name == "" {
			return "", errors.WithAssertionFailure(
				errors.Wrapf(ErrUnnamedDeclaration, "declaration %d in group %q", i, d.Group))
		}
	}

	run := &emission{
		Emitter:  e,
		imports:  make(importSet),
		declared: make(map[string]bool),
	}
	for _, g := range groupDeclarations(decls) {
		run.emitGroup(g)
	}

	out := Assemble(run.imports.statements(), run.buf.String())
	if e.opts.LineEnding == "crlf" {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	return out, nil
}

// group is the run of declarations sharing one grouping key.
type group struct {
	key   string
	decls []ir.Declaration
}

// groupDeclarations partitions decls by key, keeping first-seen group order
// and input order inside each group.
func groupDeclarations(decls []ir.Declaration) []group {
	var groups []group
	index := make(map[string]int)
	for _, d := range decls {
		i, ok := index[d.Group]
		if !ok {
			i = len(groups)
			index[d.Group] = i
			groups = append(groups, group{key: d.Group})
		}
		groups[i].decls = append(groups[i].decls, d)
	}
	return groups
}

// emission is the state of a single Emit call.
type emission struct {
	*Emitter
	buf      bytes.Buffer
	imports  importSet
	declared map[string]bool // output names declared so far in this document
	group    string          // key of the group being emitted
}

func (r *emission) emitGroup(g group) {
	name := g.key
	if name == "" {
		name = r.opts.DefaultModuleName
	}
	wrapped := r.wrap == WrapNamespace && name != ""
	r.group = g.key

	indent := ""
	if wrapped {
		r.line("", "declare module "+name+" {")
		indent = r.unit
	}
	for _, d := range g.decls {
		if d.Enum {
			r.emitEnum(indent, d)
		} else {
			r.emitInterface(indent, d)
		}
	}
	if wrapped {
		r.line("", "}")
	}
}

func (r *emission) emitEnum(indent string, d ir.Declaration) {
	r.comment(indent, d.Summary)
	name := r.casing.TypeName(d.Name)
	r.declared[name] = true

	r.line(indent, r.export()+"const enum "+name+" {")
	inner := indent + r.unit
	for _, m := range d.Members {
		r.comment(inner, m.Summary)
		value := r.casing.EnumValueName(m.Name)
		if m.InitExpression != nil {
			value += " = " + CleanEnumInit(*m.InitExpression)
		}
		r.line(inner, value+",")
	}
	r.line(indent, "}")
}

func (r *emission) emitInterface(indent string, d ir.Declaration) {
	r.comment(indent, d.Summary)
	name := r.casing.TypeName(d.Name)
	r.declared[name] = true

	r.buf.WriteString(indent)
	r.buf.WriteString(r.export())
	r.buf.WriteString(r.keyword)
	r.buf.WriteString(" ")
	r.buf.WriteString(name)
	r.buf.WriteString(" ")

	if d.HasBase() {
		base := r.casing.TypeName(d.BaseName)
		r.buf.WriteString("extends ")
		r.buf.WriteString(r.qualifier(d.BaseGroup))
		r.buf.WriteString(base)
		r.buf.WriteString(" ")
		r.reference(base)
	}

	r.emitBody(indent, d.Members)
	r.buf.WriteString("\n\n")
}

// emitBody writes a brace-delimited member list whose closing brace sits at
// prefix. Anonymous member shapes recurse one level deeper, without limit.
func (r *emission) emitBody(prefix string, members []ir.Member) {
	r.buf.WriteString("{\n")
	inner := prefix + r.unit
	for _, m := range members {
		r.comment(inner, m.Summary)

		r.buf.WriteString(inner)
		r.buf.WriteString(r.casing.PropertyName(m.Name))
		if m.Type.Optional {
			r.buf.WriteString("?")
		}
		r.buf.WriteString(": ")
		r.emitType(inner, m.Type)
		r.buf.WriteString(";\n")
	}
	r.buf.WriteString(prefix)
	r.buf.WriteString("}")
}

func (r *emission) emitType(prefix string, t ir.TypeRef) {
	switch {
	case t.Known && t.Name != "" && t.Simple:
		r.buf.WriteString(t.Name)
	case t.Known && t.Name != "":
		name := r.casing.TypeName(t.Name)
		r.buf.WriteString(r.qualifier(t.Group))
		r.buf.WriteString(name)
		r.reference(name)
	case t.IsAnonymous():
		r.emitBody(prefix, t.Shape)
	default:
		r.buf.WriteString(anyType)
	}
	if t.Array {
		r.buf.WriteString("[]")
	}
}

// qualifier prefixes references into another group outside module mode,
// where the group is the enclosing namespace.
func (r *emission) qualifier(group string) string {
	if r.wrap == WrapModule || group == "" || group == r.group {
		return ""
	}
	return group + "."
}

// reference records an import for a complex type name when the document is
// a module and the name was not declared earlier in it.
func (r *emission) reference(name string) {
	if r.wrap != WrapModule || r.declared[name] {
		return
	}
	r.imports.add(name)
}

func (r *emission) export() string {
	if r.wrap == WrapModule {
		return "export "
	}
	return ""
}

func (r *emission) comment(indent, summary string) {
	if c := docComment(summary); c != "" {
		r.line(indent, c)
	}
}

func (r *emission) line(indent, s string) {
	r.buf.WriteString(indent)
	r.buf.WriteString(s)
	r.buf.WriteByte('\n')
}
