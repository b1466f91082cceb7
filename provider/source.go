// Package provider builds the declaration model the emitter consumes, from Go
// source, from live Go values, or from a JSON/YAML model file.
package provider

import (
	"context"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/ir"
)

// Warning codes reported by the providers.
const (
	WarnCustomMarshaler = "CUSTOM_MARSHALER"
	WarnUnsupportedMap  = "UNSUPPORTED_MAP"
	WarnUnsupportedType = "UNSUPPORTED_TYPE"
	WarnNestedArray     = "NESTED_ARRAY"
	WarnInterfaceType   = "INTERFACE_TYPE"
)

// SourceProvider extracts declarations by type-checking Go packages.
type SourceProvider struct{}

// SourceOptions configures SourceProvider.Load.
type SourceOptions struct {
	// Patterns are go/packages patterns such as "./models" or
	// "example.com/app/...".
	Patterns []string

	// Dir is the directory patterns are resolved from. Empty means the
	// current directory.
	Dir string

	// RootTypes restricts output to these type names and the types they
	// reference. Empty means every exported type.
	RootTypes []string

	// OptionalByDefault marks every member optional unless its validate
	// tag says required.
	OptionalByDefault bool
}

// Load returns the declarations of the matched packages in source order:
// packages in load order, files in compiled order, types in file order.
func (p *SourceProvider) Load(ctx context.Context, opts SourceOptions) (*ir.Schema, error) {
	if len(opts.Patterns) == 0 {
		return nil, errors.New("source provider: no packages specified")
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
	}
	pkgs, err := packages.Load(cfg, opts.Patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "load packages")
	}
	if len(pkgs) == 0 {
		return nil, errors.Newf("no packages match %s", strings.Join(opts.Patterns, " "))
	}

	var loadErrs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			loadErrs = append(loadErrs, errors.Newf("%s: %v", pkg.PkgPath, e))
		}
	}
	if len(loadErrs) > 0 {
		return nil, errors.WithHint(errors.Join(loadErrs...),
			"the packages must type-check before definitions can be generated")
	}

	b := newSourceBuilder(opts, pkgs)
	b.indexSyntax()
	b.collect()
	return b.finish()
}

// sourceBuilder accumulates declarations for one Load call.
type sourceBuilder struct {
	opts SourceOptions
	pkgs []*packages.Package

	docs       map[token.Pos]string // field and type docs by identifier position
	enumValues map[*types.TypeName][]enumValue

	decls    []ownedDecl
	warnings []ownedWarning
	refs     map[*types.TypeName][]*types.TypeName

	current    *types.TypeName
	inlining   map[*types.Named]bool
	flattening map[*types.TypeName]bool
}

type enumValue struct {
	name string
	init string
	doc  string
}

type ownedDecl struct {
	owner *types.TypeName
	decl  ir.Declaration
}

type ownedWarning struct {
	owner   *types.TypeName
	warning ir.Warning
}

func newSourceBuilder(opts SourceOptions, pkgs []*packages.Package) *sourceBuilder {
	return &sourceBuilder{
		opts:       opts,
		pkgs:       pkgs,
		docs:       make(map[token.Pos]string),
		enumValues: make(map[*types.TypeName][]enumValue),
		refs:       make(map[*types.TypeName][]*types.TypeName),
		inlining:   make(map[*types.Named]bool),
		flattening: make(map[*types.TypeName]bool),
	}
}

// indexSyntax records field docs and enum constants in declaration order.
func (b *sourceBuilder) indexSyntax() {
	for _, pkg := range b.pkgs {
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				if f, ok := n.(*ast.Field); ok {
					doc := commentText(f.Doc, f.Comment)
					for _, name := range f.Names {
						b.docs[name.Pos()] = doc
					}
				}
				return true
			})

			for _, d := range file.Decls {
				gd, ok := d.(*ast.GenDecl)
				if !ok || gd.Tok != token.CONST {
					continue
				}
				for _, spec := range gd.Specs {
					b.indexConstSpec(pkg, spec.(*ast.ValueSpec))
				}
			}
		}
	}
}

func (b *sourceBuilder) indexConstSpec(pkg *packages.Package, vs *ast.ValueSpec) {
	doc := commentText(vs.Doc, vs.Comment)
	for i, name := range vs.Names {
		c, ok := pkg.TypesInfo.Defs[name].(*types.Const)
		if !ok || !c.Exported() {
			continue
		}
		named, ok := c.Type().(*types.Named)
		if !ok {
			continue
		}
		init := constantText(c.Val())
		if i < len(vs.Values) {
			if lit, ok := vs.Values[i].(*ast.BasicLit); ok && lit.Kind == token.INT && isHexLiteral(lit.Value) {
				init = lit.Value
			}
		}
		tn := named.Obj()
		b.enumValues[tn] = append(b.enumValues[tn], enumValue{name: c.Name(), init: init, doc: doc})
	}
}

func (b *sourceBuilder) collect() {
	for _, pkg := range b.pkgs {
		for _, file := range pkg.Syntax {
			for _, d := range file.Decls {
				gd, ok := d.(*ast.GenDecl)
				if !ok || gd.Tok != token.TYPE {
					continue
				}
				for _, spec := range gd.Specs {
					ts := spec.(*ast.TypeSpec)
					tn, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
					if !ok || !tn.Exported() || tn.IsAlias() {
						continue
					}
					doc := ts.Doc
					if doc == nil && len(gd.Specs) == 1 {
						doc = gd.Doc
					}
					b.declare(pkg, tn, commentText(doc, nil))
				}
			}
		}
	}
}

func (b *sourceBuilder) declare(pkg *packages.Package, tn *types.TypeName, doc string) {
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return
	}
	b.current = tn
	defer func() { b.current = nil }()

	switch u := named.Underlying().(type) {
	case *types.Struct:
		if hasCustomMarshaler(named) {
			b.warn(WarnCustomMarshaler, "type "+tn.Name()+" implements a custom marshaler, references render as any")
			return
		}
		d := ir.Declaration{Name: tn.Name(), Group: pkg.Name, Summary: doc}
		d.Members, d.BaseName, d.BaseGroup = b.structMembers(u, true)
		b.decls = append(b.decls, ownedDecl{owner: tn, decl: d})

	case *types.Basic:
		values := b.enumValues[tn]
		if len(values) == 0 {
			return
		}
		d := ir.Declaration{Name: tn.Name(), Group: pkg.Name, Enum: true, Summary: doc}
		for _, v := range values {
			d.Members = append(d.Members, ir.Member{
				Name:           v.name,
				Summary:        v.doc,
				InitExpression: ir.Init(v.init),
			})
		}
		b.decls = append(b.decls, ownedDecl{owner: tn, decl: d})
	}
}

// structMembers converts exported fields. At the top level the first
// untagged embedded struct becomes the base type; other untagged embeds are
// flattened, the way encoding/json promotes their fields.
func (b *sourceBuilder) structMembers(st *types.Struct, top bool) (members []ir.Member, baseName, baseGroup string) {
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))
		name, jsonOpts := jsonName(tag)
		if name == "-" {
			continue
		}

		if f.Embedded() && name == "" {
			if tn, inner := embeddedStruct(f.Type()); tn != nil {
				if top && baseName == "" && tn.Exported() {
					baseName, baseGroup = tn.Name(), tn.Pkg().Name()
					b.ref(tn)
					continue
				}
				if !b.flattening[tn] {
					b.flattening[tn] = true
					promoted, _, _ := b.structMembers(inner, false)
					delete(b.flattening, tn)
					members = append(members, promoted...)
				}
				continue
			}
		}
		if !f.Exported() {
			continue
		}

		t, ok := b.convertType(f.Type())
		if !ok {
			b.warn(WarnUnsupportedType, "field "+f.Name()+" of type "+f.Type().String()+" is skipped")
			continue
		}
		if name == "" {
			name = f.Name()
		}
		required := hasRule(tag.Get("validate"), "required")
		optional := t.Optional || b.opts.OptionalByDefault ||
			hasRule(strings.Join(jsonOpts, ","), "omitempty") ||
			hasRule(strings.Join(jsonOpts, ","), "omitzero")
		t.Optional = optional && !required

		members = append(members, ir.Member{
			Name:     name,
			Type:     t,
			Summary:  b.docs[f.Pos()],
			Required: required,
		})
	}
	return members, baseName, baseGroup
}

// convertType maps a Go type to a reference. It reports false for types with
// no JSON form, such as channels and functions.
func (b *sourceBuilder) convertType(t types.Type) (ir.TypeRef, bool) {
	switch typ := types.Unalias(t).(type) {
	case *types.Basic:
		return basicRef(typ), true

	case *types.Named:
		obj := typ.Obj()
		if obj.Pkg() != nil && obj.Pkg().Path() == "time" {
			switch obj.Name() {
			case "Time":
				return ir.Simple("string"), true
			case "Duration":
				return ir.Simple("number"), true
			}
		}
		if hasCustomMarshaler(typ) {
			b.warn(WarnCustomMarshaler, "type "+obj.Name()+" implements a custom marshaler, mapped to any")
			return ir.Any(), true
		}
		switch u := typ.Underlying().(type) {
		case *types.Struct:
			if !obj.Exported() {
				// Unexported structs are never declared, so their shape is inlined.
				if b.inlining[typ] {
					return ir.Any(), true
				}
				b.inlining[typ] = true
				defer delete(b.inlining, typ)
				members, _, _ := b.structMembers(u, false)
				return ir.Anonymous(members...), true
			}
			b.ref(obj)
			return ir.Named(obj.Name()).InGroup(obj.Pkg().Name()), true
		case *types.Basic:
			if b.isEnum(obj) {
				b.ref(obj)
				return ir.Named(obj.Name()).InGroup(obj.Pkg().Name()), true
			}
			return basicRef(u), true
		default:
			if b.inlining[typ] {
				return ir.Any(), true
			}
			b.inlining[typ] = true
			defer delete(b.inlining, typ)
			return b.convertType(u)
		}

	case *types.Pointer:
		r, ok := b.convertType(typ.Elem())
		return r.AsOptional(), ok

	case *types.Slice:
		if isByte(typ.Elem()) {
			return ir.Simple("string"), true
		}
		return b.arrayOf(typ.Elem())

	case *types.Array:
		return b.arrayOf(typ.Elem())

	case *types.Map:
		if !isValidMapKey(typ.Key()) {
			b.warn(WarnUnsupportedMap, "map key "+typ.Key().String()+" has no JSON form, mapped to any")
			return ir.Any(), true
		}
		v, ok := b.convertType(typ.Elem())
		if !ok || !v.Known || !v.Simple {
			b.warn(WarnUnsupportedMap, "map value "+typ.Elem().String()+" is not a primitive, mapped to any")
			return ir.Any(), true
		}
		return ir.Simple("{ [key: string]: " + simpleName(v) + " }"), true

	case *types.Struct:
		members, _, _ := b.structMembers(typ, false)
		return ir.Anonymous(members...), true

	case *types.Interface:
		if !typ.Empty() {
			b.warn(WarnInterfaceType, "interface "+typ.String()+" mapped to any")
		}
		return ir.Any(), true

	case *types.TypeParam:
		return ir.Any(), true

	default:
		return ir.TypeRef{}, false
	}
}

func (b *sourceBuilder) arrayOf(elem types.Type) (ir.TypeRef, bool) {
	r, ok := b.convertType(elem)
	if !ok {
		return r, false
	}
	r.Optional = false
	if r.Array {
		if r.Known && r.Simple {
			return ir.Simple(r.Name + "[]").AsArray(), true
		}
		b.warn(WarnNestedArray, "nested array of "+elem.String()+" mapped to any[]")
		return ir.Any().AsArray(), true
	}
	return r.AsArray(), true
}

// isEnum reports whether tn has exported constants of its own type. Types
// outside the loaded packages are checked through their package scope.
func (b *sourceBuilder) isEnum(tn *types.TypeName) bool {
	if len(b.enumValues[tn]) > 0 {
		return true
	}
	if tn.Pkg() == nil {
		return false
	}
	scope := tn.Pkg().Scope()
	for _, name := range scope.Names() {
		if c, ok := scope.Lookup(name).(*types.Const); ok && c.Exported() && types.Identical(c.Type(), tn.Type()) {
			return true
		}
	}
	return false
}

func (b *sourceBuilder) ref(tn *types.TypeName) {
	if b.current != nil && tn != b.current {
		b.refs[b.current] = append(b.refs[b.current], tn)
	}
}

func (b *sourceBuilder) warn(code, msg string) {
	w := ir.Warning{Code: code, Message: msg}
	if b.current != nil {
		w.TypeName = b.current.Name()
	}
	b.warnings = append(b.warnings, ownedWarning{owner: b.current, warning: w})
}

// finish applies RootTypes and builds the schema.
func (b *sourceBuilder) finish() (*ir.Schema, error) {
	keep := func(*types.TypeName) bool { return true }

	if len(b.opts.RootTypes) > 0 {
		wanted := make(map[*types.TypeName]bool)
		var queue []*types.TypeName
		for _, name := range b.opts.RootTypes {
			tn := b.lookup(name)
			if tn == nil {
				return nil, errors.WithHint(
					errors.Newf("type %s not found in %s", name, strings.Join(b.opts.Patterns, " ")),
					"root types are unqualified names of exported types")
			}
			queue = append(queue, tn)
		}
		for len(queue) > 0 {
			tn := queue[0]
			queue = queue[1:]
			if wanted[tn] {
				continue
			}
			wanted[tn] = true
			queue = append(queue, b.refs[tn]...)
		}
		keep = func(tn *types.TypeName) bool { return wanted[tn] }
	}

	schema := &ir.Schema{}
	for _, d := range b.decls {
		if keep(d.owner) {
			schema.Add(d.decl)
		}
	}
	for _, w := range b.warnings {
		if w.owner == nil || keep(w.owner) {
			schema.AddWarning(w.warning)
		}
	}
	return schema, nil
}

func (b *sourceBuilder) lookup(name string) *types.TypeName {
	for _, pkg := range b.pkgs {
		if tn, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName); ok {
			return tn
		}
	}
	return nil
}

func basicRef(basic *types.Basic) ir.TypeRef {
	info := basic.Info()
	switch {
	case info&types.IsBoolean != 0:
		return ir.Simple("boolean")
	case info&types.IsString != 0:
		return ir.Simple("string")
	case info&(types.IsInteger|types.IsFloat) != 0:
		return ir.Simple("number")
	default:
		return ir.Any()
	}
}

func simpleName(t ir.TypeRef) string {
	if t.Array {
		return t.Name + "[]"
	}
	return t.Name
}

func embeddedStruct(t types.Type) (*types.TypeName, *types.Struct) {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return nil, nil
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, nil
	}
	return named.Obj(), st
}

func isByte(t types.Type) bool {
	basic, ok := types.Unalias(t).(*types.Basic)
	return ok && basic.Kind() == types.Uint8
}

// hasCustomMarshaler reports a MarshalJSON or MarshalText method.
func hasCustomMarshaler(named *types.Named) bool {
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if m.Name() != "MarshalJSON" && m.Name() != "MarshalText" {
			continue
		}
		if sig, ok := m.Type().(*types.Signature); ok && sig.Params().Len() == 0 && sig.Results().Len() == 2 {
			return true
		}
	}
	return false
}

func isValidMapKey(t types.Type) bool {
	switch typ := types.Unalias(t).(type) {
	case *types.Basic:
		return typ.Info()&(types.IsString|types.IsInteger) != 0
	case *types.Named:
		for i := 0; i < typ.NumMethods(); i++ {
			if typ.Method(i).Name() == "MarshalText" {
				return true
			}
		}
		return isValidMapKey(typ.Underlying())
	default:
		return false
	}
}

func jsonName(tag reflect.StructTag) (string, []string) {
	v, ok := tag.Lookup("json")
	if !ok {
		return "", nil
	}
	parts := strings.Split(v, ",")
	return parts[0], parts[1:]
}

// hasRule reports whether a comma separated tag value contains rule.
func hasRule(value, rule string) bool {
	for _, r := range strings.Split(value, ",") {
		if strings.TrimSpace(r) == rule {
			return true
		}
	}
	return false
}

func isHexLiteral(lit string) bool {
	return strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X")
}

func constantText(v constant.Value) string {
	switch v.Kind() {
	case constant.String:
		return strconv.Quote(constant.StringVal(v))
	case constant.Int:
		return v.ExactString()
	default:
		return v.String()
	}
}

func commentText(groups ...*ast.CommentGroup) string {
	for _, g := range groups {
		if text := strings.TrimSpace(g.Text()); text != "" {
			return text
		}
	}
	return ""
}
