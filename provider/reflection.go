package provider

import (
	"context"
	"encoding"
	"encoding/json"
	"go/token"
	"reflect"
	"strings"
	"time"

	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/ir"
)

var (
	timeType          = reflect.TypeOf(time.Time{})
	durationType      = reflect.TypeOf(time.Duration(0))
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// ReflectionProvider extracts declarations from live Go values. It sees no
// comments or constants, so it never produces summaries or enums.
type ReflectionProvider struct {
	// OptionalByDefault marks every member optional unless its validate
	// tag says required.
	OptionalByDefault bool
}

// Load declares every named struct type reachable from values. Dependencies
// come before the types that reference them, so a single document never
// needs to import its own types.
func (p *ReflectionProvider) Load(ctx context.Context, values ...any) (*ir.Schema, error) {
	if len(values) == 0 {
		return nil, errors.New("reflection provider: no values provided")
	}
	b := &reflectionBuilder{
		opts:     p,
		schema:   &ir.Schema{},
		declared: make(map[reflect.Type]bool),
		visiting: make(map[reflect.Type]bool),
		inlining: make(map[reflect.Type]bool),
	}
	for _, v := range values {
		t, ok := v.(reflect.Type)
		if !ok {
			t = reflect.TypeOf(v)
		}
		if t == nil {
			return nil, errors.New("reflection provider: nil value has no type")
		}
		if err := b.declare(ctx, t); err != nil {
			return nil, err
		}
	}
	return b.schema, nil
}

type reflectionBuilder struct {
	opts     *ReflectionProvider
	schema   *ir.Schema
	declared map[reflect.Type]bool
	visiting map[reflect.Type]bool
	inlining map[reflect.Type]bool // types being expanded inline
	current  string
}

// declare walks t and emits each named struct after its dependencies.
func (b *reflectionBuilder) declare(ctx context.Context, t reflect.Type) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || b.declared[t] || b.visiting[t] || isOpaque(t) {
		return nil
	}
	b.visiting[t] = true
	defer delete(b.visiting, t)

	for _, dep := range structDeps(t) {
		if err := b.declare(ctx, dep); err != nil {
			return err
		}
	}
	if t.Name() == "" || !token.IsExported(t.Name()) {
		return nil
	}

	prev := b.current
	b.current = t.Name()
	d := ir.Declaration{Name: t.Name(), Group: packageName(t)}
	d.Members, d.BaseName, d.BaseGroup = b.members(t, true, make(map[reflect.Type]bool))
	b.current = prev

	b.declared[t] = true
	b.schema.Add(d)
	return nil
}

func (b *reflectionBuilder) members(t reflect.Type, top bool, flattening map[reflect.Type]bool) (members []ir.Member, baseName, baseGroup string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, jsonOpts := jsonName(f.Tag)
		if name == "-" {
			continue
		}

		if f.Anonymous && name == "" {
			et := f.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && !isOpaque(et) {
				if top && baseName == "" && et.Name() != "" && f.IsExported() {
					baseName, baseGroup = et.Name(), packageName(et)
					continue
				}
				if !flattening[et] {
					flattening[et] = true
					promoted, _, _ := b.members(et, false, flattening)
					delete(flattening, et)
					members = append(members, promoted...)
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		ref, ok := b.convert(f.Type)
		if !ok {
			b.warn(WarnUnsupportedType, "field "+f.Name+" of type "+f.Type.String()+" is skipped")
			continue
		}
		if name == "" {
			name = f.Name
		}
		required := hasRule(f.Tag.Get("validate"), "required")
		opts := strings.Join(jsonOpts, ",")
		optional := ref.Optional || b.opts.OptionalByDefault || hasRule(opts, "omitempty") || hasRule(opts, "omitzero")
		ref.Optional = optional && !required

		members = append(members, ir.Member{Name: name, Type: ref, Required: required})
	}
	return members, baseName, baseGroup
}

// convert mirrors the source provider's mapping on reflect kinds. A type met
// again while it is being expanded inline becomes any.
func (b *reflectionBuilder) convert(t reflect.Type) (ir.TypeRef, bool) {
	switch {
	case t == timeType:
		return ir.Simple("string"), true
	case t == durationType:
		return ir.Simple("number"), true
	case t.Name() != "" && isOpaque(t):
		b.warn(WarnCustomMarshaler, "type "+t.Name()+" implements a custom marshaler, mapped to any")
		return ir.Any(), true
	}

	switch t.Kind() {
	case reflect.Bool:
		return ir.Simple("boolean"), true
	case reflect.String:
		return ir.Simple("string"), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return ir.Simple("number"), true

	case reflect.Pointer:
		r, ok := b.convert(t.Elem())
		return r.AsOptional(), ok

	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return ir.Simple("string"), true
		}
		if b.inlining[t] {
			return ir.Any(), true
		}
		b.inlining[t] = true
		defer delete(b.inlining, t)
		r, ok := b.convert(t.Elem())
		if !ok {
			return r, false
		}
		r.Optional = false
		if r.Array {
			if r.Known && r.Simple {
				return ir.Simple(r.Name + "[]").AsArray(), true
			}
			b.warn(WarnNestedArray, "nested array of "+t.Elem().String()+" mapped to any[]")
			return ir.Any().AsArray(), true
		}
		return r.AsArray(), true

	case reflect.Map:
		k := t.Key().Kind()
		validKey := k == reflect.String || (k >= reflect.Int && k <= reflect.Uintptr) || t.Key().Implements(textMarshalerType)
		if !validKey {
			b.warn(WarnUnsupportedMap, "map key "+t.Key().String()+" has no JSON form, mapped to any")
			return ir.Any(), true
		}
		v, ok := b.convert(t.Elem())
		if !ok || !v.Known || !v.Simple {
			b.warn(WarnUnsupportedMap, "map value "+t.Elem().String()+" is not a primitive, mapped to any")
			return ir.Any(), true
		}
		return ir.Simple("{ [key: string]: " + simpleName(v) + " }"), true

	case reflect.Struct:
		if token.IsExported(t.Name()) {
			return ir.Named(t.Name()).InGroup(packageName(t)), true
		}
		if b.inlining[t] {
			return ir.Any(), true
		}
		b.inlining[t] = true
		defer delete(b.inlining, t)
		members, _, _ := b.members(t, false, make(map[reflect.Type]bool))
		return ir.Anonymous(members...), true

	case reflect.Interface:
		return ir.Any(), true

	default:
		return ir.TypeRef{}, false
	}
}

func (b *reflectionBuilder) warn(code, msg string) {
	b.schema.AddWarning(ir.Warning{Code: code, Message: msg, TypeName: b.current})
}

// structDeps lists the struct types t's fields refer to, in field order.
func structDeps(t reflect.Type) []reflect.Type {
	var deps []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name, _ := jsonName(f.Tag); name == "-" {
			continue
		}
		deps = append(deps, f.Type)
	}
	return deps
}

// isOpaque reports types that control their own JSON form.
func isOpaque(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	return t.Implements(jsonMarshalerType) || reflect.PointerTo(t).Implements(jsonMarshalerType) ||
		t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)
}

// packageName returns the last element of t's package path.
func packageName(t reflect.Type) string {
	p := t.PkgPath()
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}
