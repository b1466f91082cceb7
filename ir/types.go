// Package ir defines the input model of the definition emitter: the declared
// types a provider extracts from host-language source and the type
// references their members carry.
//
// Every value in this package is built once per generation run and consumed
// read-only by the emitter.
package ir

// TypeRef describes the type of one member.
//
// A reference is either known, in which case Name is rendered verbatim, or
// anonymous, in which case Shape lists the members of an inline structural
// type. A reference that is neither renders as the universal "any" type.
type TypeRef struct {
	// Name is the target-language name of a simple type, e.g. "number", or
	// the declared name of a complex type such as "Address". Complex names
	// go through the same type-name casing as declarations.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Group is the grouping key of the declaration a complex reference
	// points at. Empty means the referencing declaration's own group.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// Known is true when Name can be written directly.
	Known bool `json:"known,omitempty" yaml:"known,omitempty"`

	// Array marks a sequence of the described element type.
	Array bool `json:"array,omitempty" yaml:"array,omitempty"`

	// Optional marks a member that may be absent.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`

	// Simple marks primitive-like types that never need an import.
	Simple bool `json:"simple,omitempty" yaml:"simple,omitempty"`

	// Shape is the ordered member list of an anonymous type. Only
	// meaningful when Known is false.
	Shape []Member `json:"shape,omitempty" yaml:"shape,omitempty" validate:"omitempty,dive"`
}

// IsAnonymous reports whether the reference is an inline shape.
func (t TypeRef) IsAnonymous() bool {
	return !t.Known && t.Shape != nil
}

// IsAny reports whether the reference carries nothing renderable and
// therefore falls back to the universal placeholder type.
func (t TypeRef) IsAny() bool {
	if t.Known {
		return t.Name == ""
	}
	return t.Shape == nil
}

// AsArray returns a copy of t marked as an array.
func (t TypeRef) AsArray() TypeRef {
	t.Array = true
	return t
}

// InGroup returns a copy of t pointing into group.
func (t TypeRef) InGroup(group string) TypeRef {
	t.Group = group
	return t
}

// AsOptional returns a copy of t marked as optional.
func (t TypeRef) AsOptional() TypeRef {
	t.Optional = true
	return t
}

// Simple returns a known primitive-like reference such as "string".
func Simple(name string) TypeRef {
	return TypeRef{Name: name, Known: true, Simple: true}
}

// Named returns a known reference to a complex type declared elsewhere.
func Named(name string) TypeRef {
	return TypeRef{Name: name, Known: true}
}

// Anonymous returns an inline shape with the given members. A call with no
// members yields an empty object shape, not the placeholder type.
func Anonymous(members ...Member) TypeRef {
	if members == nil {
		members = []Member{}
	}
	return TypeRef{Shape: members}
}

// Any returns the reference rendered as the universal placeholder type.
func Any() TypeRef {
	return TypeRef{}
}
