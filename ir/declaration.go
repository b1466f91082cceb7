package ir

// Member is one named member of a declaration or anonymous shape.
type Member struct {
	// Name is the source identifier before any casing is applied.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Type describes the member's type.
	Type TypeRef `json:"type" yaml:"type"`

	// Summary is free-text documentation. It is collapsed to a single line
	// when emitted.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// InitExpression is the literal source text of a constant initializer.
	// Nil means no initializer. Only enum members use it.
	InitExpression *string `json:"init,omitempty" yaml:"init,omitempty"`

	// Required records that the source marked the member as mandatory.
	// Providers consult it when deciding optionality.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// Init returns a pointer to expr, for building enum members inline.
func Init(expr string) *string {
	return &expr
}

// Declaration is one top-level emittable unit: an interface/class or an enum.
type Declaration struct {
	// Name of the declared type.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Group is the namespace-equivalent key the type belongs to.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// Enum marks an enumeration.
	Enum bool `json:"enum,omitempty" yaml:"enum,omitempty"`

	// BaseName and BaseGroup reference the single base type, if any.
	BaseName  string `json:"baseName,omitempty" yaml:"baseName,omitempty"`
	BaseGroup string `json:"baseGroup,omitempty" yaml:"baseGroup,omitempty"`

	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Members in declaration order.
	Members []Member `json:"members,omitempty" yaml:"members,omitempty" validate:"dive"`
}

// HasBase reports whether the declaration extends another type.
func (d Declaration) HasBase() bool {
	return d.BaseName != ""
}

// QualifiedName returns Group.Name, or Name when the group is empty.
func (d Declaration) QualifiedName() string {
	if d.Group == "" {
		return d.Name
	}
	return d.Group + "." + d.Name
}
