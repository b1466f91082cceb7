package ir

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schema is the full input of one generation run.
type Schema struct {
	// Declarations in the order the provider discovered them. Ordering is
	// significant: the emitter preserves it within and across groups.
	Declarations []Declaration `json:"declarations" yaml:"declarations" validate:"dive"`

	// Warnings are non-fatal issues the provider encountered.
	Warnings []Warning `json:"-" yaml:"-"`
}

// Add appends a declaration.
func (s *Schema) Add(d Declaration) {
	s.Declarations = append(s.Declarations, d)
}

// AddWarning records a non-fatal issue.
func (s *Schema) AddWarning(w Warning) {
	s.Warnings = append(s.Warnings, w)
}

// Find returns the declaration with the given group and name, or nil.
func (s *Schema) Find(group, name string) *Declaration {
	for i := range s.Declarations {
		if s.Declarations[i].Group == group && s.Declarations[i].Name == name {
			return &s.Declarations[i]
		}
	}
	return nil
}

// Warning is a non-fatal issue found while building a schema.
type Warning struct {
	// Code is a machine-readable identifier such as "UNSUPPORTED_MAP".
	Code string

	Message string

	// TypeName is the declaration that triggered the warning, if any.
	TypeName string
}

func (w Warning) String() string {
	if w.TypeName == "" {
		return w.Code + ": " + w.Message
	}
	return w.Code + ": " + w.TypeName + ": " + w.Message
}

// ValidationError is one structural problem reported by Validate.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate reports every structural problem in the schema, not just the
// first. A nil result means the schema is well formed.
func (s *Schema) Validate() []error {
	var errs []*ValidationError

	if err := validate.Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errs = append(errs, &ValidationError{
					Code:    "invalid_" + fe.Tag(),
					Message: fmt.Sprintf("%s: failed %s validation", trimNamespace(fe.Namespace()), fe.Tag()),
				})
			}
		} else {
			errs = append(errs, &ValidationError{Code: "invalid_schema", Message: err.Error()})
		}
	}

	seen := make(map[string]bool)
	for _, d := range s.Declarations {
		if d.Name == "" {
			continue
		}
		q := d.QualifiedName()
		if seen[q] {
			errs = append(errs, &ValidationError{
				Code:    "duplicate_declaration",
				Message: "duplicate declaration: " + q,
			})
		}
		seen[q] = true

		if d.Enum {
			if d.HasBase() {
				errs = append(errs, &ValidationError{
					Code:    "enum_with_base",
					Message: "enum " + q + " cannot extend " + d.BaseName,
				})
			}
			continue
		}
		for _, m := range d.Members {
			if m.InitExpression != nil {
				errs = append(errs, &ValidationError{
					Code:    "initializer_on_property",
					Message: "property " + q + "." + m.Name + " has an initializer; only enum members may",
				})
			}
		}
	}

	errs = append(errs, s.detectCircularInheritance()...)

	var result []error
	for _, e := range errs {
		result = append(result, e)
	}
	return result
}

// detectCircularInheritance follows base references between declarations of
// this schema. Bases declared outside the schema end the walk.
func (s *Schema) detectCircularInheritance() []*ValidationError {
	bases := make(map[string]string)
	for _, d := range s.Declarations {
		if d.Enum || !d.HasBase() {
			continue
		}
		base := Declaration{Name: d.BaseName, Group: d.BaseGroup}
		if d.BaseGroup == "" {
			base.Group = d.Group
		}
		bases[d.QualifiedName()] = base.QualifiedName()
	}

	var errs []*ValidationError
	reported := make(map[string]bool)
	for _, d := range s.Declarations {
		start := d.QualifiedName()
		if _, ok := bases[start]; !ok || reported[start] {
			continue
		}
		path := []string{start}
		index := map[string]int{start: 0}
		cur := start
		for {
			next, ok := bases[cur]
			if !ok {
				break
			}
			if i, seen := index[next]; seen {
				cycle := append(path[i:], next)
				if !reported[next] {
					errs = append(errs, &ValidationError{
						Code:    "circular_inheritance",
						Message: "circular inheritance detected: " + strings.Join(cycle, " -> "),
					})
				}
				for _, p := range cycle {
					reported[p] = true
				}
				break
			}
			index[next] = len(path)
			path = append(path, next)
			cur = next
		}
	}
	return errs
}

// trimNamespace drops the leading "Schema." from validator namespaces.
func trimNamespace(ns string) string {
	return strings.TrimPrefix(ns, "Schema.")
}
