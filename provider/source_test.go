package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsdefgen/tsdefgen/ir"
)

const modelsPkg = "github.com/tsdefgen/tsdefgen/provider/testdata/models"

func loadModels(t *testing.T, opts SourceOptions) *ir.Schema {
	t.Helper()
	opts.Patterns = []string{modelsPkg}
	schema, err := (&SourceProvider{}).Load(context.Background(), opts)
	require.NoError(t, err)
	return schema
}

func declNames(s *ir.Schema) []string {
	var names []string
	for _, d := range s.Declarations {
		names = append(names, d.Name)
	}
	return names
}

func member(t *testing.T, d *ir.Declaration, name string) ir.Member {
	t.Helper()
	for _, m := range d.Members {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("member %s not found in %s", name, d.Name)
	return ir.Member{}
}

func hasWarning(s *ir.Schema, code, typeName string) bool {
	for _, w := range s.Warnings {
		if w.Code == code && w.TypeName == typeName {
			return true
		}
	}
	return false
}

func TestSourceProvider_SourceOrder(t *testing.T) {
	schema := loadModels(t, SourceOptions{})

	assert.Equal(t, []string{"Person", "Address", "Color", "Level", "Employee", "Staff", "Log", "Chain"}, declNames(schema))
	for _, d := range schema.Declarations {
		assert.Equal(t, "models", d.Group, d.Name)
	}
}

func TestSourceProvider_Members(t *testing.T) {
	schema := loadModels(t, SourceOptions{})
	person := schema.Find("models", "Person")
	require.NotNil(t, person)

	assert.Equal(t, "Person is a customer.\nSecond line of the doc.", person.Summary)

	var names []string
	for _, m := range person.Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"name", "age", "nickname", "home", "work", "tags", "matrix", "color", "level",
		"Born", "labels", "extra", "raw", "any", "geo",
	}, names)

	tests := []struct {
		name string
		want ir.TypeRef
	}{
		{"name", ir.Simple("string")},
		{"age", ir.Simple("number").AsOptional()},
		{"nickname", ir.Simple("string").AsOptional()},
		{"home", ir.Named("Address").InGroup("models")},
		{"work", ir.Named("Address").InGroup("models").AsOptional()},
		{"tags", ir.Simple("string").AsArray()},
		{"matrix", ir.Simple("number[]").AsArray()},
		{"color", ir.Named("Color").InGroup("models")},
		{"level", ir.Named("Level").InGroup("models")},
		{"Born", ir.Simple("string")},
		{"labels", ir.Simple("{ [key: string]: string }")},
		{"extra", ir.Any()},
		{"raw", ir.Simple("string")},
		{"any", ir.Any()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, member(t, person, tt.name).Type)
		})
	}

	name := member(t, person, "name")
	assert.True(t, name.Required)
	assert.Equal(t, "Name is the display name.", name.Summary)

	geo := member(t, person, "geo").Type
	require.True(t, geo.IsAnonymous())
	require.Len(t, geo.Shape, 2)
	assert.Equal(t, "lat", geo.Shape[0].Name)
	assert.Equal(t, ir.Simple("number"), geo.Shape[0].Type)
	meta := geo.Shape[1].Type
	require.True(t, meta.IsAnonymous())
	assert.Equal(t, []ir.Member{{Name: "source", Type: ir.Simple("string")}}, meta.Shape)

	assert.True(t, hasWarning(schema, WarnUnsupportedMap, "Person"))
	assert.True(t, hasWarning(schema, WarnUnsupportedType, "Person"))
}

func TestSourceProvider_Enums(t *testing.T) {
	schema := loadModels(t, SourceOptions{})

	color := schema.Find("models", "Color")
	require.NotNil(t, color)
	assert.True(t, color.Enum)
	assert.Equal(t, "Color is a display color.", color.Summary)
	require.Len(t, color.Members, 3)
	for i, want := range []struct{ name, init string }{
		{"Red", "0"},
		{"Blue", "1"},
		{"Green", "0x1F"},
	} {
		assert.Equal(t, want.name, color.Members[i].Name)
		require.NotNil(t, color.Members[i].InitExpression)
		assert.Equal(t, want.init, *color.Members[i].InitExpression)
	}

	level := schema.Find("models", "Level")
	require.NotNil(t, level)
	require.Len(t, level.Members, 2)
	assert.Equal(t, `"low"`, *level.Members[0].InitExpression)
	assert.Equal(t, `"high"`, *level.Members[1].InitExpression)

	assert.Nil(t, schema.Find("models", "Celsius"), "constant-free defined types render inline")
}

func TestSourceProvider_Embedding(t *testing.T) {
	schema := loadModels(t, SourceOptions{})

	employee := schema.Find("models", "Employee")
	require.NotNil(t, employee)
	assert.Equal(t, "Person", employee.BaseName)
	assert.Equal(t, "models", employee.BaseGroup)

	var names []string
	for _, m := range employee.Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"createdBy", "id", "temp"}, names)
	assert.Equal(t, ir.Simple("number"), member(t, employee, "temp").Type)

	staff := schema.Find("models", "Staff")
	require.NotNil(t, staff)
	assert.Equal(t, "Audit", staff.BaseName)
	assert.Equal(t, "shared", staff.BaseGroup)
	assert.Equal(t, ir.Named("Audit").InGroup("shared").AsOptional(), member(t, staff, "approver").Type)
}

func TestSourceProvider_SelfReferentialInline(t *testing.T) {
	schema := loadModels(t, SourceOptions{})
	chain := schema.Find("models", "Chain")
	require.NotNil(t, chain)

	link := ir.Anonymous(
		ir.Member{Name: "value", Type: ir.Simple("number")},
		ir.Member{Name: "next", Type: ir.Any().AsOptional()},
	)
	assert.Equal(t, link, member(t, chain, "head").Type)
	assert.Nil(t, schema.Find("models", "link"))
}

func TestSourceProvider_CustomMarshaler(t *testing.T) {
	schema := loadModels(t, SourceOptions{})

	assert.Nil(t, schema.Find("models", "Stamp"))
	assert.True(t, hasWarning(schema, WarnCustomMarshaler, "Stamp"))

	log := schema.Find("models", "Log")
	require.NotNil(t, log)
	assert.Equal(t, ir.Any(), member(t, log, "stamp").Type)
	assert.True(t, hasWarning(schema, WarnCustomMarshaler, "Log"))
}

func TestSourceProvider_RootTypes(t *testing.T) {
	schema := loadModels(t, SourceOptions{RootTypes: []string{"Employee"}})

	assert.Equal(t, []string{"Person", "Address", "Color", "Level", "Employee"}, declNames(schema))
	assert.True(t, hasWarning(schema, WarnUnsupportedMap, "Person"))
	assert.False(t, hasWarning(schema, WarnCustomMarshaler, "Log"))
}

func TestSourceProvider_OptionalByDefault(t *testing.T) {
	schema := loadModels(t, SourceOptions{OptionalByDefault: true})
	person := schema.Find("models", "Person")
	require.NotNil(t, person)

	assert.False(t, member(t, person, "name").Type.Optional, "required members stay mandatory")
	assert.True(t, member(t, person, "home").Type.Optional)
	assert.True(t, member(t, person, "tags").Type.Optional)
}

func TestSourceProvider_Errors(t *testing.T) {
	p := &SourceProvider{}

	_, err := p.Load(context.Background(), SourceOptions{})
	assert.Error(t, err)

	_, err = p.Load(context.Background(), SourceOptions{
		Patterns:  []string{modelsPkg},
		RootTypes: []string{"Missing"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type Missing not found")

	_, err = p.Load(context.Background(), SourceOptions{
		Patterns: []string{"github.com/nonexistent/broken/package"},
	})
	assert.Error(t, err)
}
