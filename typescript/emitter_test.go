package typescript

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/ir"
)

func person(group string, members ...ir.Member) ir.Declaration {
	return ir.Declaration{Name: "Person", Group: group, Members: members}
}

func color(group string) ir.Declaration {
	return ir.Declaration{
		Name:  "Color",
		Group: group,
		Enum:  true,
		Members: []ir.Member{
			{Name: "Red"},
			{Name: "Blue", InitExpression: ir.Init("2u")},
		},
	}
}

func age() ir.Member {
	return ir.Member{Name: "Age", Type: ir.Simple("number")}
}

func globalOptions() Options {
	opts := DefaultOptions()
	opts.GlobalScope = true
	return opts
}

func moduleOptions() Options {
	opts := DefaultOptions()
	opts.NodeModule = true
	return opts
}

func mustEmit(t *testing.T, decls []ir.Declaration, opts Options) string {
	t.Helper()
	out, err := Emit(decls, opts)
	require.NoError(t, err)
	return out
}

func TestEmit_Scenarios(t *testing.T) {
	home := ir.Member{Name: "Home", Type: ir.Named("Address")}

	tests := []struct {
		name  string
		decls []ir.Declaration
		opts  Options
		want  string
	}{
		{
			name:  "namespace interface",
			decls: []ir.Declaration{person("App.Models", age())},
			opts:  DefaultOptions(),
			want: "declare module App.Models {\n" +
				"    interface Person {\n" +
				"        age: number;\n" +
				"    }\n\n" +
				"}\n",
		},
		{
			name:  "enum in default module",
			decls: []ir.Declaration{color("")},
			opts:  DefaultOptions(),
			want: "declare module server {\n" +
				"    const enum Color {\n" +
				"        red,\n" +
				"        blue = 2,\n" +
				"    }\n" +
				"}\n",
		},
		{
			name:  "enum in global scope",
			decls: []ir.Declaration{color("App")},
			opts:  globalOptions(),
			want:  "const enum Color {\n    red,\n    blue = 2,\n}\n",
		},
		{
			name:  "module imports undeclared type",
			decls: []ir.Declaration{person("App", home)},
			opts:  moduleOptions(),
			want: "import { Address } from './Address';\n\n" +
				"export interface Person {\n" +
				"    home: Address;\n" +
				"}\n\n",
		},
		{
			name:  "module enum is exported",
			decls: []ir.Declaration{color("App")},
			opts:  moduleOptions(),
			want:  "export const enum Color {\n    red,\n    blue = 2,\n}\n",
		},
		{
			name:  "empty group without default module is flat",
			decls: []ir.Declaration{person("", age())},
			opts:  Options{CamelCasePropertyNames: true},
			want:  "interface Person {\n    age: number;\n}\n\n",
		},
		{
			name:  "class keyword",
			decls: []ir.Declaration{person("App", age())},
			opts: func() Options {
				o := globalOptions()
				o.ClassInsteadOfInterface = true
				return o
			}(),
			want: "class Person {\n    age: number;\n}\n\n",
		},
		{
			name:  "nothing to emit",
			decls: nil,
			opts:  DefaultOptions(),
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustEmit(t, tt.decls, tt.opts))
		})
	}
}

func TestEmit_Imports(t *testing.T) {
	address := ir.Declaration{Name: "Address", Group: "App", Members: []ir.Member{
		{Name: "City", Type: ir.Simple("string")},
	}}
	user := ir.Declaration{Name: "User", Group: "App", Members: []ir.Member{
		{Name: "Home", Type: ir.Named("Address")},
		{Name: "Work", Type: ir.Named("Address").AsOptional()},
		{Name: "Zones", Type: ir.Named("Zone").AsArray()},
		{Name: "Tags", Type: ir.Simple("string").AsArray()},
		{Name: "Extra", Type: ir.Simple("Record<string, Blob>")},
	}}

	t.Run("deduplicated and sorted", func(t *testing.T) {
		out := mustEmit(t, []ir.Declaration{user}, moduleOptions())
		assert.True(t, strings.HasPrefix(out,
			"import { Address } from './Address';\nimport { Zone } from './Zone';\n\nexport interface User {\n"))
		assert.Equal(t, 1, strings.Count(out, "import { Address }"))
		assert.NotContains(t, out, "Blob }")
		assert.NotContains(t, out, "import { string }")
	})

	t.Run("declared earlier is not imported", func(t *testing.T) {
		out := mustEmit(t, []ir.Declaration{address, user}, moduleOptions())
		assert.NotContains(t, out, "import { Address }")
		assert.True(t, strings.HasPrefix(out, "import { Zone } from './Zone';\n\nexport interface Address {\n"))
	})

	t.Run("declared later is imported", func(t *testing.T) {
		out := mustEmit(t, []ir.Declaration{user, address}, moduleOptions())
		assert.Contains(t, out, "import { Address } from './Address';")
	})

	t.Run("no imports outside module mode", func(t *testing.T) {
		out := mustEmit(t, []ir.Declaration{user}, globalOptions())
		assert.NotContains(t, out, "import")
		assert.NotContains(t, out, "export")
	})

	t.Run("base type is imported", func(t *testing.T) {
		employee := ir.Declaration{Name: "Employee", Group: "App", BaseName: "Person", BaseGroup: "Core"}
		out := mustEmit(t, []ir.Declaration{employee}, moduleOptions())
		assert.Equal(t,
			"import { Person } from './Person';\n\nexport interface Employee extends Person {\n}\n\n", out)
	})
}

func TestEmit_Grouping(t *testing.T) {
	decls := []ir.Declaration{
		{Name: "A", Group: "g1"},
		{Name: "B", Group: "g2"},
		{Name: "C", Group: "g1"},
	}

	assert.Equal(t,
		"declare module g1 {\n"+
			"    interface A {\n    }\n\n"+
			"    interface C {\n    }\n\n"+
			"}\n"+
			"declare module g2 {\n"+
			"    interface B {\n    }\n\n"+
			"}\n",
		mustEmit(t, decls, DefaultOptions()))

	assert.Equal(t,
		"interface A {\n}\n\ninterface C {\n}\n\ninterface B {\n}\n\n",
		mustEmit(t, decls, globalOptions()))
}

func TestEmit_Casing(t *testing.T) {
	decls := []ir.Declaration{person("App", age()), color("App")}

	tests := []struct {
		name   string
		casing func(*Options)
		want   []string
	}{
		{
			name:   "defaults",
			casing: func(*Options) {},
			want:   []string{"interface Person {", "age: number;", "const enum Color {", "red,"},
		},
		{
			name:   "no property casing",
			casing: func(o *Options) { o.CamelCasePropertyNames = false },
			want:   []string{"interface Person {", "Age: number;", "red,"},
		},
		{
			name:   "no enum casing",
			casing: func(o *Options) { o.CamelCaseEnumValues = false },
			want:   []string{"age: number;", "Red,", "Blue = 2,"},
		},
		{
			name:   "type name casing",
			casing: func(o *Options) { o.CamelCaseTypeNames = true },
			want:   []string{"interface person {", "const enum color {", "age: number;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := globalOptions()
			tt.casing(&opts)
			out := mustEmit(t, decls, opts)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestEmit_Extends(t *testing.T) {
	employee := func(baseGroup string) ir.Declaration {
		return ir.Declaration{Name: "Employee", Group: "App", BaseName: "Person", BaseGroup: baseGroup}
	}

	out := mustEmit(t, []ir.Declaration{employee("Core")}, DefaultOptions())
	assert.Contains(t, out, "    interface Employee extends Core.Person {\n")

	out = mustEmit(t, []ir.Declaration{employee("App")}, DefaultOptions())
	assert.Contains(t, out, "    interface Employee extends Person {\n")

	out = mustEmit(t, []ir.Declaration{employee("")}, DefaultOptions())
	assert.Contains(t, out, "    interface Employee extends Person {\n")

	opts := DefaultOptions()
	opts.CamelCaseTypeNames = true
	out = mustEmit(t, []ir.Declaration{employee("Core")}, opts)
	assert.Contains(t, out, "    interface employee extends Core.person {\n")
}

func TestEmit_Members(t *testing.T) {
	decl := ir.Declaration{
		Name: "P",
		Members: []ir.Member{
			{Name: "Geo", Type: ir.Anonymous(
				ir.Member{Name: "Lat", Type: ir.Simple("number")},
				ir.Member{Name: "Meta", Type: ir.Anonymous(
					ir.Member{Name: "Source", Type: ir.Simple("string")},
				)},
			).AsOptional()},
			{Name: "Points", Type: ir.Anonymous(
				ir.Member{Name: "X", Type: ir.Simple("number")},
			).AsArray()},
			{Name: "Empty", Type: ir.Anonymous()},
			{Name: "Raw", Type: ir.Any()},
			{Name: "Many", Type: ir.Any().AsArray()},
			{Name: "Unnamed", Type: ir.TypeRef{Name: "Ghost"}},
			{Name: "Blank", Type: ir.TypeRef{Known: true}},
			{Name: "Nick", Type: ir.Simple("string").AsOptional()},
		},
	}

	assert.Equal(t,
		"interface P {\n"+
			"    geo?: {\n"+
			"        lat: number;\n"+
			"        meta: {\n"+
			"            source: string;\n"+
			"        };\n"+
			"    };\n"+
			"    points: {\n"+
			"        x: number;\n"+
			"    }[];\n"+
			"    empty: {\n"+
			"    };\n"+
			"    raw: any;\n"+
			"    many: any[];\n"+
			"    unnamed: any;\n"+
			"    blank: any;\n"+
			"    nick?: string;\n"+
			"}\n\n",
		mustEmit(t, []ir.Declaration{decl}, globalOptions()))
}

func TestEmit_DeepNesting(t *testing.T) {
	const depth = 200
	shape := ir.Anonymous(ir.Member{Name: "Leaf", Type: ir.Simple("string")})
	for i := 0; i < depth; i++ {
		shape = ir.Anonymous(ir.Member{Name: "Next", Type: shape})
	}
	decl := ir.Declaration{Name: "Chain", Members: []ir.Member{{Name: "Head", Type: shape}}}

	out := mustEmit(t, []ir.Declaration{decl}, globalOptions())
	assert.Equal(t, depth, strings.Count(out, "next: {"))
	assert.Contains(t, out, strings.Repeat("    ", depth+2)+"leaf: string;\n")
}

func TestEmit_Comments(t *testing.T) {
	decls := []ir.Declaration{
		{
			Name:    "Person",
			Group:   "App",
			Summary: "A  person\n  record.",
			Members: []ir.Member{
				{Name: "Age", Type: ir.Simple("number"), Summary: "Years */ lived."},
				{Name: "Name", Type: ir.Simple("string"), Summary: "   "},
			},
		},
		{
			Name:    "Color",
			Group:   "App",
			Enum:    true,
			Summary: "Colors.",
			Members: []ir.Member{{Name: "Red", Summary: "Warm."}},
		},
	}

	assert.Equal(t,
		"declare module App {\n"+
			"    /** A person record. */\n"+
			"    interface Person {\n"+
			"        /** Years *\\/ lived. */\n"+
			"        age: number;\n"+
			"        name: string;\n"+
			"    }\n\n"+
			"    /** Colors. */\n"+
			"    const enum Color {\n"+
			"        /** Warm. */\n"+
			"        red,\n"+
			"    }\n"+
			"}\n",
		mustEmit(t, decls, DefaultOptions()))
}

func TestEmit_LineEndings(t *testing.T) {
	opts := DefaultOptions()
	opts.LineEnding = "crlf"
	out := mustEmit(t, []ir.Declaration{person("App.Models", age())}, opts)
	assert.Equal(t,
		"declare module App.Models {\r\n    interface Person {\r\n        age: number;\r\n    }\r\n\r\n}\r\n", out)
}

func TestEmit_Indent(t *testing.T) {
	opts := globalOptions()
	opts.Indent = "\t"
	assert.Equal(t, "interface Person {\n\tage: number;\n}\n\n",
		mustEmit(t, []ir.Declaration{person("", age())}, opts))

	opts.Indent = ""
	assert.Equal(t, "interface Person {\n    age: number;\n}\n\n",
		mustEmit(t, []ir.Declaration{person("", age())}, opts))
}

func TestEmit_UnnamedDeclaration(t *testing.T) {
	_, err := Emit([]ir.Declaration{person("App", age()), {Group: "App"}}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnnamedDeclaration))
	assert.True(t, errors.IsAssertionFailure(err))
	assert.Contains(t, err.Error(), "declaration 1")
}

func TestEmit_Deterministic(t *testing.T) {
	decls := []ir.Declaration{
		person("App", age(), ir.Member{Name: "Home", Type: ir.Named("Address")}),
		color("App"),
		{Name: "Zone", Group: "Geo", Members: []ir.Member{{Name: "Where", Type: ir.Named("Place")}}},
	}
	emitter := NewEmitter(moduleOptions())
	first, err := emitter.Emit(decls)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = emitter.Emit(decls)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, first, r)
	}
	assert.True(t, strings.HasPrefix(first,
		"import { Address } from './Address';\nimport { Place } from './Place';\n\n"))
}

func TestEmit_ReferenceTypeNameCasing(t *testing.T) {
	address := ir.Declaration{Name: "Address", Group: "App", Members: []ir.Member{
		{Name: "City", Type: ir.Simple("string")},
	}}
	user := ir.Declaration{Name: "User", Group: "App", Members: []ir.Member{
		{Name: "Home", Type: ir.Named("Address")},
		{Name: "Zones", Type: ir.Named("Zone").AsArray()},
		{Name: "Tags", Type: ir.Simple("String").AsArray()},
	}}

	t.Run("global", func(t *testing.T) {
		opts := globalOptions()
		opts.CamelCaseTypeNames = true
		assert.Equal(t,
			"interface address {\n    city: string;\n}\n\n"+
				"interface user {\n    home: address;\n    zones: zone[];\n    tags: String[];\n}\n\n",
			mustEmit(t, []ir.Declaration{address, user}, opts))
	})

	t.Run("module imports match declared names", func(t *testing.T) {
		opts := moduleOptions()
		opts.CamelCaseTypeNames = true
		out := mustEmit(t, []ir.Declaration{address, user}, opts)
		assert.True(t, strings.HasPrefix(out, "import { zone } from './zone';\n\nexport interface address {\n"))
		assert.NotContains(t, out, "Address")
		assert.Contains(t, out, "    home: address;\n")
	})
}

func TestEmit_QualifiedReferences(t *testing.T) {
	decls := []ir.Declaration{
		{Name: "Audit", Group: "shared"},
		{Name: "Staff", Group: "models", Members: []ir.Member{
			{Name: "Approver", Type: ir.Named("Audit").InGroup("shared").AsOptional()},
			{Name: "Peer", Type: ir.Named("Staff").InGroup("models")},
			{Name: "Home", Type: ir.Named("Address")},
		}},
	}

	out := mustEmit(t, decls, DefaultOptions())
	assert.Contains(t, out, "        approver?: shared.Audit;\n")
	assert.Contains(t, out, "        peer: Staff;\n")
	assert.Contains(t, out, "        home: Address;\n")

	opts := DefaultOptions()
	opts.CamelCaseTypeNames = true
	out = mustEmit(t, decls, opts)
	assert.Contains(t, out, "        approver?: shared.audit;\n")

	out = mustEmit(t, decls, moduleOptions())
	assert.Contains(t, out, "    approver?: Audit;\n")
	assert.NotContains(t, out, "shared.")
}
