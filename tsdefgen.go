// Package tsdefgen generates TypeScript definition files from a model of
// declared types: Go packages, live Go values, or a JSON/YAML model file
// written by some other parser.
//
// Generator provides a fluent API. Pick a source, optionally adjust
// settings, then call a terminal method:
//
//	res, err := tsdefgen.FromPackages("./models").
//	    WithSettings(settings).
//	    ToFile(ctx, "models.d.ts")
//
// The emitter itself lives in package typescript and can be used directly.
package tsdefgen

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tsdefgen/tsdefgen/config"
	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/ir"
	"github.com/tsdefgen/tsdefgen/provider"
	"github.com/tsdefgen/tsdefgen/sink"
	"github.com/tsdefgen/tsdefgen/typescript"
)

// loader produces the schema of one run.
type loader func(ctx context.Context, g *Generator) (*ir.Schema, error)

// Generator configures and runs one generation. A Generator may be run any
// number of times; every run reloads its source.
type Generator struct {
	load      loader
	settings  config.Settings
	logger    zerolog.Logger
	rootTypes []string
	dir       string
}

func newGenerator(load loader) *Generator {
	return &Generator{
		load:     load,
		settings: config.Defaults(),
		logger:   zerolog.Nop(),
	}
}

// FromPackages reads declarations from Go packages matching patterns.
func FromPackages(patterns ...string) *Generator {
	return newGenerator(func(ctx context.Context, g *Generator) (*ir.Schema, error) {
		return (&provider.SourceProvider{}).Load(ctx, provider.SourceOptions{
			Patterns:          patterns,
			Dir:               g.dir,
			RootTypes:         g.rootTypes,
			OptionalByDefault: g.settings.OptionalByDefault,
		})
	})
}

// FromTypes reads declarations from the types of values, by reflection.
// Reflection sees no comments or constants.
func FromTypes(values ...any) *Generator {
	return newGenerator(func(ctx context.Context, g *Generator) (*ir.Schema, error) {
		p := &provider.ReflectionProvider{OptionalByDefault: g.settings.OptionalByDefault}
		return p.Load(ctx, values...)
	})
}

// FromModel reads declarations from a JSON or YAML model file.
func FromModel(path string) *Generator {
	return newGenerator(func(ctx context.Context, g *Generator) (*ir.Schema, error) {
		return provider.LoadModel(path)
	})
}

// FromDeclarations uses decls as they are.
func FromDeclarations(decls ...ir.Declaration) *Generator {
	return newGenerator(func(ctx context.Context, g *Generator) (*ir.Schema, error) {
		schema := &ir.Schema{Declarations: decls}
		if errs := schema.Validate(); len(errs) > 0 {
			return nil, errors.Wrap(errors.Join(errs...), "invalid declarations")
		}
		return schema, nil
	})
}

// WithSettings replaces the default settings.
func (g *Generator) WithSettings(s config.Settings) *Generator {
	g.settings = s
	return g
}

// WithLogger sets the logger generation events go to.
func (g *Generator) WithLogger(l zerolog.Logger) *Generator {
	g.logger = l
	return g
}

// RootTypes restricts package sources to the named types and what they
// reference.
func (g *Generator) RootTypes(names ...string) *Generator {
	g.rootTypes = append(g.rootTypes, names...)
	return g
}

// Dir sets the directory package patterns are resolved from.
func (g *Generator) Dir(dir string) *Generator {
	g.dir = dir
	return g
}

// Schema loads the source without emitting it.
func (g *Generator) Schema(ctx context.Context) (*ir.Schema, error) {
	if err := g.settings.Validate(); err != nil {
		return nil, err
	}
	schema, err := g.load(ctx, g)
	if err != nil {
		return nil, errors.Wrap(err, "load declarations")
	}
	for _, w := range schema.Warnings {
		g.logger.Warn().Str("code", w.Code).Str("type", w.TypeName).Msg(w.Message)
	}
	return schema, nil
}

// Emit returns the generated document without writing it.
func (g *Generator) Emit(ctx context.Context) (string, error) {
	schema, err := g.Schema(ctx)
	if err != nil {
		return "", err
	}
	return typescript.Emit(schema.Declarations, g.settings.Options())
}

// ToFile writes one document to path, or removes path when nothing was
// generated. A file that already holds the generated bytes is left alone.
func (g *Generator) ToFile(ctx context.Context, path string) (*typescript.GenerateResult, error) {
	out := sink.NewFilesystemSink(filepath.Dir(path))
	return g.ToSink(ctx, out, filepath.Base(path), false)
}

// ToDir writes one module per declaration into dir. It requires
// node-module settings.
func (g *Generator) ToDir(ctx context.Context, dir string) (*typescript.GenerateResult, error) {
	return g.ToSink(ctx, sink.NewFilesystemSink(dir), ".", true)
}

// ToSink generates into out. With perType, path is the directory of the
// per-type modules inside out.
func (g *Generator) ToSink(ctx context.Context, out sink.OutputSink, path string, perType bool) (*typescript.GenerateResult, error) {
	g.logger.Info().Str("path", path).Msg("started")

	schema, err := g.Schema(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("failure")
		return nil, err
	}

	gen := &typescript.Generator{}
	res, err := gen.Generate(ctx, schema, typescript.GenerateOptions{
		Sink:    out,
		Path:    path,
		PerType: perType,
		Options: g.settings.Options(),
	})
	if err != nil {
		g.logger.Error().Err(err).Msg("failure")
		return nil, err
	}

	for _, p := range res.Written {
		g.logger.Info().Str("file", p).Msg("written")
	}
	for _, p := range res.Deleted {
		g.logger.Info().Str("file", p).Msg("deleted (no content)")
	}
	g.logger.Info().
		Int("types", res.TypesGenerated).
		Int("written", len(res.Written)).
		Int("unchanged", len(res.Unchanged)).
		Msg("completed")
	return res, nil
}
