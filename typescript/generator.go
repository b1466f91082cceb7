package typescript

import (
	"context"
	"path"
	"strings"

	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/ir"
	"github.com/tsdefgen/tsdefgen/sink"
)

// GenerateOptions configures Generator.Generate.
type GenerateOptions struct {
	// Sink receives generated documents.
	Sink sink.OutputSink

	// Path is the output document in single-document mode, or the
	// directory of the per-type modules when PerType is set.
	Path string

	// PerType emits one module per declaration, named "<Name>.ts", so every
	// "./<Name>" import resolves to a sibling file. It requires node-module
	// output.
	PerType bool

	// Options configures the emitter.
	Options Options
}

// GenerateResult describes what Generate did.
type GenerateResult struct {
	// Written lists documents whose content changed.
	Written []string

	// Unchanged lists documents that already held the generated bytes.
	Unchanged []string

	// Deleted lists documents removed because nothing was generated for them.
	Deleted []string

	// TypesGenerated counts emitted declarations.
	TypesGenerated int

	// Warnings are carried over from the schema.
	Warnings []ir.Warning
}

// Generator emits a schema and hands the documents to a sink.
type Generator struct{}

// Name returns "typescript".
func (g *Generator) Name() string {
	return "typescript"
}

// Generate emits schema according to opts. A document that comes out empty
// or whitespace-only is removed from the sink instead of written.
func (g *Generator) Generate(ctx context.Context, schema *ir.Schema, opts GenerateOptions) (*GenerateResult, error) {
	if opts.Sink == nil {
		return nil, errors.New("generate: no sink")
	}
	if schema == nil {
		schema = &ir.Schema{}
	}

	result := &GenerateResult{Warnings: schema.Warnings}
	emitter := NewEmitter(opts.Options)

	if !opts.PerType {
		if opts.Path == "" {
			return nil, errors.New("generate: no output path")
		}
		doc, err := emitter.Emit(schema.Declarations)
		if err != nil {
			return nil, errors.Wrap(err, "emit")
		}
		if err := g.store(ctx, opts.Sink, opts.Path, doc, result); err != nil {
			return nil, err
		}
		result.TypesGenerated = len(schema.Declarations)
		return result, nil
	}

	if emitter.Wrapping() != WrapModule {
		return nil, errors.WithHint(
			errors.New("generate: per-type output requires node-module mode"),
			"set a node module path or enable node-module output")
	}
	casing := opts.Options.Casing()
	for _, d := range schema.Declarations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := emitter.Emit([]ir.Declaration{d})
		if err != nil {
			return nil, errors.Wrapf(err, "emit %s", d.QualifiedName())
		}
		file := path.Join(opts.Path, casing.TypeName(d.Name)+".ts")
		if err := g.store(ctx, opts.Sink, file, doc, result); err != nil {
			return nil, err
		}
		result.TypesGenerated++
	}
	return result, nil
}

func (g *Generator) store(ctx context.Context, out sink.OutputSink, file, doc string, result *GenerateResult) error {
	if strings.TrimSpace(doc) == "" {
		removed, err := out.RemoveFile(ctx, file)
		if err != nil {
			return errors.Wrapf(err, "remove %s", file)
		}
		if removed {
			result.Deleted = append(result.Deleted, file)
		}
		return nil
	}
	changed, err := out.WriteFile(ctx, file, []byte(doc))
	if err != nil {
		return errors.Wrapf(err, "write %s", file)
	}
	if changed {
		result.Written = append(result.Written, file)
	} else {
		result.Unchanged = append(result.Unchanged, file)
	}
	return nil
}
