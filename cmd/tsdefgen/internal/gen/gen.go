package gen

import (
	"context"
	"path/filepath"

	"github.com/tsdefgen/tsdefgen/cmd/tsdefgen/internal/input"
	"github.com/tsdefgen/tsdefgen/config"
	"github.com/tsdefgen/tsdefgen/internal/errors"
)

type Cmd struct {
	input.Source `embed:""`

	Out     string `help:"Output file, or directory with --per-type (default: derived from the input path)." short:"o"`
	PerType bool   `help:"Write one module per type. Requires node-module settings." name:"per-type"`
	Watch   bool   `help:"Watch the input and override file and regenerate on change." short:"w"`
}

func (c *Cmd) Run(g *input.Globals) error {
	if err := c.generate(g); err != nil {
		if !c.Watch {
			return err
		}
		g.Logger.Error().Err(err).Msg("failure")
	}
	if !c.Watch {
		return nil
	}
	return c.watch(g)
}

func (c *Cmd) generate(g *input.Globals) error {
	settings, err := c.Settings(g.Logger)
	if err != nil {
		return err
	}
	gen := c.Generator(settings, g.Logger)

	if c.PerType {
		dir, err := c.outDir(settings)
		if err != nil {
			return err
		}
		_, err = gen.ToDir(g.Ctx, dir)
		return err
	}

	out := c.Out
	if out == "" {
		src, err := c.SourcePath()
		if err != nil {
			return errors.Wrap(err, "resolve input path")
		}
		out = settings.OutputPath(src)
	}
	_, err = gen.ToFile(g.Ctx, out)
	return err
}

// outDir is --out, or the node module path below the project root.
func (c *Cmd) outDir(settings config.Settings) (string, error) {
	if c.Out != "" {
		return c.Out, nil
	}
	if settings.NodeModulePath == "" {
		return "", errors.WithHint(input.ErrNoOutput, "pass --out or set nodeModulePath in the override file")
	}
	root := c.Dir()
	if settings.Source != "" {
		root = filepath.Dir(settings.Source)
	}
	return filepath.Join(root, settings.NodeModulePath), nil
}

func (c *Cmd) watch(g *input.Globals) error {
	settings, err := c.Settings(g.Logger)
	if err != nil {
		settings = config.Defaults()
	}
	w, err := config.NewWatcher(c.WatchPaths(settings),
		config.WithFilter(input.IsGoSource),
		config.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	g.Logger.Info().Strs("paths", c.WatchPaths(settings)).Msg("watching for changes")
	return w.Run(g.Ctx, func(ctx context.Context, changed []string) {
		g.Logger.Info().Strs("files", changed).Msg("regenerating")
		if err := c.generate(g); err != nil {
			g.Logger.Error().Err(err).Msg("failure")
		}
	})
}
