// Package input holds the flags shared by commands that read declarations.
package input

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tsdefgen/tsdefgen"
	"github.com/tsdefgen/tsdefgen/config"
	"github.com/tsdefgen/tsdefgen/internal/errors"
)

// Globals are bound into every command's Run method.
type Globals struct {
	Ctx    context.Context
	Logger zerolog.Logger
}

// Source selects where declarations come from.
type Source struct {
	Model   string   `help:"JSON or YAML model file." short:"m" type:"existingfile" xor:"source"`
	Package []string `help:"Go package patterns to read (default: current directory)." short:"p" xor:"source"`
	Type    []string `help:"Only emit these types and the types they reference." short:"t"`
	Config  string   `help:"Override file (default: tsdefgen.json or tsdefgen.toml found from the input directory upward)." short:"c" type:"existingfile"`
}

// Patterns returns the package patterns, defaulting to ".".
func (s *Source) Patterns() []string {
	if len(s.Package) == 0 {
		return []string{"."}
	}
	return s.Package
}

// Dir is the directory the input lives in, used to discover override files
// and to name default output.
func (s *Source) Dir() string {
	if s.Model != "" {
		return filepath.Dir(s.Model)
	}
	return patternDir(s.Patterns()[0])
}

// SourcePath is the path output naming is derived from: the model file, or
// the first package directory.
func (s *Source) SourcePath() (string, error) {
	if s.Model != "" {
		return filepath.Abs(s.Model)
	}
	return filepath.Abs(s.Dir())
}

// Settings loads the override file named by --config, or discovers one.
func (s *Source) Settings(log zerolog.Logger) (config.Settings, error) {
	if s.Config != "" {
		settings, err := config.Load(s.Config)
		if err != nil {
			return config.Settings{}, err
		}
		log.Info().Str("file", s.Config).Msg("override file processed")
		return settings, nil
	}

	settings, found, err := config.Discover(s.Dir())
	if err != nil {
		return config.Settings{}, err
	}
	if found != "" {
		log.Info().Str("file", found).Msg("override file processed")
	} else {
		log.Debug().Msg("using global settings")
	}
	return settings, nil
}

// Generator builds the generator for the selected input.
func (s *Source) Generator(settings config.Settings, log zerolog.Logger) *tsdefgen.Generator {
	var g *tsdefgen.Generator
	if s.Model != "" {
		g = tsdefgen.FromModel(s.Model)
	} else {
		g = tsdefgen.FromPackages(s.Patterns()...).RootTypes(s.Type...)
	}
	return g.WithSettings(settings).WithLogger(log)
}

// WatchPaths lists the files and directories whose changes affect output.
func (s *Source) WatchPaths(settings config.Settings) []string {
	var paths []string
	if s.Model != "" {
		paths = append(paths, s.Model)
	} else {
		for _, p := range s.Patterns() {
			paths = append(paths, patternDir(p))
		}
	}
	if settings.Source != "" {
		paths = append(paths, settings.Source)
	}
	return paths
}

// IsGoSource matches non-test Go files.
func IsGoSource(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")
}

// patternDir maps a package pattern to a directory when it names one. Import
// paths and wildcards resolve to the current directory.
func patternDir(pattern string) string {
	if strings.Contains(pattern, "...") {
		pattern = strings.TrimSuffix(strings.Split(pattern, "...")[0], "/")
	}
	if pattern == "" {
		return "."
	}
	if strings.HasPrefix(pattern, ".") || filepath.IsAbs(pattern) {
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			return pattern
		}
	}
	return "."
}

// ErrNoOutput is returned when no output location can be derived.
var ErrNoOutput = errors.New("no output location")
