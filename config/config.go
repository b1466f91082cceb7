// Package config holds user settings for definition generation: defaults,
// project override files, and output file naming.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/typescript"
)

// Override file names, searched in this order in each directory.
const (
	JSONFileName = "tsdefgen.json"
	TOMLFileName = "tsdefgen.toml"
)

// Output extensions.
const (
	DefinitionExt = ".d.ts"
	ModuleExt     = ".ts"
)

var validate = validator.New()

// Settings is the user-facing configuration. Field tags cover the override
// files (json, toml) and query-string decoding (schema).
type Settings struct {
	CamelCaseEnumValues     bool   `json:"camelCaseEnumerationValues" toml:"camelCaseEnumerationValues" schema:"camelCaseEnumValues"`
	CamelCasePropertyNames  bool   `json:"camelCasePropertyNames" toml:"camelCasePropertyNames" schema:"camelCasePropertyNames"`
	CamelCaseTypeNames      bool   `json:"camelCaseTypeNames" toml:"camelCaseTypeNames" schema:"camelCaseTypeNames"`
	ClassInsteadOfInterface bool   `json:"classInsteadOfInterface" toml:"classInsteadOfInterface" schema:"classInsteadOfInterface"`
	GlobalScope             bool   `json:"globalScope" toml:"globalScope" schema:"globalScope"`
	DefaultModuleName       string `json:"defaultModuleName" toml:"defaultModuleName" schema:"defaultModuleName" validate:"omitempty,excludesall={}"`

	// NodeModule forces module output even without a path.
	NodeModule bool `json:"nodeModule" toml:"nodeModule" schema:"nodeModule"`

	// NodeModulePath, relative to the project root, receives module output.
	NodeModulePath string `json:"nodeModulePath" toml:"nodeModulePath" schema:"nodeModulePath"`

	// OptionalByDefault makes every member optional unless marked required.
	OptionalByDefault bool `json:"optionalByDefault" toml:"optionalByDefault" schema:"optionalByDefault"`

	// WebEssentials2015 names output "<file>.<ext>.d.ts" instead of
	// "<file>.d.ts".
	WebEssentials2015 bool `json:"webEssentials2015" toml:"webEssentials2015" schema:"webEssentials2015"`

	Indent     string `json:"indent" toml:"indent" schema:"indent" validate:"omitempty,max=8"`
	LineEnding string `json:"lineEnding" toml:"lineEnding" schema:"lineEnding" validate:"omitempty,oneof=lf crlf"`

	// Source is the override file the settings came from, empty for defaults.
	Source string `json:"-" toml:"-" schema:"-"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		CamelCaseEnumValues:    true,
		CamelCasePropertyNames: true,
		DefaultModuleName:      typescript.DefaultModuleName,
		WebEssentials2015:      true,
		Indent:                 typescript.DefaultIndent,
		LineEnding:             "lf",
	}
}

// Validate checks field constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid settings"),
			"lineEnding is \"lf\" or \"crlf\", defaultModuleName cannot contain braces")
	}
	if strings.TrimSpace(s.Indent) != "" {
		return errors.Newf("invalid settings: indent %q is not whitespace", s.Indent)
	}
	return nil
}

// NodeModuleMode reports whether output is an importable module.
func (s Settings) NodeModuleMode() bool {
	return s.NodeModule || strings.TrimSpace(s.NodeModulePath) != ""
}

// Options converts the settings into emitter options.
func (s Settings) Options() typescript.Options {
	return typescript.Options{
		CamelCaseEnumValues:     s.CamelCaseEnumValues,
		CamelCasePropertyNames:  s.CamelCasePropertyNames,
		CamelCaseTypeNames:      s.CamelCaseTypeNames,
		ClassInsteadOfInterface: s.ClassInsteadOfInterface,
		GlobalScope:             s.GlobalScope,
		NodeModule:              s.NodeModule,
		NodeModulePath:          s.NodeModulePath,
		DefaultModuleName:       s.DefaultModuleName,
		Indent:                  s.Indent,
		LineEnding:              s.LineEnding,
	}
}

// OutputPath returns where the document generated from source goes. In
// node-module mode that is "<root>/<NodeModulePath>/<relative source>.ts"
// where root is the directory holding the override file (or the source's
// directory without one); otherwise it is next to the source.
func (s Settings) OutputPath(source string) string {
	if s.NodeModuleMode() {
		root := filepath.Dir(source)
		if s.Source != "" {
			root = filepath.Dir(s.Source)
		}
		rel, err := filepath.Rel(root, source)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(source)
		}
		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ModuleExt
		return filepath.Join(root, s.NodeModulePath, rel)
	}
	if s.WebEssentials2015 {
		return source + DefinitionExt
	}
	return strings.TrimSuffix(source, filepath.Ext(source)) + DefinitionExt
}

// Load reads an override file. Keys missing from the file keep their
// default values; the format follows the extension.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "read override file %s", path)
	}

	s := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
			return Settings{}, errors.Wrapf(err, "error in override file %s", path)
		}
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, errors.Wrapf(err, "error in override file %s", path)
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, errors.Wrapf(err, "override file %s", path)
	}
	s.Source = path
	return s, nil
}

// Discover looks for an override file in dir and its parents. Without one it
// returns Defaults and an empty found path.
func Discover(dir string) (s Settings, found string, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Settings{}, "", errors.Wrapf(err, "resolve %s", dir)
	}
	for {
		for _, name := range []string{JSONFileName, TOMLFileName} {
			candidate := filepath.Join(abs, name)
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				s, err := Load(candidate)
				return s, candidate, err
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return Defaults(), "", nil
		}
		abs = parent
	}
}
