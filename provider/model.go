package provider

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/ir"
)

// Format is the encoding of a model file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything other than
// ".yaml" or ".yml" is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadModel reads a model file written by an external parser.
func LoadModel(path string) (*ir.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model %s", path)
	}
	schema, err := DecodeModel(bytes.NewReader(data), FormatFromPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", path)
	}
	return schema, nil
}

// DecodeModel decodes and validates a model document of the form
// {"declarations": [...]}. Unknown keys are rejected so that typos in
// hand-written models surface instead of silently dropping settings.
func DecodeModel(r io.Reader, format Format) (*ir.Schema, error) {
	var schema ir.Schema
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&schema); err != nil {
			return nil, errors.Wrap(err, "decode json model")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&schema); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "decode yaml model")
		}
	default:
		return nil, errors.Newf("unknown model format %q", format)
	}

	if errs := schema.Validate(); len(errs) > 0 {
		return nil, errors.WithHint(errors.Wrap(errors.Join(errs...), "invalid model"),
			"every declaration and member needs a name, and names are unique within a group")
	}
	return &schema, nil
}
