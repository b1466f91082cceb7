package input

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))

	tests := []struct {
		pattern, want string
	}{
		{"./models", "./models"},
		{"./models/...", "./models"},
		{"./...", "."},
		{"./missing", "."},
		{"example.com/app/models", "."},
		{dir, dir},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, patternDir(tt.pattern))
		})
	}
}

func TestSource_Paths(t *testing.T) {
	s := &Source{}
	assert.Equal(t, []string{"."}, s.Patterns())
	assert.Equal(t, ".", s.Dir())

	s = &Source{Model: filepath.Join("models", "app.yaml")}
	assert.Equal(t, "models", s.Dir())
	src, err := s.SourcePath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(src))
	assert.Equal(t, "app.yaml", filepath.Base(src))
}

func TestSource_Settings(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "tsdefgen.json")
	require.NoError(t, os.WriteFile(override, []byte(`{"globalScope": true}`), 0o644))
	model := filepath.Join(dir, "app.json")
	require.NoError(t, os.WriteFile(model, []byte(`{"declarations": []}`), 0o644))

	var buf bytes.Buffer
	s := &Source{Model: model}
	settings, err := s.Settings(zerolog.New(&buf))
	require.NoError(t, err)
	assert.True(t, settings.GlobalScope)
	assert.Contains(t, buf.String(), "override file processed")

	assert.Equal(t, []string{model, override}, s.WatchPaths(settings))
}

func TestIsGoSource(t *testing.T) {
	assert.True(t, IsGoSource("/p/models.go"))
	assert.False(t, IsGoSource("/p/models_test.go"))
	assert.False(t, IsGoSource("/p/app.json"))
}
