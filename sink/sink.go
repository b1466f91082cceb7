// Package sink provides destinations for generated documents.
package sink

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tsdefgen/tsdefgen/internal/errors"
)

// OutputSink receives generated documents. Paths are slash-separated and
// relative; the sink decides where they land. Implementations must be safe
// for concurrent use.
type OutputSink interface {
	// WriteFile stores content at path and reports whether anything changed.
	WriteFile(ctx context.Context, path string, content []byte) (changed bool, err error)

	// RemoveFile deletes a previously generated document. Removing a path
	// that does not exist is not an error; removed reports whether it did.
	RemoveFile(ctx context.Context, path string) (removed bool, err error)
}

// FilesystemSink writes below a root directory on the local filesystem.
type FilesystemSink struct {
	// Root is the base directory for all writes.
	Root string

	// Mode is the permission of new files (default 0644).
	Mode os.FileMode
}

// NewFilesystemSink returns a sink writing below root.
func NewFilesystemSink(root string) *FilesystemSink {
	return &FilesystemSink{Root: root, Mode: 0o644}
}

// WriteFile writes content atomically through a temp file and rename. A file
// whose bytes already equal content is left untouched, so regenerating
// unchanged input causes no diff and no mtime churn.
func (s *FilesystemSink) WriteFile(ctx context.Context, path string, content []byte) (bool, error) {
	fullPath, err := s.resolve(ctx, path)
	if err != nil {
		return false, err
	}

	if existing, err := os.ReadFile(fullPath); err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, errors.Wrapf(err, "create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".tsdefgen-*.tmp")
	if err != nil {
		return false, errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	discard := func() { _ = os.Remove(tmpPath) }

	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		discard()
		return false, errors.Wrap(writeErr, "write temp file")
	}
	if closeErr != nil {
		discard()
		return false, errors.Wrap(closeErr, "close temp file")
	}

	mode := s.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		discard()
		return false, errors.Wrap(err, "set file mode")
	}
	if err := ctx.Err(); err != nil {
		discard()
		return false, err
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		discard()
		return false, errors.Wrapf(err, "replace %s", fullPath)
	}
	return true, nil
}

// RemoveFile deletes path below the root.
func (s *FilesystemSink) RemoveFile(ctx context.Context, path string) (bool, error) {
	fullPath, err := s.resolve(ctx, path)
	if err != nil {
		return false, err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errors.Wrapf(err, "remove %s", fullPath)
	}
	return true, nil
}

// resolve validates path and maps it below the root.
func (s *FilesystemSink) resolve(ctx context.Context, path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", errors.Wrapf(err, "invalid path %q", path)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.Root, filepath.FromSlash(path))
	absRoot, err := filepath.Abs(s.Root)
	if err != nil {
		return "", errors.Wrap(err, "resolve root directory")
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", errors.Wrap(err, "resolve path")
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", errors.Newf("path escapes root directory: %q", path)
	}
	return fullPath, nil
}

// MemorySink keeps documents in memory. It is safe for concurrent use.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content.
func (s *MemorySink) WriteFile(ctx context.Context, path string, content []byte) (bool, error) {
	if err := ValidatePath(path); err != nil {
		return false, errors.Wrapf(err, "invalid path %q", path)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.files[path]; ok && bytes.Equal(existing, content) {
		return false, nil
	}
	s.files[path] = bytes.Clone(content)
	return true, nil
}

// RemoveFile drops path.
func (s *MemorySink) RemoveFile(ctx context.Context, path string) (bool, error) {
	if err := ValidatePath(path); err != nil {
		return false, errors.Wrapf(err, "invalid path %q", path)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	delete(s.files, path)
	return ok, nil
}

// Get returns a copy of the document at path, or nil.
func (s *MemorySink) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return nil
	}
	return bytes.Clone(content)
}

// Paths returns the stored paths, sorted.
func (s *MemorySink) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ValidatePath checks that path is relative, slash-separated, clean, and
// free of ".." components.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return errors.New("absolute paths not allowed")
	}
	// Drive letters are rejected on every platform.
	if len(path) >= 2 && path[1] == ':' && ((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z')) {
		return errors.New("absolute paths not allowed")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	slashed := filepath.ToSlash(path)
	if cleaned := filepath.ToSlash(filepath.Clean(slashed)); cleaned != slashed {
		return errors.Newf("path is not clean (expected %q, got %q)", cleaned, path)
	}
	return nil
}
