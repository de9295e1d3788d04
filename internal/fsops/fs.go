// Package fsops provides filesystem operations with safety guarantees.
//
// All filesystem access in filepatcher goes through the FS interface, which
// is backed by an afero.Fs. Production code uses the OS filesystem; tests use
// an in-memory or read-only afero filesystem. Path helpers keep every
// computed destination inside its root.
//
// Key features:
//   - In-place overwrite that never creates a missing destination
//   - Atomic writes using temp file + rename
//   - Path validation for relative paths and identifiers
//   - Testable via the FS interface
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrPathEscape indicates a relative path does not name an entry strictly
// inside its root.
var ErrPathEscape = errors.New("path escapes root")

// FS provides an abstraction for filesystem operations.
// All filesystem access in filepatcher must go through this interface.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) (bool, error)

	// IsRegularFile reports whether path exists and is a regular file.
	IsRegularFile(path string) (bool, error)

	// Walk walks the tree rooted at root in lexical order. Symlinks are
	// passed to fn unresolved and never descended into.
	Walk(root string, fn filepath.WalkFunc) error

	// Resolve evaluates every symlink in path.
	Resolve(path string) (string, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// Overwrite replaces the bytes of an existing file dst with the bytes of src.
	// It fails if dst does not exist.
	Overwrite(src, dst string) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists checks if a path exists.
	Exists(path string) (bool, error)
}

// AferoFS implements FS on top of an afero.Fs.
type AferoFS struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewRealFS creates an AferoFS backed by the OS filesystem.
func NewRealFS() *AferoFS {
	return New(afero.NewOsFs())
}

// Stat returns file info, following symlinks.
func (a *AferoFS) Stat(path string) (os.FileInfo, error) {
	return a.fs.Stat(path)
}

// IsDir reports whether path exists and is a directory.
func (a *AferoFS) IsDir(path string) (bool, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// IsRegularFile reports whether path exists and is a regular file.
func (a *AferoFS) IsRegularFile(path string) (bool, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Walk walks the tree rooted at root in lexical order.
func (a *AferoFS) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(a.fs, root, fn)
}

// Resolve evaluates every symlink in path. Only the OS filesystem has
// symlinks; other filesystems return the cleaned path.
func (a *AferoFS) Resolve(path string) (string, error) {
	if _, ok := a.fs.(*afero.OsFs); !ok {
		return filepath.Clean(path), nil
	}
	return filepath.EvalSymlinks(path)
}

// Open opens a file for reading.
func (a *AferoFS) Open(path string) (io.ReadCloser, error) {
	return a.fs.Open(path)
}

// Overwrite replaces the contents of dst with the contents of src.
// dst is opened without O_CREATE, so a missing destination is an error and
// its permissions are left untouched.
func (a *AferoFS) Overwrite(src, dst string) error {
	srcFile, err := a.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := a.fs.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to sync destination: %w", err)
	}

	return dstFile.Close()
}

// MkdirAll creates a directory and all parent directories.
func (a *AferoFS) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

// RemoveAll removes a path and all its contents.
func (a *AferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (a *AferoFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpFile, err := afero.TempFile(a.fs, dir, ".filepatcher-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = a.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := a.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := a.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// ReadFile reads the entire contents of a file.
func (a *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// Exists checks if a path exists without following a final symlink when the
// underlying filesystem supports it.
func (a *AferoFS) Exists(path string) (bool, error) {
	var err error
	if lstater, ok := a.fs.(afero.Lstater); ok {
		_, _, err = lstater.LstatIfPossible(path)
	} else {
		_, err = a.fs.Stat(path)
	}
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ValidateRelPath rejects empty, absolute and traversing relative paths.
func ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(relPath)

	if relPath == "" || cleaned == "." {
		return fmt.Errorf("%w: empty or current directory", ErrPathEscape)
	}

	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("%w: must be relative, got absolute path %q", ErrPathEscape, cleaned)
	}

	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %q", ErrPathEscape, relPath)
	}

	return nil
}

// ValidateIdentifier rejects identifiers that are empty, contain path
// separators, or are traversal segments.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty")
	}

	if strings.Contains(id, string(filepath.Separator)) || strings.Contains(id, "/") || strings.Contains(id, "\\") {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}

	if id == "." || id == ".." || (strings.HasPrefix(id, ".") && len(id) > 1 && id[1] == '.') {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}

	return nil
}

// JoinWithin joins relPath onto root and returns the cleaned result, or
// ErrPathEscape when the result would leave root.
func JoinWithin(root, relPath string) (string, error) {
	if err := ValidateRelPath(relPath); err != nil {
		return "", err
	}

	root = filepath.Clean(root)
	joined := filepath.Clean(filepath.Join(root, relPath))

	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, relPath)
	}

	return joined, nil
}
