package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/logging"
)

// Walker enumerates patch files under a source root.
type Walker struct {
	fs     fsops.FS
	logger zerolog.Logger
}

// NewWalker creates a Walker reading through fs.
func NewWalker(fs fsops.FS) *Walker {
	return &Walker{
		fs:     fs,
		logger: logging.GetLogger("walker"),
	}
}

// Enumerate lists every regular file beneath sourceRoot, sorted by relative
// path. The root itself may be a symlink. Inside the tree, symlinks to
// regular files are patch files; symlinked directories are not descended.
// A missing or non-directory root yields no files and ErrSourceAbsent.
func (w *Walker) Enumerate(sourceRoot string) ([]PatchFile, error) {
	if sourceRoot == "" {
		return nil, ErrSourceAbsent
	}
	root := filepath.Clean(sourceRoot)

	resolved, err := w.fs.Resolve(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSourceAbsent
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceAbsent, err)
	}

	isDir, err := w.fs.IsDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceAbsent, err)
	}
	if !isDir {
		return nil, ErrSourceAbsent
	}

	var files []PatchFile
	err = w.fs.Walk(resolved, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if info, err = w.fs.Stat(path); err != nil {
				w.logger.Debug().Err(err).Str("path", path).Msg("Skipping dangling symlink")
				return nil
			}
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		// Paths stay under the root as given so callers can strip it.
		files = append(files, PatchFile{
			Path:    filepath.Join(root, rel),
			RelPath: filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate patch files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})

	w.logger.Debug().Str("root", root).Int("files", len(files)).Msg("Enumerated patch files")
	return files, nil
}
