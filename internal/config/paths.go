// Package config manages filepatcher configuration and filesystem paths.
//
// Settings are layered with koanf: built-in defaults, then an optional TOML
// file, then FILEPATCHER_* environment variables. Data files (the registry)
// live under $FILEPATCHER_ROOT, or $XDG_DATA_HOME/filepatcher by default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/danieljhkim/filepatcher/internal/fsops"
)

// AppName is the directory name used under XDG base directories.
const AppName = "filepatcher"

// Paths contains the filesystem paths used by filepatcher itself.
type Paths struct {
	// Root is the base directory for filepatcher data
	Root string

	// Registry is the default registration registry file
	Registry string

	// Config is the default config file location
	Config string
}

// DefaultPaths returns the default paths for filepatcher.
// Paths can be overridden with environment variables:
// - FILEPATCHER_ROOT: Override the data root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("FILEPATCHER_ROOT")
	if root == "" {
		if xdg.DataHome == "" {
			return nil, fmt.Errorf("failed to resolve data directory")
		}
		root = filepath.Join(xdg.DataHome, AppName)
	}

	return &Paths{
		Root:     root,
		Registry: filepath.Join(root, "registry.yaml"),
		Config:   filepath.Join(xdg.ConfigHome, AppName, "config.toml"),
	}, nil
}

// EnsureDirectories creates the data root if it doesn't exist.
func (p *Paths) EnsureDirectories(fs fsops.FS) error {
	if err := fs.MkdirAll(p.Root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.Root, err)
	}
	return nil
}
