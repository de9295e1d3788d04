package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/filepatcher/internal/fsops"
)

// ErrNoHostVersion indicates no host version source was configured.
var ErrNoHostVersion = errors.New("host version not configured")

// HostVersion resolves the running host version: override if non-empty,
// then Host.Version, then the first line of Host.VersionFile under the
// target root.
func (c *Config) HostVersion(fs fsops.FS, override string) (string, error) {
	if v := strings.TrimSpace(override); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(c.Host.Version); v != "" {
		return v, nil
	}
	if c.Host.VersionFile == "" {
		return "", ErrNoHostVersion
	}

	path := c.Host.VersionFile
	if !filepath.IsAbs(path) {
		joined, err := fsops.JoinWithin(c.TargetRoot, path)
		if err != nil {
			return "", fmt.Errorf("invalid host.version_file: %w", err)
		}
		path = joined
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read host version file: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	version := strings.TrimSpace(line)
	if version == "" {
		return "", fmt.Errorf("host version file %s is empty", path)
	}
	return version, nil
}
