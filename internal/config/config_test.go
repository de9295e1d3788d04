package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/lifecycle"
)

var realFS = fsops.NewRealFS()

func TestDefaultPaths(t *testing.T) {
	t.Run("respects FILEPATCHER_ROOT", func(t *testing.T) {
		t.Setenv("FILEPATCHER_ROOT", "/custom/filepatcher")

		paths, err := DefaultPaths()
		require.NoError(t, err)
		assert.Equal(t, "/custom/filepatcher", paths.Root)
		assert.Equal(t, filepath.Join("/custom/filepatcher", "registry.yaml"), paths.Registry)
		assert.Equal(t, "config.toml", filepath.Base(paths.Config))
	})

	t.Run("falls back to XDG data home", func(t *testing.T) {
		t.Setenv("FILEPATCHER_ROOT", "")

		paths, err := DefaultPaths()
		require.NoError(t, err)
		assert.Equal(t, AppName, filepath.Base(paths.Root))
	})
}

func TestPaths_EnsureDirectories(t *testing.T) {
	t.Run("creates nested root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "a", "b")
		p := &Paths{Root: root}

		require.NoError(t, p.EnsureDirectories(realFS))
		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("read-only filesystem", func(t *testing.T) {
		p := &Paths{Root: "/data/filepatcher"}
		err := p.EnsureDirectories(fsops.New(afero.NewReadOnlyFs(afero.NewMemMapFs())))
		assert.Error(t, err)
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(realFS, "", false)
	require.NoError(t, err)

	assert.Equal(t, "files", cfg.SourceRoot)
	assert.Equal(t, []string{"5.4.2", "6.0.2"}, cfg.SupportedVersions)
	assert.True(t, cfg.AutoUninstall)
	assert.Equal(t, []string{"install", "update"}, cfg.CleanupLifecycles)
	assert.Equal(t, Identity{Name: "File Patcher", Element: "filepatcher", Type: "file"}, cfg.Identity)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
target_root = "/var/www/site"
supported_versions = ["7.0.0"]
auto_uninstall = false

[identity]
element = "sitepatch"

[host]
version_file = "VERSION"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("FILEPATCHER_SOURCE_ROOT", "/pkg/files")
	t.Setenv("FILEPATCHER_IDENTITY__TYPE", "component")
	t.Setenv("FILEPATCHER_CLEANUP_LIFECYCLES", "install,update,uninstall")

	cfg, err := Load(realFS, path, true)
	require.NoError(t, err)

	assert.Equal(t, "/var/www/site", cfg.TargetRoot)
	assert.Equal(t, "/pkg/files", cfg.SourceRoot)
	assert.Equal(t, []string{"7.0.0"}, cfg.SupportedVersions)
	assert.False(t, cfg.AutoUninstall)
	assert.Equal(t, "sitepatch", cfg.Identity.Element)
	assert.Equal(t, "component", cfg.Identity.Type)
	assert.Equal(t, "File Patcher", cfg.Identity.Name)
	assert.Equal(t, "VERSION", cfg.Host.VersionFile)
	assert.Equal(t, []string{"install", "update", "uninstall"}, cfg.CleanupLifecycles)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	_, err := Load(realFS, missing, false)
	assert.NoError(t, err)

	_, err = Load(realFS, missing, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(realFS, "", false)
		require.NoError(t, err)
		cfg.TargetRoot = "/var/www/site"
		cfg.SourceRoot = "/pkg/files"
		return cfg
	}

	t.Run("derives paths", func(t *testing.T) {
		cfg := base()
		require.NoError(t, cfg.Resolve("/data/registry.yaml"))
		assert.Equal(t, filepath.Join("/var/www/site", "administrator", "manifests"), cfg.ManifestsDir)
		assert.Equal(t, "/data/registry.yaml", cfg.RegistryPath)
		assert.Equal(t, []lifecycle.Type{lifecycle.Install, lifecycle.Update}, cfg.Lifecycles())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing target", mutate: func(c *Config) { c.TargetRoot = "" }},
		{name: "no versions", mutate: func(c *Config) { c.SupportedVersions = nil }},
		{name: "unsafe element", mutate: func(c *Config) { c.Identity.Element = "../x" }},
		{name: "missing type", mutate: func(c *Config) { c.Identity.Type = "" }},
		{name: "unknown lifecycle", mutate: func(c *Config) { c.CleanupLifecycles = []string{"reinstall"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Resolve("/data/registry.yaml")
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestHostVersion(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/site/VERSION", []byte(" 6.0.2 \nbuild 42\n"), 0644))
	require.NoError(t, afero.WriteFile(mem, "/site/EMPTY", []byte("\n"), 0644))
	fs := fsops.New(mem)

	tests := []struct {
		name     string
		host     Host
		override string
		want     string
		wantErr  bool
	}{
		{name: "override wins", host: Host{Version: "5.4.2"}, override: "6.0.2", want: "6.0.2"},
		{name: "configured version", host: Host{Version: "5.4.2", VersionFile: "VERSION"}, want: "5.4.2"},
		{name: "version file", host: Host{VersionFile: "VERSION"}, want: "6.0.2"},
		{name: "empty version file", host: Host{VersionFile: "EMPTY"}, wantErr: true},
		{name: "escaping version file", host: Host{VersionFile: "../etc/VERSION"}, wantErr: true},
		{name: "nothing configured", host: Host{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{TargetRoot: "/site", Host: tt.host}
			got, err := cfg.HostVersion(fs, tt.override)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	cfg, err := Load(realFS, "", false)
	require.NoError(t, err)
	cfg.TargetRoot = "/var/www/site"

	data, err := Encode(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "target_root")
	assert.Contains(t, string(data), "/var/www/site")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	reloaded, err := Load(realFS, path, true)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}
