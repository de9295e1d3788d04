package cli

import (
	"encoding/json"
	"fmt"

	"github.com/danieljhkim/filepatcher/internal/cleanup"
	"github.com/danieljhkim/filepatcher/internal/config"
	"github.com/danieljhkim/filepatcher/internal/engine"
	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/guard"
	"github.com/danieljhkim/filepatcher/internal/hash"
	"github.com/danieljhkim/filepatcher/internal/registry"
	"github.com/danieljhkim/filepatcher/internal/report"
)

// app bundles the loaded configuration with the real filesystem.
type app struct {
	cfg   *config.Config
	paths *config.Paths
	fs    fsops.FS
}

// loadApp loads and resolves configuration. override runs between loading
// and resolving so command flags win over file and environment values.
func loadApp(override func(*config.Config)) (*app, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	path, required := configPath, configPath != ""
	if path == "" {
		path = paths.Config
	}

	fs := fsops.NewRealFS()
	cfg, err := config.Load(fs, path, required)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Resolve(paths.Registry); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, paths: paths, fs: fs}, nil
}

// registry opens the file-backed registration registry.
func (a *app) registry() *registry.FileRegistry {
	return registry.NewFileRegistry(a.fs, a.cfg.RegistryPath)
}

// newEngine creates a new engine with real implementations of all dependencies.
// cleanup is skipped entirely when withCleanup is false.
func (a *app) newEngine(sink report.Sink, withCleanup bool) *engine.Engine {
	var cleaner *cleanup.Cleaner
	if withCleanup {
		identity := cleanup.Identity{
			Name:    a.cfg.Identity.Name,
			Element: a.cfg.Identity.Element,
			Type:    a.cfg.Identity.Type,
		}
		policy := cleanup.Policy{
			AutoUninstall: a.cfg.AutoUninstall,
			Lifecycles:    a.cfg.Lifecycles(),
		}
		cleaner = cleanup.New(a.registry(), a.fs, a.cfg.ManifestsDir, identity, policy, sink)
	}

	return engine.New(
		a.fs,
		guard.New(a.cfg.SupportedVersions),
		hash.NewSHA256Hasher(a.fs),
		cleaner,
		sink,
		engine.Roots{Source: a.cfg.SourceRoot, Target: a.cfg.TargetRoot},
	)
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	out, err := formatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}
