package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	koanftoml "github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/lifecycle"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nested keys: FILEPATCHER_IDENTITY__ELEMENT sets identity.element.
const EnvPrefix = "FILEPATCHER_"

// ErrInvalid indicates the configuration failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the effective filepatcher configuration.
type Config struct {
	// SourceRoot is the folder holding the replacement files.
	SourceRoot string `koanf:"source_root" toml:"source_root" json:"source_root,omitempty"`

	// TargetRoot is the root of the live installation. Required.
	TargetRoot string `koanf:"target_root" toml:"target_root" json:"target_root,omitempty"`

	// ManifestsDir holds extension manifest folders (default <target>/administrator/manifests).
	ManifestsDir string `koanf:"manifests_dir" toml:"manifests_dir" json:"manifests_dir,omitempty"`

	// RegistryPath is the registration registry file (default under the data root).
	RegistryPath string `koanf:"registry_path" toml:"registry_path" json:"registry_path,omitempty"`

	// SupportedVersions lists the exact host versions the patch may run on.
	SupportedVersions []string `koanf:"supported_versions" toml:"supported_versions" json:"supported_versions,omitempty"`

	// AutoUninstall removes the patcher's registration after install/update.
	AutoUninstall bool `koanf:"auto_uninstall" toml:"auto_uninstall" json:"auto_uninstall"`

	// CleanupLifecycles lists the lifecycle types that trigger cleanup.
	CleanupLifecycles []string `koanf:"cleanup_lifecycles" toml:"cleanup_lifecycles" json:"cleanup_lifecycles,omitempty"`

	Identity Identity `koanf:"identity" toml:"identity" json:"identity,omitempty"`
	Host     Host     `koanf:"host" toml:"host" json:"host,omitempty"`
}

// Identity is the patcher's registry identity.
type Identity struct {
	Name    string `koanf:"name" toml:"name" json:"name,omitempty"`
	Element string `koanf:"element" toml:"element" json:"element,omitempty"`
	Type    string `koanf:"type" toml:"type" json:"type,omitempty"`
}

// Host describes how the host version is found.
type Host struct {
	// Version is used as-is when set.
	Version string `koanf:"version" toml:"version,omitempty" json:"version,omitempty"`

	// VersionFile is read (first line, trimmed) relative to the target root
	// when Version is empty.
	VersionFile string `koanf:"version_file" toml:"version_file,omitempty" json:"version_file,omitempty"`
}

// Defaults returns the built-in settings as a flat koanf map.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"source_root":        "files",
		"target_root":        "",
		"manifests_dir":      "",
		"registry_path":      "",
		"supported_versions": []string{"5.4.2", "6.0.2"},
		"auto_uninstall":     true,
		"cleanup_lifecycles": []string{string(lifecycle.Install), string(lifecycle.Update)},
		"identity.name":      "File Patcher",
		"identity.element":   "filepatcher",
		"identity.type":      "file",
		"host.version":       "",
		"host.version_file":  "",
	}
}

// Load builds the configuration from defaults, the TOML file at path (if it
// exists; a missing file is an error only when required is true) and the
// environment.
func Load(fs fsops.FS, path string, required bool) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		exists, err := fs.Exists(path)
		if err != nil {
			return nil, fmt.Errorf("failed to check config file %s: %w", path, err)
		}
		if exists {
			if err := k.Load(file.Provider(path), koanftoml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else if required {
			return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Resolve fills derived paths, makes paths absolute and validates the result.
// registryDefault is used when RegistryPath is empty.
func (c *Config) Resolve(registryDefault string) error {
	if c.TargetRoot == "" {
		return fmt.Errorf("%w: target_root is required", ErrInvalid)
	}
	if len(c.SupportedVersions) == 0 {
		return fmt.Errorf("%w: supported_versions must not be empty", ErrInvalid)
	}
	if err := fsops.ValidateIdentifier(c.Identity.Element); err != nil {
		return fmt.Errorf("%w: identity.element: %v", ErrInvalid, err)
	}
	if c.Identity.Type == "" {
		return fmt.Errorf("%w: identity.type is required", ErrInvalid)
	}
	if _, err := lifecycle.ParseAll(c.CleanupLifecycles); err != nil {
		return fmt.Errorf("%w: cleanup_lifecycles: %v", ErrInvalid, err)
	}

	var err error
	if c.TargetRoot, err = filepath.Abs(c.TargetRoot); err != nil {
		return fmt.Errorf("failed to resolve target_root: %w", err)
	}
	if c.SourceRoot != "" {
		if c.SourceRoot, err = filepath.Abs(c.SourceRoot); err != nil {
			return fmt.Errorf("failed to resolve source_root: %w", err)
		}
	}
	if c.ManifestsDir == "" {
		c.ManifestsDir = filepath.Join(c.TargetRoot, "administrator", "manifests")
	} else if c.ManifestsDir, err = filepath.Abs(c.ManifestsDir); err != nil {
		return fmt.Errorf("failed to resolve manifests_dir: %w", err)
	}
	if c.RegistryPath == "" {
		c.RegistryPath = registryDefault
	}

	return nil
}

// Lifecycles returns CleanupLifecycles as lifecycle types. Call after Resolve.
func (c *Config) Lifecycles() []lifecycle.Type {
	types, _ := lifecycle.ParseAll(c.CleanupLifecycles)
	return types
}
