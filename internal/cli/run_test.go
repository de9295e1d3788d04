package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/filepatcher/internal/cleanup"
	"github.com/danieljhkim/filepatcher/internal/config"
	"github.com/danieljhkim/filepatcher/internal/engine"
	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/overlay"
	"github.com/danieljhkim/filepatcher/internal/registry"
)

func TestRunCommand_AppliesExistingFilesOnly(t *testing.T) {
	site := setupTestSite(t)

	out, err := executeCommand(t, "--config", site.Config, "run", "--host-version", "5.4.2")
	require.NoError(t, err)

	assert.Equal(t, "patched index", readTestFile(t, filepath.Join(site.Target, "index.php")))
	assert.Equal(t, "patched version", readTestFile(t, filepath.Join(site.Target, "libraries", "src", "Version.php")))
	assert.NoFileExists(t, filepath.Join(site.Target, "plugins", "new.php"))

	assert.Contains(t, out, "Patch applied: index.php")
	assert.Contains(t, out, "Target file for patch not found: plugins/new.php")
	assert.Contains(t, out, "Patch run completed. Applied: 2, Failed: 0, Missing: 1.")
	assert.Contains(t, out, "Patch Summary")
}

func TestRunCommand_UnsupportedVersion(t *testing.T) {
	site := setupTestSite(t)

	out, err := executeCommand(t, "--config", site.Config, "run", "--host-version", "4.0.0")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrUnsupportedVersion)

	assert.Equal(t, "original index", readTestFile(t, filepath.Join(site.Target, "index.php")))
	assert.Contains(t, out, "Unsupported host version detected: 4.0.0")
	assert.NotContains(t, out, "Patch run completed")
}

func TestRunCommand_HostVersionFromFile(t *testing.T) {
	site := setupTestSite(t)
	writeTestFile(t, filepath.Join(site.Target, "VERSION"), "6.0.2\n")
	t.Setenv("FILEPATCHER_HOST__VERSION_FILE", "VERSION")

	out, err := executeCommand(t, "--config", site.Config, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied: 2")
}

func TestRunCommand_NoHostVersion(t *testing.T) {
	site := setupTestSite(t)

	_, err := executeCommand(t, "--config", site.Config, "run")
	assert.ErrorIs(t, err, config.ErrNoHostVersion)
}

func TestRunCommand_InvalidLifecycle(t *testing.T) {
	site := setupTestSite(t)

	_, err := executeCommand(t, "--config", site.Config, "run", "--type", "reinstall", "--host-version", "5.4.2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown lifecycle type")
	assert.Equal(t, "original index", readTestFile(t, filepath.Join(site.Target, "index.php")))
}

func TestRunCommand_MissingSourceFolder(t *testing.T) {
	site := setupTestSite(t)

	out, err := executeCommand(t, "--config", site.Config, "run",
		"--host-version", "5.4.2", "--source", filepath.Join(site.Root, "nope"))
	require.NoError(t, err)
	assert.Contains(t, out, "No patch files folder found in the installation package.")
	assert.Contains(t, out, "Applied: 0, Failed: 0, Missing: 0.")
}

func TestRunCommand_JSON(t *testing.T) {
	site := setupTestSite(t)

	out, err := executeCommand(t, "--config", site.Config, "--json", "run", "--host-version", "5.4.2", "--no-cleanup")
	require.NoError(t, err)

	var got struct {
		Lifecycle string `json:"lifecycle"`
		Result    struct {
			Preflight struct {
				Decision string `json:"decision"`
				Results  []struct {
					RelPath  string `json:"relPath"`
					Outcome  string `json:"outcome"`
					Checksum string `json:"checksum"`
				} `json:"results"`
			} `json:"preflight"`
			Postflight struct {
				Reported bool `json:"reported"`
				Counts   struct {
					Applied int `json:"applied"`
					Failed  int `json:"failed"`
					Missing int `json:"missing"`
				} `json:"counts"`
			} `json:"postflight"`
		} `json:"result"`
		Messages []struct {
			Severity string `json:"severity"`
			Message  string `json:"message"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, "install", got.Lifecycle)
	assert.Equal(t, "proceed", got.Result.Preflight.Decision)
	assert.True(t, got.Result.Postflight.Reported)
	assert.Equal(t, 2, got.Result.Postflight.Counts.Applied)
	assert.Equal(t, 0, got.Result.Postflight.Counts.Failed)
	assert.Equal(t, 1, got.Result.Postflight.Counts.Missing)

	require.Len(t, got.Result.Preflight.Results, 3)
	assert.Equal(t, "index.php", got.Result.Preflight.Results[0].RelPath)
	assert.Equal(t, "applied", got.Result.Preflight.Results[0].Outcome)
	assert.Len(t, got.Result.Preflight.Results[0].Checksum, 64)
	assert.Equal(t, "missing", got.Result.Preflight.Results[2].Outcome)

	require.NotEmpty(t, got.Messages)
	last := got.Messages[len(got.Messages)-1]
	assert.Equal(t, "info", last.Severity)
	assert.Equal(t, "Patch run completed. Applied: 2, Failed: 0, Missing: 1.", last.Message)
}

func TestRunCommand_CleansUpRegistration(t *testing.T) {
	site := setupTestSite(t)

	_, err := executeCommand(t, "--config", site.Config, "registry", "add")
	require.NoError(t, err)

	manifestDir := filepath.Join(site.Target, "administrator", "manifests", "files", "filepatcher")
	assert.DirExists(t, manifestDir)
	assert.DirExists(t, site.DataDir)

	out, err := executeCommand(t, "--config", site.Config, "run", "--host-version", "5.4.2")
	require.NoError(t, err)
	assert.Contains(t, out, "File Patcher (id 1) has successfully cleaned itself up after installation.")
	assert.NoDirExists(t, manifestDir)

	reg := registry.NewFileRegistry(fsops.NewRealFS(), filepath.Join(site.DataDir, "registry.yaml"))
	records, err := reg.Select(registry.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunCommand_NoCleanupKeepsRegistration(t *testing.T) {
	site := setupTestSite(t)

	_, err := executeCommand(t, "--config", site.Config, "registry", "add")
	require.NoError(t, err)

	out, err := executeCommand(t, "--config", site.Config, "run", "--host-version", "5.4.2", "--no-cleanup")
	require.NoError(t, err)
	assert.NotContains(t, out, "cleaned itself up")

	out, err = executeCommand(t, "--config", site.Config, "registry", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "filepatcher")
	assert.Contains(t, out, "1 record")
}

func TestRunCommand_UninstallSkipsCleanup(t *testing.T) {
	site := setupTestSite(t)

	_, err := executeCommand(t, "--config", site.Config, "registry", "add")
	require.NoError(t, err)

	_, err = executeCommand(t, "--config", site.Config, "run", "--type", "uninstall", "--host-version", "5.4.2")
	require.NoError(t, err)

	out, err := executeCommand(t, "--config", site.Config, "--json", "registry", "ls")
	require.NoError(t, err)

	var records []registry.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 1)
}

func TestRegistryLs_Empty(t *testing.T) {
	site := setupTestSite(t)

	out, err := executeCommand(t, "--config", site.Config, "registry", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No records found")
}

func TestConfigCommand(t *testing.T) {
	site := setupTestSite(t)

	out, err := executeCommand(t, "--config", site.Config, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "target_root")
	assert.Contains(t, out, site.Target)
	assert.Contains(t, out, "registry_path")
}

func TestConfigCommand_MissingExplicitFile(t *testing.T) {
	_, err := executeCommand(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "config")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrintRunSummary_ListsCleanupFailures(t *testing.T) {
	var out bytes.Buffer
	prevNoColor := color.NoColor
	color.NoColor = true
	stdout = &out
	t.Cleanup(func() {
		color.NoColor = prevNoColor
		stdout = color.Output
	})

	result := &engine.RunResult{
		Preflight: &engine.PreflightResult{HostVersion: "5.4.2"},
		Postflight: &engine.PostflightResult{
			Counts: overlay.Counts{Applied: 1},
			Cleanup: &cleanup.Report{Ran: true, Results: []cleanup.RecordResult{
				{Record: registry.Record{ID: 3, Element: "filepatcher"}, Err: errors.New("locked"), Error: "locked"},
				{Record: registry.Record{ID: 4, Element: "filepatcher"}, RecordDeleted: true},
			}},
		},
	}

	printRunSummary(result, nil)

	assert.Contains(t, out.String(), "Cleanup left 1 record behind:")
	assert.Contains(t, out.String(), "filepatcher (id 3): locked")
	assert.NotContains(t, out.String(), "id 4")
}
