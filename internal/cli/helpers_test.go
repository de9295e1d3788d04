package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/filepatcher/internal/lifecycle"
)

// resetFlags restores every package-level flag variable, since cobra keeps
// parsed values between Execute calls.
func resetFlags() {
	jsonOutput = false
	configPath = ""
	verbosity = 0

	runType = string(lifecycle.Install)
	runSource = ""
	runTarget = ""
	runHostVersion = ""
	runNoCleanup = false

	registryAddFolder = ""
	registryLsAll = false

	for _, cmd := range []*cobra.Command{rootCmd, runCmd, registryAddCmd, registryLsCmd, configCmd} {
		if f := cmd.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
		}
	}
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		_ = f.Value.Set("false")
	}
}

// executeCommand runs the root command with args and returns what was
// written to stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	prevNoColor := color.NoColor
	color.NoColor = true

	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		color.NoColor = prevNoColor
		stdout, stderr = color.Output, color.Error
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// testSite is a temporary installation with a patch folder and config.
type testSite struct {
	Root    string
	Target  string
	Source  string
	Config  string
	DataDir string
}

// setupTestSite creates a target tree with two patchable files, a source tree
// with those two plus one file the target lacks, and a config file pointing
// at both.
func setupTestSite(t *testing.T) *testSite {
	t.Helper()

	root := t.TempDir()
	site := &testSite{
		Root:    root,
		Target:  filepath.Join(root, "site"),
		Source:  filepath.Join(root, "files"),
		Config:  filepath.Join(root, "config.toml"),
		DataDir: filepath.Join(root, "data"),
	}
	t.Setenv("FILEPATCHER_ROOT", site.DataDir)

	writeTestFile(t, filepath.Join(site.Target, "index.php"), "original index")
	writeTestFile(t, filepath.Join(site.Target, "libraries", "src", "Version.php"), "original version")

	writeTestFile(t, filepath.Join(site.Source, "index.php"), "patched index")
	writeTestFile(t, filepath.Join(site.Source, "libraries", "src", "Version.php"), "patched version")
	writeTestFile(t, filepath.Join(site.Source, "plugins", "new.php"), "not in target")

	cfg := fmt.Sprintf("source_root = %q\ntarget_root = %q\nsupported_versions = [\"5.4.2\", \"6.0.2\"]\n",
		site.Source, site.Target)
	writeTestFile(t, site.Config, cfg)

	return site
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
