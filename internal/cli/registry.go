package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/filepatcher/internal/registry"
)

var (
	registryAddFolder string
	registryLsAll     bool
)

// manifestFile is written into a registered manifest directory.
const manifestFile = "manifest.yaml"

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the patcher's registration records",
	Long: `Inspect and seed the registration registry.

The registry holds the records a host keeps for installed extensions. After a
successful install or update run, filepatcher removes its own record and
manifest folder from here.`,
}

var registryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register this patcher and create its manifest folder",
	Long: `Insert a registration record for the configured identity and create the
manifest folder the host would create at install time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(nil)
		if err != nil {
			return err
		}

		if err := a.paths.EnsureDirectories(a.fs); err != nil {
			return err
		}

		rec, err := a.registry().Insert(registry.Record{
			Name:    a.cfg.Identity.Name,
			Element: a.cfg.Identity.Element,
			Type:    a.cfg.Identity.Type,
			Folder:  registryAddFolder,
		})
		if err != nil {
			return fmt.Errorf("failed to register: %w", err)
		}

		dir := rec.ManifestDir(a.cfg.ManifestsDir)
		manifest, err := yaml.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		if err := a.fs.AtomicWrite(filepath.Join(dir, manifestFile), manifest, 0644); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}

		if jsonOutput {
			return outputJSON(rec)
		}

		PrintSuccess(fmt.Sprintf("Registered %s (id %d)", rec.Name, rec.ID))
		PrintLabelValue("Manifest", dir)
		PrintLabelValue("Registry", a.cfg.RegistryPath)
		return nil
	},
}

var registryLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List registration records",
	Long: `List the registration records matching this patcher's identity.
Use --all to list every record in the registry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(nil)
		if err != nil {
			return err
		}

		q := registry.Query{Element: a.cfg.Identity.Element, Type: a.cfg.Identity.Type}
		if registryLsAll {
			q = registry.Query{}
		}
		records, err := a.registry().Select(q)
		if err != nil {
			return fmt.Errorf("failed to read registry: %w", err)
		}

		if jsonOutput {
			if records == nil {
				records = []registry.Record{}
			}
			return outputJSON(records)
		}

		PrintSection("Registration Records")
		if len(records) == 0 {
			PrintEmptyState("No records found")
			return nil
		}

		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				strconv.FormatInt(r.ID, 10),
				r.Name,
				r.Element,
				r.Type,
				r.InstalledAt.Format("2006-01-02 15:04"),
			})
		}
		PrintTable([]string{"ID", "NAME", "ELEMENT", "TYPE", "INSTALLED"}, rows)
		fmt.Fprintln(stdout)
		PrintInfo(PrintCount(len(records), "record", "records"))
		return nil
	},
}

func init() {
	registryAddCmd.Flags().StringVar(&registryAddFolder, "folder", "", "Extension folder (group) to record")
	registryLsCmd.Flags().BoolVarP(&registryLsAll, "all", "a", false, "List every record, not only this patcher's")

	registryCmd.AddCommand(registryAddCmd)
	registryCmd.AddCommand(registryLsCmd)
}
