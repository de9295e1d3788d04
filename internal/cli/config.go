package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/filepatcher/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and FILEPATCHER_*
environment variables are applied, with derived paths filled in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(nil)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(a.cfg)
		}

		data, err := config.Encode(a.cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(stdout, string(data))
		return err
	},
}
