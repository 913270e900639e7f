package cli

import (
	"github.com/spf13/cobra"

	"github.com/halcyon-ops/azbootstrap/internal/config"
	"github.com/halcyon-ops/azbootstrap/internal/naming"
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Print the derived resource names without touching Azure",
	Long: `Resolve and validate the configuration, then print the resource group
and identity names that a run would provision. Useful for wiring the
names into other tooling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		n := naming.Derive(cfg)
		cmd.Printf("resource group: %s\n", n.ResourceGroup)
		cmd.Printf("identity:       %s\n", n.Identity)
		return nil
	},
}
