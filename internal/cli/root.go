// Package cli implements the azbootstrap command tree.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrUsage marks command-line parse failures so main can exit with status 2.
var ErrUsage = errors.New("usage error")

var rootCmd = &cobra.Command{
	Use:   "azbootstrap",
	Short: "Provision an Azure resource group and an Owner-scoped managed identity",
	Long: `Provision the base Azure resources for a project stage:

  - a resource group named rg-{project}-{stage}[-{suffix}]
  - a user-assigned managed identity named id-{project}-{stage}[-{suffix}]
  - an Owner role assignment for that identity at the resource group scope

Every step is idempotent; re-running against existing resources is safe.
Authentication uses the active 'az login' session.`,
	SilenceUsage: true,
	RunE:         runProvision,
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.PrintErrln(cmd.UsageString())
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	// Define flags; environment fallbacks resolve through viper.
	f := rootCmd.PersistentFlags()
	f.StringP("project", "p", "", "project name component (env PROJECT)")
	f.StringP("stage", "s", "", "stage/environment component (env STAGE)")
	f.StringP("suffix", "x", "", "optional naming suffix (env SUFFIX)")
	f.StringP("location", "l", "", "target region (env LOCATION)")
	f.StringP("subscription", "S", "", "subscription id or name override (env SUBSCRIPTION, AZURE_SUBSCRIPTION_ID)")
	f.StringP("tenant", "T", "", "expected tenant for the identity check (env TENANT, AZURE_TENANT_ID)")
	f.StringP("output", "o", "", "summary format: text, json, or yaml")

	// Bind flags to viper
	viper.BindPFlag("project", f.Lookup("project"))
	viper.BindPFlag("stage", f.Lookup("stage"))
	viper.BindPFlag("suffix", f.Lookup("suffix"))
	viper.BindPFlag("location", f.Lookup("location"))
	viper.BindPFlag("subscription", f.Lookup("subscription"))
	viper.BindPFlag("tenant", f.Lookup("tenant"))
	viper.BindPFlag("output", f.Lookup("output"))
}
