package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/halcyon-ops/azbootstrap/internal/azure"
	"github.com/halcyon-ops/azbootstrap/internal/config"
	"github.com/halcyon-ops/azbootstrap/internal/naming"
	"github.com/halcyon-ops/azbootstrap/internal/provision"
	"github.com/halcyon-ops/azbootstrap/internal/report"
)

func runProvision(cmd *cobra.Command, args []string) error {
	// Load configuration (Viper resolves behind the scenes)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	names := naming.Derive(cfg)

	color.Cyan("Provisioning %s and %s in %s", names.ResourceGroup, names.Identity, cfg.Location)

	client, err := azure.NewClient(cmd.Context(), azure.Options{
		Subscription: cfg.Subscription,
	})
	if err != nil {
		color.Red("✗ %v", err)
		return err
	}

	cc := client.ActiveContext()
	color.Cyan("Subscription: %s (%s)", cc.SubscriptionName, cc.SubscriptionID)

	if cfg.Tenant != "" && !cc.MatchesTenant(cfg.Tenant) {
		color.Yellow("⚠ Requested tenant %q does not match active tenant %s; run 'az login --tenant %s' if this is unexpected", cfg.Tenant, cc.TenantID, cfg.Tenant)
	}

	res, err := provision.Run(cmd.Context(), client, cfg, names, cc)
	if err != nil {
		color.Red("✗ %v", err)
		return err
	}

	color.Green("✓ Provisioning complete")
	out, err := report.FromResult(res, cc).Render(cfg.Output)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	return nil
}
