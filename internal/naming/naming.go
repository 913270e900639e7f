// Package naming derives the deterministic Azure resource names for a run.
//
// Collisions with existing resources are not detected here; the ensure
// operations downstream are idempotent against resources that already exist
// under the derived names.
package naming

import (
	"github.com/halcyon-ops/azbootstrap/internal/config"
)

// Names holds the derived resource names for one run.
type Names struct {
	ResourceGroup string
	Identity      string
}

// Derive computes the resource group and identity names from a validated
// configuration. The suffix segment is appended only when a suffix is set.
func Derive(cfg *config.Config) Names {
	base := cfg.Project + "-" + cfg.Stage
	if cfg.Suffix != "" {
		base += "-" + cfg.Suffix
	}
	return Names{
		ResourceGroup: "rg-" + base,
		Identity:      "id-" + base,
	}
}
