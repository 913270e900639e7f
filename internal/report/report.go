// Package report renders the final provisioning summary.
package report

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/halcyon-ops/azbootstrap/internal/provision"
)

// Summary is the structured view of a completed run.
type Summary struct {
	ResourceGroup string `json:"resourceGroup" yaml:"resourceGroup"`
	Identity      string `json:"identity" yaml:"identity"`
	PrincipalID   string `json:"principalId" yaml:"principalId"`
	ClientID      string `json:"clientId" yaml:"clientId"`
	ResourceID    string `json:"resourceId" yaml:"resourceId"`
	Scope         string `json:"scope" yaml:"scope"`
	Role          string `json:"role" yaml:"role"`
	Subscription  string `json:"subscription" yaml:"subscription"`
	Tenant        string `json:"tenant" yaml:"tenant"`
}

// FromResult builds a Summary from the pipeline result and the run context.
func FromResult(res *provision.Result, cc provision.Context) Summary {
	return Summary{
		ResourceGroup: res.ResourceGroup,
		Identity:      res.IdentityName,
		PrincipalID:   res.PrincipalID,
		ClientID:      res.ClientID,
		ResourceID:    res.ResourceID,
		Scope:         res.Scope,
		Role:          res.Role,
		Subscription:  fmt.Sprintf("%s (%s)", cc.SubscriptionName, cc.SubscriptionID),
		Tenant:        cc.TenantID,
	}
}

// Render formats the summary as text, json, or yaml.
func (s Summary) Render(format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal summary JSON: %w", err)
		}
		return string(data), nil
	case "yaml":
		data, err := yaml.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("failed to marshal summary YAML: %w", err)
		}
		return string(data), nil
	case "text", "":
		return fmt.Sprintf(`Summary:
  Resource group:   %s
  Identity:         %s
  Principal id:     %s
  Client id:        %s
  Resource id:      %s
  Scope:            %s
  Role:             %s
  Subscription:     %s
  Tenant:           %s`,
			s.ResourceGroup,
			s.Identity,
			s.PrincipalID,
			s.ClientID,
			s.ResourceID,
			s.Scope,
			s.Role,
			s.Subscription,
			s.Tenant,
		), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}
