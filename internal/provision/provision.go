// Package provision implements the idempotent ensure sequence: resource
// group, user-assigned managed identity, and the Owner role assignment at
// the resource group scope.
//
// The sequence is strictly linear and never rolls back. Every mutating call
// is safe to re-run, so re-running the tool is the recovery mechanism for
// any failed run.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/halcyon-ops/azbootstrap/internal/config"
	"github.com/halcyon-ops/azbootstrap/internal/naming"
)

// OwnerRole is the built-in role granted to the identity at the resource
// group scope.
const OwnerRole = "Owner"

var (
	// ErrProvisioningFailed marks a failed resource group or identity
	// create call, or a failed control-plane query.
	ErrProvisioningFailed = errors.New("provisioning failed")
	// ErrIdentityResolution marks an identity that exists but reports no
	// principal id; role assignment cannot proceed without one.
	ErrIdentityResolution = errors.New("identity resolution failed")
)

// Context describes the subscription and tenant the run operates in.
type Context struct {
	SubscriptionID   string
	SubscriptionName string
	TenantID         string
}

// MatchesTenant reports whether want equals the active tenant id or the
// subscription display name, case-insensitively. The subscription-name
// fallback is deliberate: the CLI session cannot resolve tenants by display
// name, so callers commonly pass the subscription name instead.
func (c Context) MatchesTenant(want string) bool {
	return strings.EqualFold(want, c.TenantID) || strings.EqualFold(want, c.SubscriptionName)
}

// Identity is the user-assigned managed identity as reported by the control
// plane.
type Identity struct {
	PrincipalID string
	ClientID    string
	ResourceID  string
}

// API is the narrow control-plane surface the pipeline runs against. The
// production implementation lives in internal/azure; tests substitute a
// recording double.
type API interface {
	// CreateOrUpdateResourceGroup issues an unconditional create-or-update.
	CreateOrUpdateResourceGroup(ctx context.Context, name, location string, tags map[string]string) error
	// GetIdentity reports whether the identity exists and, if so, its ids.
	GetIdentity(ctx context.Context, resourceGroup, name string) (*Identity, bool, error)
	CreateIdentity(ctx context.Context, resourceGroup, name, location string) error
	// CountRoleAssignments counts existing assignments matching the
	// principal, scope, and role name exactly.
	CountRoleAssignments(ctx context.Context, scope, principalID, roleName string) (int, error)
	CreateRoleAssignment(ctx context.Context, scope, principalID, roleName string) error
}

// Result is the final state reported after a successful run.
type Result struct {
	ResourceGroup   string
	IdentityName    string
	PrincipalID     string
	ClientID        string
	ResourceID      string
	Scope           string
	Role            string
	IdentityCreated bool
	RoleAssigned    bool
}

// Scope returns the role assignment scope for a resource group.
func Scope(subscriptionID, resourceGroup string) string {
	return "/subscriptions/" + subscriptionID + "/resourceGroups/" + resourceGroup
}

// Run executes the ensure sequence against api. Each stage blocks on the
// prior stage; the first failure aborts the run with already-created
// resources left in place.
func Run(ctx context.Context, api API, cfg *config.Config, names naming.Names, cc Context) (*Result, error) {
	tags := map[string]string{
		"project":    cfg.Project,
		"stage":      cfg.Stage,
		"managed-by": "azbootstrap",
	}

	color.Cyan("→ Ensuring resource group %s in %s", names.ResourceGroup, cfg.Location)
	if err := api.CreateOrUpdateResourceGroup(ctx, names.ResourceGroup, cfg.Location, tags); err != nil {
		return nil, fmt.Errorf("%w: resource group %s: %v", ErrProvisioningFailed, names.ResourceGroup, err)
	}

	color.Cyan("→ Ensuring managed identity %s", names.Identity)
	_, found, err := api.GetIdentity(ctx, names.ResourceGroup, names.Identity)
	if err != nil {
		return nil, fmt.Errorf("%w: identity lookup %s: %v", ErrProvisioningFailed, names.Identity, err)
	}
	identityCreated := false
	if found {
		color.Green("✓ Identity already exists")
	} else {
		if err := api.CreateIdentity(ctx, names.ResourceGroup, names.Identity, cfg.Location); err != nil {
			return nil, fmt.Errorf("%w: identity %s: %v", ErrProvisioningFailed, names.Identity, err)
		}
		identityCreated = true
		color.Green("✓ Identity created")
	}

	// Re-query so both branches report the same control-plane view.
	id, found, err := api.GetIdentity(ctx, names.ResourceGroup, names.Identity)
	if err != nil {
		return nil, fmt.Errorf("%w: identity read-back %s: %v", ErrProvisioningFailed, names.Identity, err)
	}
	if !found || id.PrincipalID == "" {
		return nil, fmt.Errorf("%w: identity %s reports no principal id", ErrIdentityResolution, names.Identity)
	}

	scope := Scope(cc.SubscriptionID, names.ResourceGroup)
	color.Cyan("→ Ensuring %s role assignment at %s", OwnerRole, scope)
	n, err := api.CountRoleAssignments(ctx, scope, id.PrincipalID, OwnerRole)
	if err != nil {
		return nil, fmt.Errorf("%w: role assignment lookup: %v", ErrProvisioningFailed, err)
	}
	roleAssigned := false
	if n == 0 {
		if err := api.CreateRoleAssignment(ctx, scope, id.PrincipalID, OwnerRole); err != nil {
			return nil, fmt.Errorf("%w: role assignment: %v", ErrProvisioningFailed, err)
		}
		roleAssigned = true
		color.Green("✓ Role assignment created")
	} else {
		color.Green("✓ Role assignment already exists")
	}

	return &Result{
		ResourceGroup:   names.ResourceGroup,
		IdentityName:    names.Identity,
		PrincipalID:     id.PrincipalID,
		ClientID:        id.ClientID,
		ResourceID:      id.ResourceID,
		Scope:           scope,
		Role:            OwnerRole,
		IdentityCreated: identityCreated,
		RoleAssigned:    roleAssigned,
	}, nil
}
