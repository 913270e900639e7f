// Package azure wraps the Azure Resource Manager SDK behind the narrow
// surface the provisioning pipeline needs. Authentication rides on the
// active `az login` session via AzureCLICredential, and every client is
// pinned to the public cloud endpoints regardless of any other cloud the
// local CLI may be configured for.
package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/msi/armmsi"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/google/uuid"

	"github.com/halcyon-ops/azbootstrap/internal/provision"
)

var (
	// ErrToolingMissing marks an unavailable az CLI; the default credential
	// shells out to it for tokens.
	ErrToolingMissing = errors.New("azure tooling missing")
	// ErrNotAuthenticated marks a session that cannot be retrieved.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSubscriptionOverride marks an override that matches no accessible
	// subscription.
	ErrSubscriptionOverride = errors.New("subscription override failed")
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Options configures NewClient.
type Options struct {
	// Subscription selects a subscription by id or display name instead of
	// the session default (the first subscription the session reports).
	Subscription string
	// Credential overrides the Azure CLI credential (tests).
	Credential azcore.TokenCredential
	// Transport overrides the HTTP transport (tests).
	Transport policy.Transporter
}

// Client implements provision.API over the ARM SDK.
type Client struct {
	active provision.Context

	groups          *armresources.ResourceGroupsClient
	identities      *armmsi.UserAssignedIdentitiesClient
	roleAssignments *armauthorization.RoleAssignmentsClient
	roleDefinitions *armauthorization.RoleDefinitionsClient

	roleDefIDs map[string]string
}

// NewClient verifies the environment is ready to act and returns a client
// bound to the resolved subscription. The subscription enumeration doubles
// as the login check: if the session cannot list any subscription, there is
// no session.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cred := opts.Credential
	if cred == nil {
		// The CLI credential shells out to az; fail fast if it is not
		// installed rather than on the first token request.
		if _, err := lookPath("az"); err != nil {
			return nil, fmt.Errorf("%w: az CLI not found in PATH", ErrToolingMissing)
		}
		c, err := azidentity.NewAzureCLICredential(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolingMissing, err)
		}
		cred = c
	}

	armOpts := &arm.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			// Always the public cloud, regardless of `az cloud` state.
			Cloud:     cloud.AzurePublic,
			Transport: opts.Transport,
		},
	}

	active, err := resolveSubscription(ctx, cred, armOpts, opts.Subscription)
	if err != nil {
		return nil, err
	}

	groups, err := armresources.NewResourceGroupsClient(active.SubscriptionID, cred, armOpts)
	if err != nil {
		return nil, err
	}
	identities, err := armmsi.NewUserAssignedIdentitiesClient(active.SubscriptionID, cred, armOpts)
	if err != nil {
		return nil, err
	}
	roleAssignments, err := armauthorization.NewRoleAssignmentsClient(active.SubscriptionID, cred, armOpts)
	if err != nil {
		return nil, err
	}
	roleDefinitions, err := armauthorization.NewRoleDefinitionsClient(cred, armOpts)
	if err != nil {
		return nil, err
	}

	return &Client{
		active:          active,
		groups:          groups,
		identities:      identities,
		roleAssignments: roleAssignments,
		roleDefinitions: roleDefinitions,
		roleDefIDs:      map[string]string{},
	}, nil
}

// resolveSubscription enumerates the session's subscriptions and picks the
// override (matched by id or display name, case-insensitively) or the first
// one reported.
func resolveSubscription(ctx context.Context, cred azcore.TokenCredential, armOpts *arm.ClientOptions, override string) (provision.Context, error) {
	subs, err := armsubscriptions.NewClient(cred, armOpts)
	if err != nil {
		return provision.Context{}, err
	}

	var first *provision.Context
	pager := subs.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return provision.Context{}, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		for _, sub := range page.Value {
			cc := provision.Context{
				SubscriptionID:   deref(sub.SubscriptionID),
				SubscriptionName: deref(sub.DisplayName),
				TenantID:         deref(sub.TenantID),
			}
			if override != "" {
				if strings.EqualFold(override, cc.SubscriptionID) || strings.EqualFold(override, cc.SubscriptionName) {
					return cc, nil
				}
				continue
			}
			if first == nil {
				first = &cc
			}
		}
	}

	if override != "" {
		return provision.Context{}, fmt.Errorf("%w: no accessible subscription matches %q", ErrSubscriptionOverride, override)
	}
	if first == nil {
		return provision.Context{}, fmt.Errorf("%w: session reports no subscriptions, run 'az login'", ErrNotAuthenticated)
	}
	return *first, nil
}

// ActiveContext returns the subscription and tenant the client is bound to.
func (c *Client) ActiveContext() provision.Context {
	return c.active
}

// CreateOrUpdateResourceGroup issues an unconditional create-or-update;
// ARM applies it idempotently.
func (c *Client) CreateOrUpdateResourceGroup(ctx context.Context, name, location string, tags map[string]string) error {
	params := armresources.ResourceGroup{
		Location: to.Ptr(location),
		Tags:     map[string]*string{},
	}
	for k, v := range tags {
		params.Tags[k] = to.Ptr(v)
	}
	_, err := c.groups.CreateOrUpdate(ctx, name, params, nil)
	return err
}

// GetIdentity looks up a user-assigned identity. A 404 is reported as
// absence, not as an error.
func (c *Client) GetIdentity(ctx context.Context, resourceGroup, name string) (*provision.Identity, bool, error) {
	resp, err := c.identities.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		if hasStatusCode(err, http.StatusNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	id := &provision.Identity{ResourceID: deref(resp.ID)}
	if resp.Properties != nil {
		id.PrincipalID = deref(resp.Properties.PrincipalID)
		id.ClientID = deref(resp.Properties.ClientID)
	}
	return id, true, nil
}

// CreateIdentity creates a user-assigned identity in the given group.
func (c *Client) CreateIdentity(ctx context.Context, resourceGroup, name, location string) error {
	_, err := c.identities.CreateOrUpdate(ctx, resourceGroup, name, armmsi.Identity{
		Location: to.Ptr(location),
	}, nil)
	return err
}

// CountRoleAssignments counts assignments held by the principal at exactly
// the given scope for the given role. The list filter narrows by principal;
// scope and role definition are matched locally because ARM's filter grammar
// cannot express the full tuple.
func (c *Client) CountRoleAssignments(ctx context.Context, scope, principalID, roleName string) (int, error) {
	roleDefID, err := c.roleDefinitionID(ctx, scope, roleName)
	if err != nil {
		return 0, err
	}

	pager := c.roleAssignments.NewListForScopePager(scope, &armauthorization.RoleAssignmentsClientListForScopeOptions{
		Filter: to.Ptr(fmt.Sprintf("principalId eq '%s'", principalID)),
	})

	count := 0
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		for _, ra := range page.Value {
			if ra.Properties == nil {
				continue
			}
			if strings.EqualFold(deref(ra.Properties.Scope), scope) &&
				strings.EqualFold(deref(ra.Properties.RoleDefinitionID), roleDefID) {
				count++
			}
		}
	}
	return count, nil
}

// CreateRoleAssignment grants the role to the principal at the given scope.
// User-assigned identities are backed by service principals, so the
// assignment is created with that principal type.
func (c *Client) CreateRoleAssignment(ctx context.Context, scope, principalID, roleName string) error {
	roleDefID, err := c.roleDefinitionID(ctx, scope, roleName)
	if err != nil {
		return err
	}

	_, err = c.roleAssignments.Create(ctx, scope, uuid.NewString(), armauthorization.RoleAssignmentCreateParameters{
		Properties: &armauthorization.RoleAssignmentProperties{
			PrincipalID:      to.Ptr(principalID),
			PrincipalType:    to.Ptr(armauthorization.PrincipalTypeServicePrincipal),
			RoleDefinitionID: to.Ptr(roleDefID),
		},
	}, nil)
	if err != nil {
		// A race between the zero-count check and the create surfaces as a
		// conflict; the assignment is in place either way.
		if hasStatusCode(err, http.StatusConflict) {
			return nil
		}
		return err
	}
	return nil
}

// roleDefinitionID resolves a role name like "Owner" to its definition id
// at the given scope. Results are cached for the life of the client.
func (c *Client) roleDefinitionID(ctx context.Context, scope, roleName string) (string, error) {
	if id, ok := c.roleDefIDs[roleName]; ok {
		return id, nil
	}

	pager := c.roleDefinitions.NewListPager(scope, &armauthorization.RoleDefinitionsClientListOptions{
		Filter: to.Ptr(fmt.Sprintf("roleName eq '%s'", roleName)),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, rd := range page.Value {
			if rd.ID != nil {
				c.roleDefIDs[roleName] = *rd.ID
				return *rd.ID, nil
			}
		}
	}
	return "", fmt.Errorf("role definition %q not found at scope %s", roleName, scope)
}

func hasStatusCode(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
