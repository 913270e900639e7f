// Package azbootstrap documents the azbootstrap CLI.
//
// azbootstrap provisions the base Azure resources for a project stage:
// a resource group, a user-assigned managed identity, and an Owner role
// assignment for that identity at the resource group scope. Every step is
// idempotent, so re-running with the same inputs is always safe.
//
// # Installation
//
//	go install github.com/halcyon-ops/azbootstrap/cmd/azbootstrap@latest
//
// # Quick Start
//
//	az login
//	azbootstrap --project myapp --stage dev
//	azbootstrap names --project myapp --stage dev
//
// # Naming
//
// Resources are named deterministically from the normalized inputs:
//
//	rg-{project}-{stage}[-{suffix}]
//	id-{project}-{stage}[-{suffix}]
//
// Inputs are lowercased and stripped of leading/trailing hyphens, and must
// match [a-z0-9-]+ after normalization.
//
// # Configuration
//
// Every flag has an environment fallback (PROJECT, STAGE, SUFFIX, LOCATION,
// SUBSCRIPTION/AZURE_SUBSCRIPTION_ID, TENANT/AZURE_TENANT_ID); flags win.
// The default location is northeurope.
//
// # Authentication
//
// The tool rides on the active `az login` session and always targets the
// Azure public cloud. Pass --subscription to pin a subscription by id or
// display name, and --tenant to get a warning when the active session
// belongs to a different tenant than expected.
package azbootstrap
