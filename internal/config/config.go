// Package config provides configuration management for the azbootstrap CLI.
//
// It implements the disciplined Viper pattern where Viper stays contained
// in this package and the rest of the codebase receives the validated Config
// value. Configuration sources are resolved in this order: flags > env > defaults.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// DefaultLocation is the region used when neither --location nor LOCATION is set.
const DefaultLocation = "northeurope"

var (
	// ErrMissingInput marks a required field that is empty after resolution.
	ErrMissingInput = errors.New("missing required input")
	// ErrInvalidFormat marks a field that fails naming-pattern validation.
	ErrInvalidFormat = errors.New("invalid format")
)

// namePattern is the shape every naming component must have after
// normalization: lowercase alphanumerics and hyphens, nothing else.
var namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Config is the validated configuration for one run. Construct it only
// through Load; downstream packages never see raw input. Values are never
// mutated after Load returns.
type Config struct {
	Project      string
	Stage        string
	Suffix       string
	Location     string
	Subscription string
	Tenant       string
	Output       string
}

// Init initializes viper with defaults and environment bindings.
func Init() error {
	viper.SetDefault("location", DefaultLocation)
	viper.SetDefault("output", "text")

	// Each key lists its environment fallbacks in priority order. The
	// AZURE_* variants match what the Azure CLI itself honors.
	bindings := [][]string{
		{"project", "PROJECT"},
		{"stage", "STAGE"},
		{"suffix", "SUFFIX"},
		{"location", "LOCATION"},
		{"subscription", "SUBSCRIPTION", "AZURE_SUBSCRIPTION_ID"},
		{"tenant", "TENANT", "AZURE_TENANT_ID"},
	}
	for _, b := range bindings {
		if err := viper.BindEnv(b...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}

	return nil
}

// Load resolves all sources, normalizes the naming components, and returns
// the validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Project:      Normalize(viper.GetString("project")),
		Stage:        Normalize(viper.GetString("stage")),
		Suffix:       Normalize(viper.GetString("suffix")),
		Location:     Normalize(viper.GetString("location")),
		Subscription: strings.TrimSpace(viper.GetString("subscription")),
		Tenant:       strings.TrimSpace(viper.GetString("tenant")),
		Output:       viper.GetString("output"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Normalize lowercases a naming component and strips leading and trailing
// hyphens. Normalizing an already-normalized value is a no-op.
func Normalize(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), "-")
}

// Validate ensures every naming component matches the resource naming rules.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("%w: project (set --project or PROJECT)", ErrMissingInput)
	}
	if c.Stage == "" {
		return fmt.Errorf("%w: stage (set --stage or STAGE)", ErrMissingInput)
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"project", c.Project},
		{"stage", c.Stage},
		{"location", c.Location},
	} {
		if !namePattern.MatchString(f.value) {
			return fmt.Errorf("%w: %s %q (must match [a-z0-9-]+)", ErrInvalidFormat, f.name, f.value)
		}
	}
	if c.Suffix != "" && !namePattern.MatchString(c.Suffix) {
		return fmt.Errorf("%w: suffix %q (must match [a-z0-9-]+)", ErrInvalidFormat, c.Suffix)
	}

	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: output %q (must be text, json, or yaml)", ErrInvalidFormat, c.Output)
	}

	return nil
}
