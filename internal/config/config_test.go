package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases",
			in:   "MyApp",
			want: "myapp",
		},
		{
			name: "strips leading and trailing hyphens",
			in:   "--EU-",
			want: "eu",
		},
		{
			name: "keeps interior hyphens",
			in:   "my-app",
			want: "my-app",
		},
		{
			name: "trims whitespace",
			in:   "  dev ",
			want: "dev",
		},
		{
			name: "empty stays empty",
			in:   "",
			want: "",
		},
		{
			name: "only hyphens collapse to empty",
			in:   "---",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"MyApp", "--EU-", "my-app", "a1-b2", ""} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalizing %q twice", in)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := Config{
		Project:  "myapp",
		Stage:    "dev",
		Location: DefaultLocation,
		Output:   "text",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid without suffix",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid with suffix",
			mutate: func(c *Config) { c.Suffix = "eu" },
		},
		{
			name:    "missing project",
			mutate:  func(c *Config) { c.Project = "" },
			wantErr: ErrMissingInput,
		},
		{
			name:    "missing stage",
			mutate:  func(c *Config) { c.Stage = "" },
			wantErr: ErrMissingInput,
		},
		{
			name:    "underscore in project",
			mutate:  func(c *Config) { c.Project = "my_app" },
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "uppercase in stage",
			mutate:  func(c *Config) { c.Stage = "Dev" },
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "empty location",
			mutate:  func(c *Config) { c.Location = "" },
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "dot in suffix",
			mutate:  func(c *Config) { c.Suffix = "eu.1" },
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "unknown output format",
			mutate:  func(c *Config) { c.Output = "table" },
			wantErr: ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrorNamesFieldAndValue(t *testing.T) {
	cfg := Config{Project: "my_app", Stage: "dev", Location: DefaultLocation, Output: "text"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project")
	assert.Contains(t, err.Error(), `"my_app"`)
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Init())

	t.Setenv("PROJECT", "MyApp")
	t.Setenv("STAGE", "Dev")
	t.Setenv("SUFFIX", "--EU-")
	t.Setenv("AZURE_SUBSCRIPTION_ID", "00000000-0000-0000-0000-000000000001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "myapp", cfg.Project)
	assert.Equal(t, "dev", cfg.Stage)
	assert.Equal(t, "eu", cfg.Suffix)
	assert.Equal(t, DefaultLocation, cfg.Location)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", cfg.Subscription)
	assert.Equal(t, "text", cfg.Output)
}

func TestLoadPrefersPrimaryEnvName(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Init())

	t.Setenv("PROJECT", "demo")
	t.Setenv("STAGE", "prod")
	t.Setenv("SUBSCRIPTION", "corp-prod")
	t.Setenv("AZURE_SUBSCRIPTION_ID", "00000000-0000-0000-0000-000000000002")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "corp-prod", cfg.Subscription)
}

func TestLoadMissingProject(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Init())

	t.Setenv("STAGE", "dev")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), "project")
}
