package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	SetDefaults()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.MCPPort)
	assert.Equal(t, "attache.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.Providers)
}

func TestLoad_Providers(t *testing.T) {
	viper.Reset()
	SetDefaults()
	viper.Set("providers", []map[string]any{
		{
			"name":    "files",
			"command": "npx",
			"args":    []string{"-y", "@example/files-server"},
			"env":     map[string]string{"ROOT": "/data"},
		},
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "files", cfg.Providers[0].Name)
	assert.Equal(t, []string{"-y", "@example/files-server"}, cfg.Providers[0].Args)
	assert.Equal(t, "/data", cfg.Providers[0].Env["ROOT"])
}

func TestLoad_ProviderValidation(t *testing.T) {
	viper.Reset()
	SetDefaults()
	viper.Set("providers", []map[string]any{
		{"command": "npx"},
	})

	_, err := Load()
	assert.ErrorContains(t, err, "name is required")
}

func TestLoad_ProviderCommandOptional(t *testing.T) {
	viper.Reset()
	SetDefaults()
	viper.Set("providers", []map[string]any{
		{"name": "filesystem"},
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 1)
	assert.Empty(t, cfg.Providers[0].Command)
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg = &Config{Timezone: "UTC"}
	assert.Equal(t, time.UTC, cfg.Location())
}
