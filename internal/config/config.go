package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"attache/pkg/models"
)

// Config holds everything the bridge reads at startup. Values come from
// the YAML config file and ATTACHE_* environment variables via viper.
type Config struct {
	Debug        bool
	MCPPort      int
	DatabasePath string

	ConnectTimeout time.Duration
	CallTimeout    time.Duration

	GitHubToken   string
	GitHubBaseURL string

	Timezone string

	Providers []models.ProviderConfig
}

// SetDefaults registers every tunable's default with viper. Called once
// during CLI initialization, before ReadInConfig.
func SetDefaults() {
	viper.SetDefault("mcp_port", 3000)
	viper.SetDefault("database_path", "attache.db")
	viper.SetDefault("connect_timeout", "30s")
	viper.SetDefault("call_timeout", "60s")
	viper.SetDefault("github_base_url", "https://api.github.com")
	viper.SetDefault("timezone", "UTC")
	viper.SetDefault("debug", false)
}

// Load reads the effective configuration out of viper.
func Load() (*Config, error) {
	cfg := &Config{
		Debug:          viper.GetBool("debug"),
		MCPPort:        viper.GetInt("mcp_port"),
		DatabasePath:   viper.GetString("database_path"),
		ConnectTimeout: viper.GetDuration("connect_timeout"),
		CallTimeout:    viper.GetDuration("call_timeout"),
		GitHubToken:    viper.GetString("github_token"),
		GitHubBaseURL:  viper.GetString("github_base_url"),
		Timezone:       viper.GetString("timezone"),
	}

	if err := viper.UnmarshalKey("providers", &cfg.Providers); err != nil {
		return nil, fmt.Errorf("invalid providers config: %w", err)
	}
	// Command may be empty when the name matches a built-in provider
	// definition; the CLI resolves those before registering.
	for i, p := range cfg.Providers {
		if p.Name == "" {
			return nil, fmt.Errorf("provider %d: name is required", i)
		}
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
