package bridge

import "attache/pkg/models"

// CommonProviders returns predefined configs for well-known MCP providers.
// A config file entry that names one of these without a command inherits
// the built-in definition.
func CommonProviders() map[string]models.ProviderConfig {
	return map[string]models.ProviderConfig{
		"filesystem": {
			Name:        "filesystem",
			Command:     "npx",
			Args:        []string{"-y", "@modelcontextprotocol/server-filesystem", "/"},
			Description: "Filesystem access via MCP",
		},
		"brave-search": {
			Name:        "brave-search",
			Command:     "npx",
			Args:        []string{"-y", "@anthropic/mcp-server-brave-search"},
			Description: "Web search via Brave Search API",
		},
		"github": {
			Name:        "github",
			Command:     "npx",
			Args:        []string{"-y", "@modelcontextprotocol/server-github"},
			Description: "GitHub API access via MCP",
		},
		"google-drive": {
			Name:        "google-drive",
			Command:     "npx",
			Args:        []string{"-y", "@anthropic/mcp-server-google-drive"},
			Description: "Google Drive access via MCP",
		},
		"slack": {
			Name:        "slack",
			Command:     "npx",
			Args:        []string{"-y", "@modelcontextprotocol/server-slack"},
			Description: "Slack API access via MCP",
		},
	}
}
