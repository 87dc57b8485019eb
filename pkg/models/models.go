package models

import (
	"encoding/json"
	"time"
)

// ProviderConfig describes how to launch and identify one external MCP
// provider process. Configs are immutable once registered; re-registering
// the same name overwrites the previous config.
type ProviderConfig struct {
	Name        string            `json:"name" mapstructure:"name"`
	Command     string            `json:"command" mapstructure:"command"`
	Args        []string          `json:"args,omitempty" mapstructure:"args"`
	Env         map[string]string `json:"env,omitempty" mapstructure:"env"`
	Description string            `json:"description,omitempty" mapstructure:"description"`
}

// ToolDescriptor is one tool discovered from a provider. In the flattened
// catalog it is keyed by "provider:tool" because two providers may expose
// tools with the same local name.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
	Provider    string          `json:"provider"`
}

// ProviderStatus is a point-in-time snapshot of one registered provider.
type ProviderStatus struct {
	Registered  bool   `json:"registered"`
	Connected   bool   `json:"connected"`
	Command     string `json:"command"`
	Description string `json:"description"`
	ToolsCount  int    `json:"tools_count"`
}

// EmailMessage is a mail search hit from one account.
type EmailMessage struct {
	Account string    `json:"account"`
	ID      string    `json:"id"`
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Snippet string    `json:"snippet,omitempty"`
	Date    time.Time `json:"date"`
}

// DriveFile is a file search hit from one account's drive.
type DriveFile struct {
	Account  string    `json:"account"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	MimeType string    `json:"mime_type,omitempty"`
	Modified time.Time `json:"modified"`
	Link     string    `json:"link,omitempty"`
}

// CalendarEvent is one event from one account's calendar.
type CalendarEvent struct {
	Account   string    `json:"account"`
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// FreeSlot is an open interval found between calendar events.
type FreeSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// PullRequest is a code-host pull request summary.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Repo      string    `json:"repo"`
	State     string    `json:"state"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Issue is a code-host issue summary.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Repo      string    `json:"repo"`
	State     string    `json:"state"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CodeMatch is a code-search hit.
type CodeMatch struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// SearchResult is a ranked hit from the query engine.
type SearchResult struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Source  string    `json:"source"`
	Title   string    `json:"title"`
	Snippet string    `json:"snippet,omitempty"`
	Created time.Time `json:"created"`
}

// Person is an entity from the knowledge graph.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Activity is one piece of content involving a person.
type Activity struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Source  string    `json:"source"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

// GraphStats summarizes the indexed knowledge graph.
type GraphStats struct {
	EntityCounts  map[string]int `json:"entity_counts"`
	ContentCounts map[string]int `json:"content_counts"`
	LastSync      *time.Time     `json:"last_sync,omitempty"`
}
