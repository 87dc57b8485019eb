package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"attache/internal/logging"
	"attache/pkg/models"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultCallTimeout    = 60 * time.Second
)

// Client composes a provider registry, the set of live connections, and a
// flattened catalog of discovered tools keyed by "provider:tool". The
// registry, connections and catalog are owned exclusively by the Client.
type Client struct {
	registry *Registry
	dial     Dialer

	connectTimeout time.Duration
	callTimeout    time.Duration

	mu      sync.RWMutex
	conns   map[string]*connection
	catalog map[string]models.ToolDescriptor
}

// Option configures a Client.
type Option func(*Client)

// WithDialer substitutes the session dialer. Tests use this to avoid
// spawning real provider processes.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// WithConnectTimeout bounds process spawn, handshake and discovery.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) { c.connectTimeout = d }
}

// WithCallTimeout bounds a single tool invocation.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// New creates a Client. Without options it dials providers over stdio
// with the default timeouts.
func New(opts ...Option) *Client {
	c := &Client{
		registry:       NewRegistry(),
		dial:           DialStdio,
		connectTimeout: defaultConnectTimeout,
		callTimeout:    defaultCallTimeout,
		conns:          make(map[string]*connection),
		catalog:        make(map[string]models.ToolDescriptor),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompositeKey builds the catalog key for a provider's tool.
func CompositeKey(provider, tool string) string {
	return provider + ":" + tool
}

// Register inserts or overwrites a provider config by name. No I/O.
func (c *Client) Register(cfg models.ProviderConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Register(cfg)
	logging.Info("Registered provider: %s", cfg.Name)
}

// Unregister removes a provider config. If a connection and catalog
// entries exist for that name they are removed as a unit. Returns whether
// anything existed.
func (c *Client) Unregister(name string) bool {
	c.mu.Lock()
	conn := c.conns[name]
	existed := c.registry.Unregister(name)
	if existed {
		delete(c.conns, name)
		c.removeProviderToolsLocked(name)
	}
	c.mu.Unlock()

	if existed && conn != nil {
		conn.mu.Lock()
		if conn.session != nil {
			if err := conn.session.Close(); err != nil {
				logging.Warn("Error closing session for %s: %v", name, err)
			}
			conn.session = nil
		}
		conn.state = StateDisconnected
		conn.mu.Unlock()
		logging.Info("Unregistered provider: %s", name)
	}
	return existed
}

// Connect spawns the provider process, performs the session handshake and
// discovers its tools. It reports false, without raising, when the name is
// not registered or when spawn/handshake fail; no partial catalog entries
// survive a failed connect. A discovery failure after a successful
// handshake is logged and tolerated: the provider stays connected with
// zero tools.
func (c *Client) Connect(ctx context.Context, name string) bool {
	c.mu.Lock()
	cfg, ok := c.registry.Get(name)
	if !ok {
		c.mu.Unlock()
		logging.Error("Provider not registered: %s", name)
		return false
	}
	conn := c.conns[name]
	if conn == nil {
		conn = &connection{}
		c.conns[name] = conn
	}
	c.mu.Unlock()

	conn.mu.Lock()
	defer conn.mu.Unlock()

	// Reconnect semantics: drop any previous session first.
	if conn.session != nil {
		if err := conn.session.Close(); err != nil {
			logging.Warn("Error closing previous session for %s: %v", name, err)
		}
		conn.session = nil
		c.mu.Lock()
		c.removeProviderToolsLocked(name)
		c.mu.Unlock()
	}

	conn.state = StateConnecting

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	sess, err := c.dial(dialCtx, cfg)
	if err != nil {
		conn.state = StateFailed
		logging.Error("Error connecting to %s: %v", name, err)
		return false
	}

	// Discovery failure after a successful handshake does not undo the
	// connect; the provider is kept with zero tools.
	tools, err := sess.ListTools(dialCtx)
	if err != nil {
		logging.Error("Error discovering tools from %s: %v", name, err)
		tools = nil
	}

	descriptors := make(map[string]models.ToolDescriptor, len(tools))
	for _, tool := range tools {
		schema, merr := json.Marshal(tool.InputSchema)
		if merr != nil {
			schema = nil
		}
		key := CompositeKey(name, tool.Name)
		descriptors[key] = models.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
			Provider:    name,
		}
		logging.Debug("Discovered tool: %s", key)
	}

	// Publish the session and the whole tool set atomically so no reader
	// observes a half-populated catalog for this provider.
	conn.session = sess
	conn.state = StateConnected
	c.mu.Lock()
	c.removeProviderToolsLocked(name)
	for key, desc := range descriptors {
		c.catalog[key] = desc
	}
	c.mu.Unlock()

	logging.Info("Connected to provider %s (%d tools)", name, len(descriptors))
	return true
}

// Disconnect drops the provider's session and removes all of its catalog
// entries. Safe to call on an unconnected or unknown name.
func (c *Client) Disconnect(ctx context.Context, name string) {
	c.mu.Lock()
	conn := c.conns[name]
	c.mu.Unlock()

	if conn != nil {
		conn.mu.Lock()
		if conn.session != nil {
			if err := conn.session.Close(); err != nil {
				logging.Warn("Error closing session for %s: %v", name, err)
			}
			conn.session = nil
		}
		conn.state = StateDisconnected
		conn.mu.Unlock()
	}

	c.mu.Lock()
	c.removeProviderToolsLocked(name)
	c.mu.Unlock()

	logging.Info("Disconnected from provider: %s", name)
}

// DisconnectAll drops every session and clears the entire catalog. It
// drains: each provider's connection lock is taken, so in-flight calls
// unwind before their session is closed.
func (c *Client) DisconnectAll(ctx context.Context) {
	c.mu.Lock()
	names := make([]string, 0, len(c.conns))
	for name := range c.conns {
		names = append(names, name)
	}
	c.mu.Unlock()

	for _, name := range names {
		c.Disconnect(ctx, name)
	}

	c.mu.Lock()
	c.catalog = make(map[string]models.ToolDescriptor)
	c.mu.Unlock()

	logging.Info("Disconnected from all providers")
}

// ListTools returns the catalog, optionally filtered to one provider.
// Always succeeds; empty when nothing matches.
func (c *Client) ListTools(provider string) []models.ToolDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.catalog))
	for key, desc := range c.catalog {
		if provider != "" && desc.Provider != provider {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tools := make([]models.ToolDescriptor, 0, len(keys))
	for _, key := range keys {
		tools = append(tools, c.catalog[key])
	}
	return tools
}

// GetTool looks up a single tool by its composite key.
func (c *Client) GetTool(key string) (models.ToolDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.catalog[key]
	return desc, ok
}

// CallTool invokes a tool by composite key. It fails with ErrToolNotFound
// or ErrNotConnected before any I/O; transport failures during the call
// are logged and returned to the caller. The response's first textual
// content part is parsed as JSON, falling back to {"text": raw}; responses
// without text yield {"status": "success", "content": ...}.
func (c *Client) CallTool(ctx context.Context, key string, args map[string]any) (map[string]any, error) {
	c.mu.RLock()
	tool, ok := c.catalog[key]
	var conn *connection
	if ok {
		conn = c.conns[tool.Provider]
	}
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, key)
	}
	// Defensive: disconnect removes catalog entries, but a stale
	// descriptor must not reach the transport.
	if conn == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, tool.Provider)
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if !conn.connected() {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, tool.Provider)
	}

	localName := key
	if idx := strings.Index(key, ":"); idx >= 0 {
		localName = key[idx+1:]
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	result, err := conn.session.CallTool(callCtx, localName, args)
	if err != nil {
		logging.Error("Error calling tool %s: %v", key, err)
		return nil, fmt.Errorf("failed to call tool %s: %w", key, err)
	}

	return interpretResult(result), nil
}

func interpretResult(result *mcp.CallToolResult) map[string]any {
	for _, content := range result.Content {
		textContent, ok := mcp.AsTextContent(content)
		if !ok {
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(textContent.Text), &parsed); err != nil {
			return map[string]any{"text": textContent.Text}
		}
		return parsed
	}
	return map[string]any{
		"status":  "success",
		"content": result.Content,
	}
}

// Status reports a point-in-time snapshot for every registered provider:
// connectivity, launch command, description and attributed catalog size.
func (c *Client) Status() map[string]models.ProviderStatus {
	c.mu.RLock()
	toolCounts := make(map[string]int)
	for _, desc := range c.catalog {
		toolCounts[desc.Provider]++
	}
	names := c.registry.Names()
	configs := make(map[string]models.ProviderConfig, len(names))
	conns := make(map[string]*connection, len(names))
	for _, name := range names {
		cfg, _ := c.registry.Get(name)
		configs[name] = cfg
		conns[name] = c.conns[name]
	}
	c.mu.RUnlock()

	status := make(map[string]models.ProviderStatus)
	for _, name := range names {
		cfg := configs[name]
		connected := false
		if conn := conns[name]; conn != nil {
			conn.mu.Lock()
			connected = conn.connected()
			conn.mu.Unlock()
		}
		status[name] = models.ProviderStatus{
			Registered:  true,
			Connected:   connected,
			Command:     cfg.Command,
			Description: cfg.Description,
			ToolsCount:  toolCounts[name],
		}
	}
	return status
}

func (c *Client) removeProviderToolsLocked(name string) {
	for key, desc := range c.catalog {
		if desc.Provider == name {
			delete(c.catalog, key)
		}
	}
}
