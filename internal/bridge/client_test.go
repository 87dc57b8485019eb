package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attache/pkg/models"
)

type fakeSession struct {
	tools   []mcp.Tool
	listErr error

	callResult *mcp.CallToolResult
	callErr    error
	calledWith []string

	closed bool
}

func (f *fakeSession) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tools, nil
}

func (f *fakeSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	f.calledWith = append(f.calledWith, name)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.callResult, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

// fakeDialer hands out per-provider sessions, or an error for providers
// whose process should fail to come up.
type fakeDialer struct {
	sessions map[string]*fakeSession
	dialErr  map[string]error
	dials    int
}

func (d *fakeDialer) dial(ctx context.Context, cfg models.ProviderConfig) (Session, error) {
	d.dials++
	if err := d.dialErr[cfg.Name]; err != nil {
		return nil, err
	}
	return d.sessions[cfg.Name], nil
}

func toolNamed(name string) mcp.Tool {
	return mcp.NewTool(name, mcp.WithDescription("test tool "+name))
}

func newTestClient(d *fakeDialer) *Client {
	return New(WithDialer(d.dial))
}

func TestClient_ConnectDiscoversTools(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"files": {tools: []mcp.Tool{toolNamed("read"), toolNamed("write")}},
	}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx", Description: "file access"})

	require.True(t, c.Connect(context.Background(), "files"))

	tools := c.ListTools("")
	require.Len(t, tools, 2)

	desc, ok := c.GetTool("files:read")
	require.True(t, ok)
	assert.Equal(t, "read", desc.Name)
	assert.Equal(t, "files", desc.Provider)

	status := c.Status()["files"]
	assert.True(t, status.Registered)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.ToolsCount)
	assert.Equal(t, "npx", status.Command)
	assert.Equal(t, "file access", status.Description)
}

func TestClient_ConnectUnregistered(t *testing.T) {
	dialer := &fakeDialer{}
	c := newTestClient(dialer)

	assert.False(t, c.Connect(context.Background(), "ghost"))
	assert.Zero(t, dialer.dials)
}

func TestClient_UnregisterThenConnectFails(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"files": {tools: []mcp.Tool{toolNamed("read")}},
	}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})

	assert.True(t, c.Unregister("files"))
	assert.False(t, c.Unregister("files"))
	assert.False(t, c.Connect(context.Background(), "files"))
}

func TestClient_UnregisterRemovesConnectionAndTools(t *testing.T) {
	sess := &fakeSession{tools: []mcp.Tool{toolNamed("read")}}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"files": sess}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	require.True(t, c.Connect(context.Background(), "files"))

	assert.True(t, c.Unregister("files"))
	assert.True(t, sess.closed)
	assert.Empty(t, c.ListTools(""))
	assert.Empty(t, c.Status())
}

func TestClient_ConnectSpawnFailure(t *testing.T) {
	dialer := &fakeDialer{dialErr: map[string]error{"files": errors.New("spawn failed")}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})

	assert.False(t, c.Connect(context.Background(), "files"))
	assert.Empty(t, c.ListTools(""))

	status := c.Status()["files"]
	assert.True(t, status.Registered)
	assert.False(t, status.Connected)
	assert.Zero(t, status.ToolsCount)
}

func TestClient_DiscoveryFailureKeepsConnection(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"files": {listErr: errors.New("listing broke")},
	}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})

	// Discovery failure after a successful handshake must not undo the
	// connect: the provider stays connected with zero tools.
	assert.True(t, c.Connect(context.Background(), "files"))
	assert.Empty(t, c.ListTools("files"))

	status := c.Status()["files"]
	assert.True(t, status.Connected)
	assert.Zero(t, status.ToolsCount)
}

func TestClient_DisconnectRemovesOnlyThatProvider(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"files":  {tools: []mcp.Tool{toolNamed("read"), toolNamed("write")}},
		"search": {tools: []mcp.Tool{toolNamed("query")}},
	}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	c.Register(models.ProviderConfig{Name: "search", Command: "uvx"})
	require.True(t, c.Connect(context.Background(), "files"))
	require.True(t, c.Connect(context.Background(), "search"))
	require.Len(t, c.ListTools(""), 3)

	c.Disconnect(context.Background(), "files")

	assert.Empty(t, c.ListTools("files"))
	remaining := c.ListTools("")
	require.Len(t, remaining, 1)
	assert.Equal(t, "search", remaining[0].Provider)

	assert.False(t, c.Status()["files"].Connected)
	assert.True(t, c.Status()["search"].Connected)
}

func TestClient_DisconnectIdempotent(t *testing.T) {
	c := newTestClient(&fakeDialer{})

	// Unknown and unconnected names are both safe.
	c.Disconnect(context.Background(), "ghost")
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	c.Disconnect(context.Background(), "files")
	c.Disconnect(context.Background(), "files")
}

func TestClient_DisconnectAll(t *testing.T) {
	sessFiles := &fakeSession{tools: []mcp.Tool{toolNamed("read")}}
	sessSearch := &fakeSession{tools: []mcp.Tool{toolNamed("query")}}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"files":  sessFiles,
		"search": sessSearch,
	}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	c.Register(models.ProviderConfig{Name: "search", Command: "uvx"})
	require.True(t, c.Connect(context.Background(), "files"))
	require.True(t, c.Connect(context.Background(), "search"))

	c.DisconnectAll(context.Background())

	assert.Empty(t, c.ListTools(""))
	assert.True(t, sessFiles.closed)
	assert.True(t, sessSearch.closed)
	for _, status := range c.Status() {
		assert.False(t, status.Connected)
	}
}

func TestClient_CallToolNotFound(t *testing.T) {
	dialer := &fakeDialer{}
	c := newTestClient(dialer)

	_, err := c.CallTool(context.Background(), "files:read", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Zero(t, dialer.dials)
}

func TestClient_CallToolNotConnected(t *testing.T) {
	sess := &fakeSession{tools: []mcp.Tool{toolNamed("read")}}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"files": sess}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	require.True(t, c.Connect(context.Background(), "files"))

	// Simulate a stale descriptor: the session died but its catalog
	// entry survived. The defensive check must fire before any I/O.
	conn := c.conns["files"]
	conn.mu.Lock()
	conn.session = nil
	conn.state = StateDisconnected
	conn.mu.Unlock()

	_, err := c.CallTool(context.Background(), "files:read", nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, sess.calledWith)
}

func TestClient_CallToolParsesJSONText(t *testing.T) {
	sess := &fakeSession{
		tools:      []mcp.Tool{toolNamed("read")},
		callResult: mcp.NewToolResultText(`{"path": "/tmp/x", "size": 42}`),
	}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"files": sess}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	require.True(t, c.Connect(context.Background(), "files"))

	result, err := c.CallTool(context.Background(), "files:read", map[string]any{"path": "/tmp/x"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", result["path"])
	assert.Equal(t, float64(42), result["size"])

	// The provider-local name, not the composite key, goes on the wire.
	assert.Equal(t, []string{"read"}, sess.calledWith)
}

func TestClient_CallToolWrapsUnparseableText(t *testing.T) {
	sess := &fakeSession{
		tools:      []mcp.Tool{toolNamed("read")},
		callResult: mcp.NewToolResultText("plain output, not json"),
	}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"files": sess}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	require.True(t, c.Connect(context.Background(), "files"))

	result, err := c.CallTool(context.Background(), "files:read", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "plain output, not json"}, result)
}

func TestClient_CallToolNoTextContent(t *testing.T) {
	sess := &fakeSession{
		tools:      []mcp.Tool{toolNamed("read")},
		callResult: &mcp.CallToolResult{},
	}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"files": sess}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	require.True(t, c.Connect(context.Background(), "files"))

	result, err := c.CallTool(context.Background(), "files:read", nil)
	require.NoError(t, err)
	assert.Equal(t, "success", result["status"])
}

func TestClient_CallToolTransportError(t *testing.T) {
	sess := &fakeSession{
		tools:   []mcp.Tool{toolNamed("read")},
		callErr: errors.New("pipe broke"),
	}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"files": sess}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	require.True(t, c.Connect(context.Background(), "files"))

	_, err := c.CallTool(context.Background(), "files:read", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipe broke")
}

func TestClient_ReconnectReplacesTools(t *testing.T) {
	first := &fakeSession{tools: []mcp.Tool{toolNamed("old")}}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"files": first}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "files", Command: "npx"})
	require.True(t, c.Connect(context.Background(), "files"))

	dialer.sessions["files"] = &fakeSession{tools: []mcp.Tool{toolNamed("new")}}
	require.True(t, c.Connect(context.Background(), "files"))

	assert.True(t, first.closed)
	_, ok := c.GetTool("files:old")
	assert.False(t, ok)
	_, ok = c.GetTool("files:new")
	assert.True(t, ok)
}

func TestClient_SameLocalToolNameAcrossProviders(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"alpha": {tools: []mcp.Tool{toolNamed("search")}},
		"beta":  {tools: []mcp.Tool{toolNamed("search")}},
	}}
	c := newTestClient(dialer)
	c.Register(models.ProviderConfig{Name: "alpha", Command: "a"})
	c.Register(models.ProviderConfig{Name: "beta", Command: "b"})
	require.True(t, c.Connect(context.Background(), "alpha"))
	require.True(t, c.Connect(context.Background(), "beta"))

	require.Len(t, c.ListTools(""), 2)
	_, ok := c.GetTool("alpha:search")
	assert.True(t, ok)
	_, ok = c.GetTool("beta:search")
	assert.True(t, ok)
}
