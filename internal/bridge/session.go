package bridge

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"attache/internal/logging"
	"attache/pkg/models"
)

// Session is one initialized protocol session with a provider process.
// The production implementation wraps an mcp-go stdio client; tests
// substitute fakes through the Dialer seam.
type Session interface {
	// ListTools discovers the tools the provider advertises.
	ListTools(ctx context.Context) ([]mcp.Tool, error)

	// CallTool invokes a tool by its provider-local name.
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)

	// Close tears down the session and the underlying process.
	Close() error
}

// Dialer spawns a provider process and completes the session handshake.
type Dialer func(ctx context.Context, cfg models.ProviderConfig) (Session, error)

// DialStdio is the production Dialer. It spawns the provider via the
// mcp-go stdio transport, starts the client and performs the initialize
// exchange. The returned session is ready for discovery and calls.
func DialStdio(ctx context.Context, cfg models.ProviderConfig) (Session, error) {
	var envSlice []string
	for key, value := range cfg.Env {
		envSlice = append(envSlice, fmt.Sprintf("%s=%s", key, value))
	}

	stdioTransport := transport.NewStdio(cfg.Command, envSlice, cfg.Args...)
	mcpClient := client.NewClient(stdioTransport)

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start provider process: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "attache",
		Version: "1.0.0",
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	serverInfo, err := mcpClient.Initialize(ctx, initRequest)
	if err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	logging.Debug("Connected to provider %s (server %s version %s)",
		cfg.Name, serverInfo.ServerInfo.Name, serverInfo.ServerInfo.Version)

	return &stdioSession{
		client:        mcpClient,
		supportsTools: serverInfo.Capabilities.Tools != nil,
	}, nil
}

type stdioSession struct {
	client        *client.Client
	supportsTools bool
}

func (s *stdioSession) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if !s.supportsTools {
		return nil, nil
	}
	result, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

func (s *stdioSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	callRequest := mcp.CallToolRequest{}
	callRequest.Params.Name = name
	callRequest.Params.Arguments = args
	return s.client.CallTool(ctx, callRequest)
}

func (s *stdioSession) Close() error {
	return s.client.Close()
}
