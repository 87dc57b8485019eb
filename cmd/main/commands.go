package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"attache/internal/bridge"
	"attache/internal/config"
	"attache/internal/logging"
	"attache/internal/mcp"
	"attache/internal/services"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Expose the host's capabilities as MCP tools",
		Long: `Start the server role of the bridge. By default it serves MCP over
stdio, which is what desktop MCP consumers expect; --port switches to the
streamable HTTP transport.`,
		RunE: runServe,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the status of every configured provider",
		RunE:  runStatus,
	}

	toolsCmd = &cobra.Command{
		Use:   "tools [provider]",
		Short: "List tools discovered from connected providers",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTools,
	}

	callCmd = &cobra.Command{
		Use:   "call <provider:tool>",
		Short: "Invoke a provider tool by its composite key",
		Args:  cobra.ExactArgs(1),
		RunE:  runCall,
	}

	briefingCmd = &cobra.Command{
		Use:   "briefing",
		Short: "Print the daily briefing, once or on a cron schedule",
		RunE:  runBriefing,
	}
)

func init() {
	serveCmd.Flags().Int("port", 0, "serve MCP over streamable HTTP on this port instead of stdio")
	viper.BindPFlag("mcp_port", serveCmd.Flags().Lookup("port"))

	callCmd.Flags().String("args", "{}", "tool arguments as a JSON object")
	briefingCmd.Flags().String("schedule", "", "cron schedule; empty runs the briefing once")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	locator := services.NewLocator(defaultFactories(cfg))
	srv, err := mcp.NewServer(locator)
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !cmd.Flags().Changed("port") {
		return srv.StartStdio(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx, cfg.MCPPort)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Info("Received %v, shutting down", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// connectProviders builds the shared bridge client, registers every
// configured provider and connects to each. Connect failures are logged
// by the client and surface in the status output; they do not abort the
// command.
func connectProviders(ctx context.Context, cfg *config.Config) *bridge.Manager {
	manager := bridge.NewManager(func() *bridge.Client {
		return bridge.New(
			bridge.WithConnectTimeout(cfg.ConnectTimeout),
			bridge.WithCallTimeout(cfg.CallTimeout),
		)
	})

	common := bridge.CommonProviders()
	client := manager.Client()
	var names []string
	for _, provider := range cfg.Providers {
		if provider.Command == "" {
			builtin, ok := common[provider.Name]
			if !ok {
				logging.Error("Provider %s has no command and is not a built-in", provider.Name)
				continue
			}
			provider = builtin
		}
		client.Register(provider)
		names = append(names, provider.Name)
	}
	for _, name := range names {
		client.Connect(ctx, name)
	}
	return manager
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	manager := connectProviders(ctx, cfg)
	defer manager.Reset(ctx)

	return printJSON(manager.Client().Status())
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	provider := ""
	if len(args) == 1 {
		provider = args[0]
	}

	ctx := cmd.Context()
	manager := connectProviders(ctx, cfg)
	defer manager.Reset(ctx)

	return printJSON(manager.Client().ListTools(provider))
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rawArgs, _ := cmd.Flags().GetString("args")
	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &toolArgs); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
	}

	ctx := cmd.Context()
	manager := connectProviders(ctx, cfg)
	defer manager.Reset(ctx)

	result, err := manager.Client().CallTool(ctx, args[0], toolArgs)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runBriefing(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	locator := services.NewLocator(defaultFactories(cfg))
	srv, err := mcp.NewServer(locator)
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	printBriefing := func() {
		request := mcptypes.CallToolRequest{}
		request.Params.Name = "get_daily_briefing"
		result, err := srv.Dispatch(cmd.Context(), request)
		if err != nil {
			logging.Error("Briefing failed: %v", err)
			return
		}
		for _, content := range result.Content {
			if text, ok := mcptypes.AsTextContent(content); ok {
				fmt.Println(text.Text)
				return
			}
		}
	}

	schedule, _ := cmd.Flags().GetString("schedule")
	if schedule == "" {
		printBriefing()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, printBriefing); err != nil {
		return fmt.Errorf("invalid --schedule: %w", err)
	}
	c.Start()
	logging.Info("Briefing scheduled: %s", schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
