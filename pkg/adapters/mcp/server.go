package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

// CommandsURI is the resource listing the registered commands.
const CommandsURI = "tendril://commands"

// Dispatcher defines the interface required by the MCP server.
type Dispatcher interface {
	Dispatch(cc *domain.CommandContext, line string) error
	Suggest(cc *domain.CommandContext, line string) []string
	Syntax(line string) string
	Commands() []*domain.Command
}

// LineArgs are the arguments shared by the tools.
type LineArgs struct {
	Line    string `json:"line"`
	Subject string `json:"subject,omitempty"`
}

// DispatchResult aligns with the HTTP dispatch response.
type DispatchResult struct {
	DispatchID string         `json:"dispatch_id" jsonschema_description:"Identifier of this dispatch"`
	Route      string         `json:"route" jsonschema_description:"Route of the command that ran"`
	Async      bool           `json:"async" jsonschema_description:"True when the handler runs in the background"`
	Output     string         `json:"output" jsonschema_description:"Text written by the handler"`
	Arguments  map[string]any `json:"arguments" jsonschema_description:"Parsed argument values"`
}

// SuggestResult lists completion candidates.
type SuggestResult struct {
	Suggestions []string `json:"suggestions" jsonschema_description:"Candidates for the last fragment of the line"`
	Syntax      string   `json:"syntax" jsonschema_description:"Usage of the command the line reaches"`
}

// CommandInfo describes one registered command.
type CommandInfo struct {
	Route       string `json:"route"`
	Usage       string `json:"usage"`
	Description string `json:"description,omitempty"`
	Permission  string `json:"permission,omitempty"`
	Async       bool   `json:"async,omitempty"`
}

// Server wraps a Dispatcher and exposes it as an MCP Server.
type Server struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(d Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		dispatcher: d,
		logger:     logger,
		mcpServer:  server.NewMCPServer("tendril-mcp", strings.TrimSpace(tendril.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: dispatch_command
	dispatchTool := mcp.NewTool("dispatch_command",
		mcp.WithDescription("Run a command line against the registered commands."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The full command line, e.g. 'user add bob'")),
		mcp.WithString("subject", mcp.Description("Caller identity used for permission checks")),
		mcp.WithOutputSchema[DispatchResult](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	// TOOL: suggest_command
	suggestTool := mcp.NewTool("suggest_command",
		mcp.WithDescription("List completions for a partially typed command line."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The partial command line")),
		mcp.WithString("subject", mcp.Description("Caller identity used for permission checks")),
		mcp.WithOutputSchema[SuggestResult](),
	)
	s.mcpServer.AddTool(suggestTool, mcp.NewStructuredToolHandler(s.handleSuggest))

	// TOOL: list_commands
	s.mcpServer.AddTool(mcp.NewTool("list_commands",
		mcp.WithDescription("List every registered command with its usage."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.commands())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleDispatch(ctx context.Context, _ mcp.CallToolRequest, args LineArgs) (DispatchResult, error) {
	line, err := input.Sanitize(args.Line)
	if err != nil {
		s.logger.Warn("MCP dispatch: input rejected", "error", err, "size", len(args.Line))
		return DispatchResult{}, fmt.Errorf("input rejected: %w", err)
	}

	cc := newContext(ctx, args.Subject)
	var out strings.Builder
	domain.Replace[io.Writer](cc, domain.OutputKey, &out)

	if err := s.dispatcher.Dispatch(cc, line); err != nil {
		return DispatchResult{}, err
	}

	res := DispatchResult{DispatchID: cc.ID(), Arguments: domain.Arguments(cc)}
	if cmd, ok := domain.Get(cc, domain.CommandKey); ok {
		res.Route = cmd.Route
		res.Async = cmd.Async
	}
	if !res.Async {
		res.Output = out.String()
	}
	return res, nil
}

func (s *Server) handleSuggest(ctx context.Context, _ mcp.CallToolRequest, args LineArgs) (SuggestResult, error) {
	line, err := input.Sanitize(args.Line)
	if err != nil {
		return SuggestResult{}, fmt.Errorf("input rejected: %w", err)
	}
	cc := newContext(ctx, args.Subject)
	return SuggestResult{
		Suggestions: s.dispatcher.Suggest(cc, line),
		Syntax:      s.dispatcher.Syntax(line),
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: tendril://commands
	s.mcpServer.AddResource(mcp.NewResource(CommandsURI, "Registered Commands",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.commands())
		if err != nil {
			return nil, fmt.Errorf("failed to encode commands: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CommandsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) commands() []CommandInfo {
	cmds := s.dispatcher.Commands()
	out := make([]CommandInfo, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, CommandInfo{
			Route:       c.Route,
			Usage:       s.dispatcher.Syntax(c.Name()),
			Description: c.Description,
			Permission:  c.Permission,
			Async:       c.Async,
		})
	}
	return out
}

func newContext(ctx context.Context, subject string) *domain.CommandContext {
	cc := domain.NewCommandContext(ctx)
	if subject != "" {
		domain.Replace(cc, domain.SubjectKey, subject)
	}
	return cc
}
