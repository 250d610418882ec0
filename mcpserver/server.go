package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/coderunner/config"
	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/sandbox"
)

const (
	serverName    = "coderunner"
	serverVersion = "1.0.0"

	// RunCodeTool is the name of the single tool the server exposes.
	RunCodeTool = "run_code"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config      *config.Config
	logger      *zap.Logger
	sandboxExec sandbox.SandboxExecutor
	mcpServer   *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, sandboxExec sandbox.SandboxExecutor, registry *language.Registry) (*MCPServer, error) {
	if sandboxExec == nil {
		return nil, fmt.Errorf("sandbox executor is required")
	}

	s := &MCPServer{
		config:      cfg,
		logger:      logger,
		sandboxExec: sandboxExec,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("server.mcp_path", cfg.Server.MCPPath),
		zap.String("sandbox.workspace_root", cfg.Sandbox.WorkspaceRoot),
		zap.Int("sandbox.run_timeout_sec", cfg.Sandbox.RunTimeoutSec),
		zap.Int("sandbox.compile_timeout_sec", cfg.Sandbox.CompileTimeoutSec),
		zap.Int("sandbox.max_output_kb", cfg.Sandbox.MaxOutputKB),
		zap.Int("sandbox.max_concurrent", cfg.Sandbox.MaxConcurrent),
		zap.Strings("languages", registry.Supported()),
	)

	s.mcpServer = server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerRunCodeTool(registry.Supported())

	return s, nil
}

// registerRunCodeTool registers the run_code tool
func (s *MCPServer) registerRunCodeTool(supported []string) {
	tool := mcp.Tool{
		Name: RunCodeTool,
		Description: "Compile if needed and run a snippet or complete program, returning stdout, stderr and exit_code. " +
			"Supported languages: " + strings.Join(supported, ", ") + ".",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"language": map[string]any{
					"type":        "string",
					"description": "Language name or alias, for example python, js, java, c#, c++",
				},
				"code": map[string]any{
					"type":        "string",
					"description": "Complete program, function or class definitions, or bare statements",
				},
			},
			Required: []string{"language", "code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunCode)
}

// handleRunCode handles the run_code tool. Missing arguments are passed
// through as empty strings so the executor reports them in the normal
// result shape.
func (s *MCPServer) handleRunCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lang := request.GetString("language", "")
	code := request.GetString("code", "")

	s.logger.Info("code execution requested",
		zap.String("language", lang),
		zap.Int("code_len", len(code)))

	outcome := s.sandboxExec.Execute(ctx, sandbox.Request{Language: lang, Code: code})
	result := outcome.Result()

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}

	s.logger.Info("code execution completed",
		zap.String("language", outcome.Language),
		zap.Stringer("status", outcome.Status),
		zap.Int("exit_code", result.ExitCode),
		zap.Int("stdout_len", len(result.Stdout)),
		zap.Int("stderr_len", len(result.Stderr)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(payload),
			},
		},
		StructuredContent: result,
		IsError:           outcome.Status == sandbox.StatusInternalError,
	}, nil
}

// ServeStdio serves the protocol on in and out until ctx is cancelled or
// in is closed.
func (s *MCPServer) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server on stdio")
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// Handler returns the streamable HTTP transport for mounting on a router.
func (s *MCPServer) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath(s.config.Server.MCPPath))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
