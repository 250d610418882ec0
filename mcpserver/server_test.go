package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/coderunner/config"
	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/sandbox"
)

// MockSandboxExecutor implements sandbox.SandboxExecutor for testing
type MockSandboxExecutor struct {
	outcome sandbox.Outcome

	mu      sync.Mutex
	request sandbox.Request
	calls   int
}

func (m *MockSandboxExecutor) Execute(_ context.Context, req sandbox.Request) sandbox.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.request = req
	return m.outcome
}

func (m *MockSandboxExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Transport: "http",
			HTTPPort:  8001,
			MCPPath:   "/mcp",
		},
		Sandbox: config.SandboxConfig{
			RunTimeoutSec:     10,
			CompileTimeoutSec: 15,
			MaxOutputKB:       1024,
		},
		Logging: config.LoggingConfig{Mode: "production", Level: "info"},
	}
}

func newTestServer(t *testing.T, exec sandbox.SandboxExecutor) *MCPServer {
	t.Helper()
	s, err := New(testConfig(), zaptest.NewLogger(t), exec, language.NewRegistry(nil))
	require.NoError(t, err)
	return s
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = RunCodeTool
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) sandbox.Result {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content")

	var out sandbox.Result
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestNewMCPServer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := testConfig()
	mockExecutor := &MockSandboxExecutor{}

	server, err := New(cfg, logger, mockExecutor, language.NewRegistry(nil))
	require.NoError(t, err)
	require.NotNil(t, server)
	assert.Equal(t, cfg, server.config)
	assert.Equal(t, logger, server.logger)
	assert.Equal(t, mockExecutor, server.sandboxExec)
	assert.NotNil(t, server.GetMCPServer())
	assert.NotNil(t, server.Handler())
}

func TestNewMCPServerRequiresExecutor(t *testing.T) {
	_, err := New(testConfig(), zaptest.NewLogger(t), nil, language.NewRegistry(nil))
	assert.Error(t, err)
}

func TestHandleRunCode(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		exec := &MockSandboxExecutor{outcome: sandbox.Outcome{
			Status:   sandbox.StatusSuccess,
			Language: "python",
			Stdout:   "2\n",
		}}
		s := newTestServer(t, exec)

		res, err := s.handleRunCode(context.Background(), callRequest(map[string]any{
			"language": "python",
			"code":     "print(1+1)",
		}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, sandbox.Result{Stdout: "2\n", Stderr: "", ExitCode: 0}, decodeResult(t, res))
		assert.Equal(t, sandbox.Request{Language: "python", Code: "print(1+1)"}, exec.request)
		assert.Equal(t, sandbox.Result{Stdout: "2\n"}, res.StructuredContent)
	})

	t.Run("MissingArgumentsReachExecutor", func(t *testing.T) {
		exec := &MockSandboxExecutor{outcome: sandbox.Outcome{Status: sandbox.StatusInvalidRequest}}
		s := newTestServer(t, exec)

		res, err := s.handleRunCode(context.Background(), callRequest(map[string]any{"language": "python"}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, 1, exec.Calls())
		assert.Equal(t, "", exec.request.Code)

		out := decodeResult(t, res)
		assert.Equal(t, sandbox.MissingInputMessage, out.Stderr)
		assert.Equal(t, 1, out.ExitCode)
	})

	t.Run("UnsupportedLanguage", func(t *testing.T) {
		registry := language.NewRegistry(nil)
		_, lookupErr := registry.Lookup("cobol")
		require.Error(t, lookupErr)

		exec := &MockSandboxExecutor{outcome: sandbox.Outcome{
			Status: sandbox.StatusUnsupportedLanguage,
			Err:    lookupErr,
		}}
		s := newTestServer(t, exec)

		res, err := s.handleRunCode(context.Background(), callRequest(map[string]any{
			"language": "cobol",
			"code":     "DISPLAY 'HI'.",
		}))
		require.NoError(t, err)
		assert.False(t, res.IsError)

		out := decodeResult(t, res)
		assert.Equal(t, "Language 'cobol' is not supported. Supported: cpp, csharp, java, javascript, python.", out.Stderr)
		assert.Equal(t, 1, out.ExitCode)
	})

	t.Run("TimeoutIsAResult", func(t *testing.T) {
		exec := &MockSandboxExecutor{outcome: sandbox.Outcome{
			Status: sandbox.StatusTimeout,
			Phase:  sandbox.PhaseRun,
			Limit:  10 * time.Second,
			Stdout: "partial",
		}}
		s := newTestServer(t, exec)

		res, err := s.handleRunCode(context.Background(), callRequest(map[string]any{
			"language": "python",
			"code":     "while True: pass",
		}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, sandbox.Result{
			Stdout:   "partial",
			Stderr:   "Execution timed out after 10 seconds.",
			ExitCode: 1,
		}, decodeResult(t, res))
	})

	t.Run("InternalErrorSetsErrorFlag", func(t *testing.T) {
		exec := &MockSandboxExecutor{outcome: sandbox.Outcome{
			Status: sandbox.StatusInternalError,
			Err:    errors.New("mkdir: permission denied"),
		}}
		s := newTestServer(t, exec)

		res, err := s.handleRunCode(context.Background(), callRequest(map[string]any{
			"language": "python",
			"code":     "print(1)",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)

		out := decodeResult(t, res)
		assert.Equal(t, sandbox.InternalErrorMessage, out.Stderr)
		assert.NotContains(t, out.Stderr, "permission denied")
	})
}

func TestInProcessClient(t *testing.T) {
	exec := &MockSandboxExecutor{outcome: sandbox.Outcome{
		Status:   sandbox.StatusSuccess,
		Language: "javascript",
		Stdout:   "hi\n",
	}}
	s := newTestServer(t, exec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := mcpclient.NewInProcessClient(s.GetMCPServer())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "0.0.1"}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRes, err := c.Initialize(ctx, initReq)
	require.NoError(t, err)
	assert.Equal(t, serverName, initRes.ServerInfo.Name)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, RunCodeTool, tools.Tools[0].Name)
	assert.ElementsMatch(t, []string{"language", "code"}, tools.Tools[0].InputSchema.Required)
	assert.Contains(t, tools.Tools[0].Description, "cpp, csharp, java, javascript, python")

	res, err := c.CallTool(ctx, callRequest(map[string]any{
		"language": "js",
		"code":     "console.log('hi')",
	}))
	require.NoError(t, err)
	assert.Equal(t, sandbox.Result{Stdout: "hi\n"}, decodeResult(t, res))
	assert.Equal(t, "js", exec.request.Language)
}

func TestServeStdio(t *testing.T) {
	exec := &MockSandboxExecutor{outcome: sandbox.Outcome{Status: sandbox.StatusSuccess, Stdout: "ok\n"}}
	s := newTestServer(t, exec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	inR, inW := io.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- s.ServeStdio(ctx, inR, io.Discard)
	}()

	messages := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"run_code","arguments":{"language":"python","code":"print('ok')"}}}`,
	}
	for _, msg := range messages {
		_, err := io.WriteString(inW, msg+"\n")
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return exec.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, inW.Close())
	select {
	case err := <-done:
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	case <-ctx.Done():
		t.Fatal("stdio server did not stop after input closed")
	}
}
