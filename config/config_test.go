package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: "http",
			HTTPPort:  8001,
			MCPPath:   "/mcp",
		},
		Sandbox: SandboxConfig{
			WorkspaceRoot:     "/tmp/coderunner",
			RunTimeoutSec:     10,
			CompileTimeoutSec: 15,
			MaxOutputKB:       1024,
			KillGraceMS:       2000,
			CacheToolchains:   true,
		},
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
		Languages: map[string]Language{
			"python": {
				Environment: map[string]string{"PYTHONHASHSEED": "0"},
			},
		},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.validate())
	})

	t.Run("InvalidServerTransport", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Transport = "invalid"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server.transport")
	})

	t.Run("InvalidHTTPPort", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.HTTPPort = 0

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server.http_port")
	})

	t.Run("StdioIgnoresPort", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Transport = "stdio"
		cfg.Server.HTTPPort = 0

		require.NoError(t, cfg.validate())
	})

	t.Run("InvalidRunTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.RunTimeoutSec = 0

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.run_timeout_sec must be positive")
	})

	t.Run("InvalidCompileTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.CompileTimeoutSec = -1

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.compile_timeout_sec must be positive")
	})

	t.Run("InvalidMaxOutput", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.MaxOutputKB = 0

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.max_output_kb must be positive")
	})

	t.Run("EmptyWorkspaceRoot", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.WorkspaceRoot = ""

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.workspace_root")
	})

	t.Run("InvalidLoggingMode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Mode = "invalid_mode"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging.mode")
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "invalid_level"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging.level")
	})

	t.Run("InvalidTracingProtocol", func(t *testing.T) {
		cfg := validConfig()
		cfg.Tracing = TracingConfig{Enabled: true, Protocol: "udp", Endpoint: "localhost:4317"}

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid tracing.protocol")
	})

	t.Run("TracingDisabledSkipsChecks", func(t *testing.T) {
		cfg := validConfig()
		cfg.Tracing = TracingConfig{Enabled: false, Protocol: "udp"}

		require.NoError(t, cfg.validate())
	})

	t.Run("UnknownLanguage", func(t *testing.T) {
		cfg := validConfig()
		cfg.Languages["cobol"] = Language{}

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown language")
	})
}

func TestLoad(t *testing.T) {
	t.Run("DefaultsWithoutFile", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, "http", cfg.Server.Transport)
		assert.Equal(t, 8001, cfg.Server.HTTPPort)
		assert.Equal(t, 10*time.Second, cfg.RunTimeout())
		assert.Equal(t, 15*time.Second, cfg.CompileTimeout())
		assert.Equal(t, 1024*1024, cfg.MaxOutputBytes())
		assert.Equal(t, 2*time.Second, cfg.KillGrace())
		assert.True(t, cfg.Sandbox.CacheToolchains)
		assert.True(t, cfg.Metrics.Enabled)
		assert.False(t, cfg.Tracing.Enabled)
	})

	t.Run("FromYAMLFile", func(t *testing.T) {
		raw := map[string]any{
			"server": map[string]any{
				"transport": "stdio",
			},
			"sandbox": map[string]any{
				"run_timeout_sec":     3,
				"compile_timeout_sec": 20,
			},
			"logging": map[string]any{
				"mode":  "development",
				"level": "debug",
			},
			"languages": map[string]any{
				"csharp": map[string]any{
					"compilers": []string{"csc"},
				},
				"python": map[string]any{
					"environment": map[string]string{"PYTHONHASHSEED": "0"},
				},
			},
		}
		data, err := yaml.Marshal(raw)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "coderunner.yaml")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "stdio", cfg.Server.Transport)
		assert.Equal(t, 3*time.Second, cfg.RunTimeout())
		assert.Equal(t, 20*time.Second, cfg.CompileTimeout())
		assert.Equal(t, "development", cfg.Logging.Mode)
		assert.Equal(t, []string{"csc"}, cfg.Languages["csharp"].Compilers)
		assert.Equal(t, "0", cfg.Languages["python"].Environment["PYTHONHASHSEED"])
	})

	t.Run("EnvironmentOverride", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("CODERUNNER_SANDBOX_RUN_TIMEOUT_SEC", "4")

		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, 4*time.Second, cfg.RunTimeout())
	})

	t.Run("InvalidFileValues", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: carrier-pigeon\n"), 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation error")
	})

	t.Run("EnvironmentNamesUpperCased", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.yaml")
		data := "languages:\n  javascript:\n    environment:\n      Node_Options: --max-old-space-size=256\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"NODE_OPTIONS": "--max-old-space-size=256"},
			cfg.Languages["javascript"].Environment)
	})

	t.Run("InvalidEnvironmentName", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.yaml")
		data := "languages:\n  python:\n    environment:\n      bad-name: x\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid environment variable name")
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
