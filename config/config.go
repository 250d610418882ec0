package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Canonical language keys accepted under the languages section.
var knownLanguages = map[string]bool{
	"python":     true,
	"javascript": true,
	"java":       true,
	"csharp":     true,
	"cpp":        true,
}

// envName is the accepted shape of a per-language environment variable
// name after normalize has upper-cased it.
var envName = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig        `mapstructure:"server"`
	Sandbox   SandboxConfig       `mapstructure:"sandbox"`
	Logging   LoggingConfig       `mapstructure:"logging"`
	Metrics   MetricsConfig       `mapstructure:"metrics"`
	Tracing   TracingConfig       `mapstructure:"tracing"`
	Languages map[string]Language `mapstructure:"languages"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
	MCPPath   string `mapstructure:"mcp_path"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	WorkspaceRoot     string `mapstructure:"workspace_root"`
	RunTimeoutSec     int    `mapstructure:"run_timeout_sec"`
	CompileTimeoutSec int    `mapstructure:"compile_timeout_sec"`
	MaxOutputKB       int    `mapstructure:"max_output_kb"`
	KillGraceMS       int    `mapstructure:"kill_grace_ms"`
	CacheToolchains   bool   `mapstructure:"cache_toolchains"`
	PurgeOnStart      bool   `mapstructure:"purge_on_start"`
	MaxConcurrent     int    `mapstructure:"max_concurrent"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Protocol    string  `mapstructure:"protocol"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

// Language holds per-language overrides. Compilers and Runtimes replace the
// built-in toolchain candidate lists when non-empty.
type Language struct {
	Environment map[string]string `mapstructure:"environment"`
	Compilers   []string          `mapstructure:"compilers"`
	Runtimes    []string          `mapstructure:"runtimes"`
}

// New loads the configuration from the default search paths.
func New() (*Config, error) {
	return Load("")
}

// Load reads configuration from path, or from config.yaml in the working
// directory or ./config when path is empty. Environment variables prefixed
// with CODERUNNER_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CODERUNNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.normalize()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "http")
	v.SetDefault("server.http_port", 8001)
	v.SetDefault("server.mcp_path", "/mcp")

	v.SetDefault("sandbox.workspace_root", filepath.Join(os.TempDir(), "coderunner"))
	v.SetDefault("sandbox.run_timeout_sec", 10)
	v.SetDefault("sandbox.compile_timeout_sec", 15)
	v.SetDefault("sandbox.max_output_kb", 1024)
	v.SetDefault("sandbox.kill_grace_ms", 2000)
	v.SetDefault("sandbox.cache_toolchains", true)
	v.SetDefault("sandbox.purge_on_start", true)
	v.SetDefault("sandbox.max_concurrent", 0)

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.protocol", "grpc")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "coderunner")
}

// normalize restores upper-case environment variable names, which viper folds
// to lower case. The original case of a key is lost on load, so per-language
// environment variables are always upper case; mixed-case names cannot be
// configured.
func (c *Config) normalize() {
	for name, lang := range c.Languages {
		if len(lang.Environment) == 0 {
			continue
		}
		env := make(map[string]string, len(lang.Environment))
		for k, v := range lang.Environment {
			env[strings.ToUpper(k)] = v
		}
		lang.Environment = env
		c.Languages[name] = lang
	}
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.Transport == "http" && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	if c.Sandbox.WorkspaceRoot == "" {
		return fmt.Errorf("sandbox.workspace_root must not be empty")
	}

	if c.Sandbox.RunTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.run_timeout_sec must be positive, got: %d", c.Sandbox.RunTimeoutSec)
	}

	if c.Sandbox.CompileTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.compile_timeout_sec must be positive, got: %d", c.Sandbox.CompileTimeoutSec)
	}

	if c.Sandbox.MaxOutputKB <= 0 {
		return fmt.Errorf("sandbox.max_output_kb must be positive, got: %d", c.Sandbox.MaxOutputKB)
	}

	if c.Sandbox.KillGraceMS < 0 {
		return fmt.Errorf("sandbox.kill_grace_ms must not be negative, got: %d", c.Sandbox.KillGraceMS)
	}

	if c.Sandbox.MaxConcurrent < 0 {
		return fmt.Errorf("sandbox.max_concurrent must not be negative, got: %d", c.Sandbox.MaxConcurrent)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	if c.Tracing.Enabled {
		if c.Tracing.Protocol != "grpc" && c.Tracing.Protocol != "http" {
			return fmt.Errorf("invalid tracing.protocol: %s, must be 'grpc' or 'http'", c.Tracing.Protocol)
		}
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
		}
	}

	for name, lang := range c.Languages {
		if !knownLanguages[name] {
			return fmt.Errorf("unknown language in languages section: %s", name)
		}
		for key := range lang.Environment {
			if !envName.MatchString(key) {
				return fmt.Errorf("invalid environment variable name for %s: %q, must match %s", name, key, envName)
			}
		}
	}

	return nil
}

// RunTimeout returns the execution timeout as a duration
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Sandbox.RunTimeoutSec) * time.Second
}

// CompileTimeout returns the compilation timeout as a duration
func (c *Config) CompileTimeout() time.Duration {
	return time.Duration(c.Sandbox.CompileTimeoutSec) * time.Second
}

// KillGrace returns how long to wait for output pipes after the process group is killed.
func (c *Config) KillGrace() time.Duration {
	return time.Duration(c.Sandbox.KillGraceMS) * time.Millisecond
}

// MaxOutputBytes returns the per-stream capture limit in bytes.
func (c *Config) MaxOutputBytes() int {
	return c.Sandbox.MaxOutputKB * 1024
}
