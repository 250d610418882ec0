package sandbox

import (
	"go.uber.org/zap"

	"github.com/isdmx/coderunner/config"
	"github.com/isdmx/coderunner/language"
)

// ConfigFrom extracts executor limits from the application configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		WorkspaceRoot:  cfg.Sandbox.WorkspaceRoot,
		RunTimeout:     cfg.RunTimeout(),
		CompileTimeout: cfg.CompileTimeout(),
		KillGrace:      cfg.KillGrace(),
		MaxOutputBytes: cfg.MaxOutputBytes(),
		MaxConcurrent:  cfg.Sandbox.MaxConcurrent,
	}
}

// NewExecutor creates the host executor described by the configuration
func NewExecutor(logger *zap.Logger, cfg *config.Config, registry *language.Registry, locator ToolchainLocator) *LocalExecutor {
	return NewLocalExecutor(logger, ConfigFrom(cfg), registry, locator)
}
