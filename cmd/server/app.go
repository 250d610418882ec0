package main

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/isdmx/coderunner/config"
	"github.com/isdmx/coderunner/httpapi"
	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/logger"
	"github.com/isdmx/coderunner/mcpserver"
	"github.com/isdmx/coderunner/observability"
	"github.com/isdmx/coderunner/sandbox"
	"github.com/isdmx/coderunner/toolchain"
)

// appOptions wires the server around an already loaded configuration.
func appOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),

		fx.Provide(
			// Logger with configuration
			logger.NewFromConfig,

			language.NewRegistryFromConfig,
			fx.Annotate(
				toolchain.NewLocatorFromConfig,
				fx.As(new(sandbox.ToolchainLocator)),
			),
			sandbox.NewExecutor,

			newMetrics,
			newTracerSetup,
			newInstrumentedExecutor,

			mcpserver.New,
			newHTTPServer,
		),

		fx.Invoke(registerHooks),

		// Use the application logger for fx logs
		fx.WithLogger(logger.Fx),
	)
}

func newMetrics(cfg *config.Config) *observability.MetricsCollector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewMetricsCollector()
}

func newTracerSetup(cfg *config.Config) (*observability.TracerSetup, error) {
	return observability.NewTracerSetup(&cfg.Tracing)
}

func newInstrumentedExecutor(local *sandbox.LocalExecutor, metrics *observability.MetricsCollector, ts *observability.TracerSetup) sandbox.SandboxExecutor {
	return observability.NewInstrumentedExecutor(local, metrics, ts)
}

type httpParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Executor sandbox.SandboxExecutor
	Registry *language.Registry
	Metrics  *observability.MetricsCollector
	Tracer   *observability.TracerSetup
	MCP      *mcpserver.MCPServer
}

func newHTTPServer(p httpParams) (*httpapi.Server, error) {
	return httpapi.New(httpapi.Deps{
		Config:   p.Config,
		Logger:   p.Logger,
		Executor: p.Executor,
		Registry: p.Registry,
		Metrics:  p.Metrics,
		Tracer:   p.Tracer,
		MCP:      p.MCP,
	})
}

type hookParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.Config
	Logger     *zap.Logger
	MCP        *mcpserver.MCPServer
	HTTP       *httpapi.Server
	Tracer     *observability.TracerSetup
}

// registerHooks purges leftover workspaces, then starts the configured
// transport. In stdio mode the HTTP listener stays closed because stdout
// carries the protocol.
func registerHooks(p hookParams) {
	stdioCtx, stopStdio := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Config.Sandbox.PurgeOnStart {
				removed, err := sandbox.PurgeOrphans(p.Logger, p.Config.Sandbox.WorkspaceRoot)
				if err != nil {
					p.Logger.Warn("failed to purge orphaned workspaces", zap.Error(err))
				} else if removed > 0 {
					p.Logger.Info("purged orphaned workspaces", zap.Int("count", removed))
				}
			}

			switch p.Config.Server.Transport {
			case "stdio":
				go func() {
					err := p.MCP.ServeStdio(stdioCtx, os.Stdin, os.Stdout)
					if err != nil && stdioCtx.Err() == nil {
						p.Logger.Error("stdio transport stopped", zap.Error(err))
					}
					_ = p.Shutdowner.Shutdown()
				}()
				return nil
			default:
				return p.HTTP.Start(ctx)
			}
		},
		OnStop: func(ctx context.Context) error {
			stopStdio()
			if p.Config.Server.Transport != "stdio" {
				if err := p.HTTP.Shutdown(ctx); err != nil {
					p.Logger.Warn("HTTP shutdown incomplete", zap.Error(err))
				}
			}
			return p.Tracer.Shutdown(ctx)
		},
	})
}
