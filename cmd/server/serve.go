package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var (
	serveTransport string
	servePort      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio or HTTP)",
	RunE:  runServe,
}

func init() {
	// Registered on both root and serve so that `coderunner --transport stdio`
	// and `coderunner serve --transport stdio` both work.
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveTransport, "transport", "", "override server.transport (stdio or http)")
		cmd.Flags().IntVar(&servePort, "port", 0, "override server.http_port")
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch serveTransport {
	case "":
	case "stdio", "http":
		cfg.Server.Transport = serveTransport
	default:
		return fmt.Errorf("invalid --transport: %s, must be 'stdio' or 'http'", serveTransport)
	}
	if servePort != 0 {
		if servePort < 0 || servePort > 65535 {
			return fmt.Errorf("invalid --port: %d", servePort)
		}
		cfg.Server.HTTPPort = servePort
	}

	app := fx.New(appOptions(cfg))
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
