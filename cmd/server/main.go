package main

import (
	"fmt"
	"os"

	goutils "github.com/jkaninda/go-utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/isdmx/coderunner/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coderunner",
	Short: "Run code snippets in Python, JavaScript, Java, C# and C++",
	Long: `coderunner compiles and runs short programs or fragments with the host
toolchains and reports stdout, stderr and the exit code. It serves the
run_code tool over MCP (stdio or streamable HTTP) and a REST /run-code bridge.`,
	RunE:          runServe, // Default to serve mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (or CODERUNNER_CONFIG env)")
	rootCmd.AddCommand(serveCmd, runCmd, languagesCmd, versionCmd)
	_ = godotenv.Load()
}

// loadConfig reads the configuration from --config, CODERUNNER_CONFIG or the
// default search paths.
func loadConfig() (*config.Config, error) {
	return config.Load(goutils.Env("CODERUNNER_CONFIG", configPath))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
