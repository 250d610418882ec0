package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/isdmx/coderunner/config"
	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/logger"
	"github.com/isdmx/coderunner/sandbox"
	"github.com/isdmx/coderunner/toolchain"
)

var (
	runLanguage string
	runFile     string
	runVerbose  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one snippet and print the result as JSON",
	Long: `Execute a single program or fragment without starting a server.
The code is read from --file, or from stdin when no file is given.

Examples:
  coderunner run -l python -f solution.py
  echo 'System.out.println(5);' | coderunner run -l java`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVarP(&runLanguage, "language", "l", "", "language name or alias (required)")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "source file; stdin when empty")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "log execution details to stderr")

	_ = runCmd.MarkFlagRequired("language")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !runVerbose {
		cfg.Logging.Level = "warn"
	}

	code, err := readSource(cmd.InOrStdin(), runFile)
	if err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := executeOnce(ctx, cfg, log, sandbox.Request{Language: runLanguage, Code: code})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// executeOnce runs req through a freshly built executor. Internal sandbox
// faults are returned as errors; every other outcome is a result.
func executeOnce(ctx context.Context, cfg *config.Config, log *zap.Logger, req sandbox.Request) (sandbox.Result, error) {
	exec := sandbox.NewExecutor(log,
		cfg,
		language.NewRegistryFromConfig(cfg),
		toolchain.NewLocatorFromConfig(log, cfg),
	)

	outcome := exec.Execute(ctx, req)
	if outcome.Status == sandbox.StatusInternalError {
		return sandbox.Result{}, fmt.Errorf("%s: %w", sandbox.InternalErrorMessage, outcome.Err)
	}
	return outcome.Result(), nil
}

func readSource(stdin io.Reader, path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading source: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("no code given: pass --file or pipe source on stdin")
	}
	return string(data), nil
}
