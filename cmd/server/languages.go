package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/sandbox"
	"github.com/isdmx/coderunner/toolchain"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and whether their toolchains are installed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := zap.NewNop()
		exec := sandbox.NewExecutor(log,
			cfg,
			language.NewRegistryFromConfig(cfg),
			toolchain.NewLocatorFromConfig(log, cfg),
		)
		return printToolchains(cmd.OutOrStdout(), exec.Toolchains())
	},
}

func printToolchains(out io.Writer, statuses []sandbox.ToolchainStatus) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tALIASES\tCOMPILER\tRUNTIME\tSTATUS")
	for _, s := range statuses {
		status := "ok"
		if !s.Available {
			status = s.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Language,
			strings.Join(s.Aliases, ","),
			dash(s.Compiler),
			dash(s.Runtime),
			status,
		)
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
