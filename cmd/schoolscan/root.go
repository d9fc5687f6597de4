package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/schoolscan/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for SchoolScan CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schoolscan",
		Short: "Match school improvement priorities to iPad solutions",
		Long: `SchoolScan builds an iPad implementation report for a school.

It combines three sources of improvement areas:
- Priorities from the school's latest inspection report
- Strategic statements published on the school website
- Additional priorities supplied by you

The areas are matched against a catalog of solution bundles and the
best matches are written as a text, Markdown or JSON report.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
// Credentials in logged URLs are masked.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}
