package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/schoolscan/internal/config"
	"github.com/nao1215/schoolscan/internal/extractor"
	"github.com/nao1215/schoolscan/internal/fetch"
	"github.com/nao1215/schoolscan/internal/model"
	"github.com/spf13/cobra"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract strategic statements from a school website",
		Long: `Extract fetches one page and shows what a report would use from it:
- Up to five strategic statements found under matching headings
- A link to the school's inspection report, if one is present

A bare host name such as www.example.sch.uk is fetched over http.
An unreachable page is reported but is not an error.

Examples:
  # Extract from a school home page
  schoolscan extract https://www.oakfield.sch.uk/

  # Fetch through a SOCKS5 proxy with a shorter timeout
  schoolscan extract --proxy 127.0.0.1:1080 --timeout 5s www.oakfield.sch.uk`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Fetch timeout (at most 10s)")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the extraction in JSON format")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	proxyAddress, err := cmd.Flags().GetString("proxy")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if timeout <= 0 || timeout > config.MaxFetchTimeout {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidTimeout)
	}

	target := (&model.Institution{Website: args[0]}).WebsiteURL()
	if target == "" {
		return fmt.Errorf("not a fetchable http(s) URL: %q", args[0])
	}

	logger := setupLogger(getVerboseFlag(cmd))

	ext, err := newExtractor(timeout, proxyAddress, config.DefaultUserAgent, config.DefaultMaxBodySize, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := ext.Extract(ctx, target)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printExtraction(cmd.OutOrStdout(), result)
	return nil
}

// newExtractor builds an extractor with its own HTTP client.
func newExtractor(timeout time.Duration, proxyAddress, userAgent string, maxBodySize int64, logger *slog.Logger) (*extractor.Extractor, error) {
	client, err := fetch.NewClient(
		fetch.WithTimeout(timeout),
		fetch.WithProxy(proxyAddress),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return extractor.New(
		extractor.WithHTTPClient(client),
		extractor.WithTimeout(timeout),
		extractor.WithUserAgent(userAgent),
		extractor.WithMaxBodySize(maxBodySize),
		extractor.WithLogger(logger),
	), nil
}

// printExtraction prints an extraction in human-readable form.
func printExtraction(out io.Writer, e *model.Extraction) {
	fmt.Fprintf(out, "URL: %s\n", e.URL)
	if e.FinalURL != "" && e.FinalURL != e.URL {
		fmt.Fprintf(out, "Final URL: %s\n", e.FinalURL)
	}

	if !e.Available() {
		fmt.Fprintf(out, "\nThe page could not be used: %s\n", e.ErrorMessage)
		return
	}

	if e.IsEmpty() {
		fmt.Fprintln(out, "\nNo inspection report link or strategic statements found.")
		return
	}

	if e.ReportLink != nil {
		fmt.Fprintf(out, "Inspection report: %s\n", e.ReportLink.URL)
	} else {
		fmt.Fprintln(out, "Inspection report: not found")
	}

	if len(e.Statements) == 0 {
		fmt.Fprintln(out, "\nNo strategic statements found.")
		return
	}

	fmt.Fprintf(out, "\nStrategic statements (%d):\n", len(e.Statements))
	for i, s := range e.Statements {
		fmt.Fprintf(out, "  %d. %s\n", i+1, s.Text)
		if s.SourceHeading != "" {
			fmt.Fprintf(out, "     (under %q)\n", s.SourceHeading)
		}
	}
}
