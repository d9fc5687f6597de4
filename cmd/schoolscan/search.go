package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/schoolscan/internal/institution"
	"github.com/nao1215/schoolscan/internal/model"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the establishment dataset",
		Long: `Search looks up schools in the establishment dataset.

The query is matched case-insensitively against the school name,
URN and postcode. Results are listed in dataset order.

Examples:
  # Find schools by name
  schoolscan search --dataset edubase.csv "oakfield"

  # Look up a school by URN
  schoolscan search 100000

  # Output JSON for scripting
  schoolscan search --json "SW1A"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("dataset", "d", "",
		"Establishment dataset CSV (default: dataset from the configuration file)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .schoolscan in current or home directory)")
	cmd.Flags().IntP("limit", "n", institution.DefaultSearchLimit,
		"Maximum number of results")
	cmd.Flags().BoolP("json", "j", false,
		"Output results in JSON format")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	datasetFlag, err := cmd.Flags().GetString("dataset")
	if err != nil {
		return err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	datasetPath, err := resolveDatasetPath(datasetFlag, configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))

	ds, err := institution.Load(datasetPath)
	if err != nil {
		return err
	}
	logger.Debug("dataset loaded", "path", datasetPath, "institutions", ds.Len())

	results := ds.Search(args[0], limit)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	printInstitutions(cmd.OutOrStdout(), args[0], results)
	return nil
}

// printInstitutions prints search results as an aligned table.
func printInstitutions(out io.Writer, query string, results []model.Institution) {
	if len(results) == 0 {
		fmt.Fprintf(out, "No schools found matching %q.\n", query)
		return
	}

	fmt.Fprintf(out, "Schools matching %q (%d):\n\n", query, len(results))
	fmt.Fprintf(out, "  %-8s  %-40s  %-12s  %s\n", "URN", "Name", "Phase", "Address")
	for _, inst := range results {
		fmt.Fprintf(out, "  %-8s  %-40s  %-12s  %s\n",
			inst.URN, truncate(inst.Name, 40), truncate(inst.Phase, 12), inst.Address())
	}
	fmt.Fprintln(out, "\nUse 'schoolscan report <urn>' to build a report for a school.")
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
