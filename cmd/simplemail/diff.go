package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/differ"
)

func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
		exitCode     bool
	)

	cmd := &cobra.Command{
		Use:   "diff <dir>",
		Short: "Compare synthesized stacks with templates on disk",
		Long: `Diff builds both stacks and compares them semantically with the templates a
previous synth wrote to dir. Resources are reported as added, removed or
modified, with the changed property paths.

Examples:
    simplemail diff cdk.out
    simplemail diff cdk.out --format json
    simplemail diff cdk.out --exit-code   # exit 1 when anything changed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := synthesize(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result, err := differ.CompareAssembly(asm, args[0], differ.Options{IgnoreOrder: ignoreOrder})
			if err != nil {
				return fmt.Errorf("diff failed: %w", err)
			}
			if err := outputDiffResult(cmd.OutOrStdout(), result, outputFormat); err != nil {
				return err
			}
			if exitCode && result.Summary.Total > 0 {
				return fmt.Errorf("%d resources differ from %s", result.Summary.Total, args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Fail when there are differences")

	return cmd
}

func outputDiffResult(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    simplemail.TemplateDiff `json:"diff"`
			Summary simplemail.DiffSummary  `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Summary.Total == 0 {
			fmt.Fprintln(w, "No differences.")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s/%s (%s)\n", e.Stack, e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s/%s (%s)\n", e.Stack, e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s/%s (%s)\n", e.Stack, e.Resource, e.Type)
			for _, c := range e.Changes {
				fmt.Fprintf(w, "    %s\n", c)
			}
		}
		fmt.Fprintf(w, "\n%s\n", summaryLine(result.Summary))

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

func summaryLine(s simplemail.DiffSummary) string {
	return fmt.Sprintf("%d added, %d removed, %d modified", s.Added, s.Removed, s.Modified)
}
