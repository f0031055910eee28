package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/config"
	"github.com/lex00/simple-mail-api-go/internal/logger"
)

func newSynthCmd() *cobra.Command {
	var jsonResult bool

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize stack templates",
		Long: `Synth builds both stacks and writes one template per stack plus manifest.json
to the output directory. Stacks are written in deployment order.

Examples:
    simplemail synth
    simplemail synth -o out -f yaml
    simplemail synth --sender-mode parameter --json`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLocalFlags: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd, cfg, jsonResult)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (default cdk.out)")
	cmd.Flags().StringP("format", "f", "", "Template format: json or yaml (default json)")
	cmd.Flags().BoolVar(&jsonResult, "json", false, "Print the result as JSON")

	return cmd
}

func runSynth(cmd *cobra.Command, c *config.Config, jsonResult bool) error {
	w := cmd.OutOrStdout()

	asm, err := synthesize(cmd.Context(), c)
	if err != nil {
		return reportSynth(w, simplemail.SynthResult{Errors: []string{err.Error()}}, jsonResult, err)
	}

	written, err := asm.Write(c.Output, c.Format)
	if err != nil {
		return reportSynth(w, simplemail.SynthResult{Errors: []string{err.Error()}}, jsonResult, err)
	}
	logger.Logger.Infow("templates written", "dir", c.Output, "files", len(written))

	result := simplemail.SynthResult{
		Success: true,
		Stacks:  asm.StackNames(),
		Output:  c.Output,
	}
	if jsonResult {
		return reportSynth(w, result, true, nil)
	}

	fmt.Fprintf(w, "Synthesized %d stacks to %s\n", len(result.Stacks), c.Output)
	for _, path := range written {
		fmt.Fprintf(w, "  %s\n", filepath.Base(path))
	}
	return nil
}

// reportSynth prints a failed or JSON result and passes err through so the
// exit status stays non-zero.
func reportSynth(w io.Writer, result simplemail.SynthResult, jsonResult bool, err error) error {
	if !jsonResult {
		return err
	}
	data, merr := json.MarshalIndent(result, "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Fprintln(w, string(data))
	return err
}
