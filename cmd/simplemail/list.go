package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/stack"
)

func newListCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List synthesized resources",
		Long: `List builds both stacks and displays their resources in deployment order.

Examples:
    simplemail list
    simplemail list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := synthesize(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResources(asm), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

// listResources collects every resource, by stack in deployment order and by
// name within a stack.
func listResources(asm *stack.Assembly) simplemail.ListResult {
	result := simplemail.ListResult{Resources: []simplemail.ListResource{}}

	for _, stackName := range asm.StackNames() {
		tmpl := asm.Templates[stackName]
		names := make([]string, 0, len(tmpl.Resources))
		for name := range tmpl.Resources {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			result.Resources = append(result.Resources, simplemail.ListResource{
				Stack: stackName,
				Name:  name,
				Type:  tmpl.Resources[name].Type,
			})
		}
	}

	return result
}

func outputListResult(w io.Writer, result simplemail.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		current := ""
		for _, res := range result.Resources {
			if res.Stack != current {
				if current != "" {
					fmt.Fprintln(w)
				}
				current = res.Stack
				fmt.Fprintf(w, "%s:\n", current)
			}
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
