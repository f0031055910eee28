package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/simple-mail-api-go/internal/graph"
)

func newGraphCmd() *cobra.Command {
	var (
		outputFormat      string
		includeParameters bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid graph of both stacks. Each stack is a cluster;
references inside a stack are solid edges (blue for Fn::GetAtt) and the
cross-stack state machine import is a dashed red edge.

The output can be rendered with Graphviz:
    simplemail graph | dot -Tpng -o deps.png

Examples:
    simplemail graph
    simplemail graph -p --sender-mode parameter   # include the SenderIdentity parameter
    simplemail graph -f mermaid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			asm, err := synthesize(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:            graphFormat,
				IncludeParameters: includeParameters,
			}
			return gen.Generate(asm, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")

	return cmd
}
