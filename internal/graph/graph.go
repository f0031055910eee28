// Package graph generates DOT and Mermaid dependency graphs from a
// synthesized assembly: one cluster per stack, reference edges inside a stack
// and import edges between stacks.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/lex00/simple-mail-api-go/internal/serialize"
	"github.com/lex00/simple-mail-api-go/internal/stack"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from synthesized stacks.
type Generator struct {
	// IncludeParameters includes template parameters and their references.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(asm *stack.Assembly, w io.Writer) error {
	graph := g.buildGraph(asm)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(asm *stack.Assembly) (string, error) {
	var sb strings.Builder
	if err := g.Generate(asm, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// NodeID returns the graph node ID of a resource or parameter in a stack.
func NodeID(stackName, logicalName string) string {
	return stackName + "_" + logicalName
}

func (g *Generator) buildGraph(asm *stack.Assembly) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	nodes := make(map[string]dot.Node)
	stacks := asm.StackNames()

	for _, stackName := range stacks {
		tmpl := asm.Templates[stackName]
		cluster := graph.Subgraph("cluster_"+stackName, dot.ClusterOption{})
		cluster.Attr("label", stackName)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")

		for _, name := range sortedKeys(tmpl.Resources) {
			id := NodeID(stackName, name)
			n := cluster.Node(id)
			n.Label(name + "\\n[" + tmpl.Resources[name].Type + "]")
			nodes[id] = n
		}

		if g.IncludeParameters {
			for _, name := range sortedKeys(tmpl.Parameters) {
				id := NodeID(stackName, name)
				n := cluster.Node(id)
				n.Attr("shape", "ellipse")
				n.Attr("style", "dashed")
				n.Label(name)
				nodes[id] = n
			}
		}
	}

	for _, stackName := range stacks {
		tmpl := asm.Templates[stackName]
		for _, name := range sortedKeys(tmpl.Resources) {
			res := tmpl.Resources[name]
			from := nodes[NodeID(stackName, name)]

			getAtts := make(map[string]bool)
			for _, target := range serialize.AttributeReferences(res.Properties) {
				getAtts[target] = true
			}

			targets := serialize.References(res.Properties)
			targets = append(targets, res.DependsOn...)
			for _, dep := range dedupe(targets) {
				to, ok := nodes[NodeID(stackName, dep)]
				if !ok {
					// Parameters are skipped unless requested.
					continue
				}
				e := graph.Edge(from, to)
				if getAtts[dep] {
					e.Attr("color", "blue")
				}
			}

			for _, export := range serialize.Imports(res.Properties) {
				producer, target, ok := resolveExport(asm, export)
				if !ok {
					continue
				}
				to, ok := nodes[NodeID(producer, target)]
				if !ok {
					continue
				}
				e := graph.Edge(from, to)
				e.Attr("color", "red")
				e.Attr("style", "dashed")
				e.Label(export)
			}
		}
	}

	return graph
}

// resolveExport finds the stack exporting name and the resource the exported
// value refers to.
func resolveExport(asm *stack.Assembly, name string) (stackName, resource string, ok bool) {
	for _, s := range asm.StackNames() {
		for _, out := range asm.Templates[s].Outputs {
			if out.Export == nil || out.Export.Name != name {
				continue
			}
			refs := serialize.References(out.Value)
			if len(refs) == 0 {
				return "", "", false
			}
			return s, refs[0], true
		}
	}
	return "", "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
