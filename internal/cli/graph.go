package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ilverify/internal/compiler"
	"github.com/roach88/ilverify/internal/diag"
	"github.com/roach88/ilverify/internal/typecheck"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Method string
	Root   int    // -1 renders every root of the method
	Output string // output file path
}

// RootGraph is the rendering of one root.
type RootGraph struct {
	Method string              `json:"method"`
	Root   int                 `json:"root"`
	Kind   string              `json:"kind"`
	OK     bool                `json:"ok"`
	Code   typecheck.ErrorCode `json:"code,omitempty"`
	Graph  string              `json:"graph"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <unit.cue>",
		Short: "Render the typing of a root as a DOT graph",
		Long: `Render the expression tree of a root as a Graphviz digraph.

Every node is labelled with its encoding and its type (green) or the error
it fails with (red). Without --root every root of the method is rendered,
one digraph after another.

Examples:
  ilverify graph ./fixtures/swap.cue --method swap --root 1
  ilverify graph ./fixtures/swap.cue --method swap -o swap.dot
  ilverify graph ./fixtures/swap.cue --method swap --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Method, "method", "", "method to render (required)")
	_ = cmd.MarkFlagRequired("method")
	cmd.Flags().IntVar(&opts.Root, "root", -1, "root index within the method body")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runGraph(opts *GraphOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	u, err := LoadUnit(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	m, ok := u.Method(opts.Method)
	if !ok {
		msg := fmt.Sprintf("method %q not found in %s", opts.Method, path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if opts.Root < -1 || opts.Root >= len(m.Roots) {
		msg := fmt.Sprintf("root %d out of range: %s has %d root(s)", opts.Root, m.Name, len(m.Roots))
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	graphs := renderGraphs(u, m, opts.Root)

	if opts.Output != "" {
		if err := writeGraphFile(opts.Output, graphs); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write graph", err)
		}
		formatter.VerboseLog("Wrote %d graph(s) to %s", len(graphs), opts.Output)
	}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: graphs})
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote %d graph(s) to %s\n", len(graphs), opts.Output)
		return nil
	}
	fmt.Fprint(formatter.Writer, joinGraphs(graphs))
	return nil
}

// renderGraphs renders root idx of m, or every root when idx is -1.
func renderGraphs(u *compiler.Unit, m *compiler.Method, idx int) []RootGraph {
	indices := []int{idx}
	if idx == -1 {
		indices = make([]int, len(m.Roots))
		for i := range indices {
			indices[i] = i
		}
	}

	c := typecheck.New(u.Arena, m.Func)
	graphs := make([]RootGraph, 0, len(indices))
	for _, i := range indices {
		id := m.Roots[i]
		g := RootGraph{
			Method: m.Name,
			Root:   i,
			Kind:   u.Arena.Root(id).Kind(),
			OK:     true,
			Graph:  diag.RenderRoot(u.Arena, m.Func, id),
		}
		if err := c.Root(id); err != nil {
			g.OK = false
			g.Code = typecheck.CodeOf(err)
		}
		graphs = append(graphs, g)
	}
	return graphs
}

func joinGraphs(graphs []RootGraph) string {
	var b strings.Builder
	for _, g := range graphs {
		b.WriteString(g.Graph)
		b.WriteString("\n")
	}
	return b.String()
}

func writeGraphFile(path string, graphs []RootGraph) error {
	if err := os.WriteFile(path, []byte(joinGraphs(graphs)), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
