package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ilverify/internal/compiler"
	"github.com/roach88/ilverify/internal/ir"
	"github.com/roach88/ilverify/internal/typecheck"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Output string // output file path
}

// DumpResult holds the typed listing of a unit.
type DumpResult struct {
	Unit    string       `json:"unit"`
	Hash    string       `json:"hash"`
	Methods []DumpMethod `json:"methods"`
}

// DumpMethod is one method body with its roots.
type DumpMethod struct {
	Name   string     `json:"name"`
	Sig    string     `json:"sig"`
	Locals []string   `json:"locals"`
	Roots  []DumpRoot `json:"roots"`
}

// DumpRoot is one root and the nodes reachable from it, depth first.
type DumpRoot struct {
	Index    int        `json:"index"`
	Kind     string     `json:"kind"`
	ID       string     `json:"id"`
	Encoding string     `json:"encoding"`
	Error    string     `json:"error,omitempty"`
	Nodes    []DumpNode `json:"nodes"`
}

// DumpNode is a node with its type, or the error it fails with.
type DumpNode struct {
	Node     uint32 `json:"node"`
	Encoding string `json:"encoding"`
	Type     string `json:"type,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <unit.cue>",
		Short: "List every root with its typed nodes",
		Long: `Compile a CUE fixture and list every root of every method.

Each root is shown with its content ID and the nodes it reaches, each
labelled with its mangled type or the error it fails with. Encodings are
canonical JSON, the same bytes that content IDs are computed from.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the JSON listing to this file")

	return cmd
}

func runDump(opts *DumpOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	u, err := LoadUnit(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	result := dumpUnit(u, path)

	if opts.Output != "" {
		if err := writeDumpFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write dump", err)
		}
	}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result})
	}
	return outputDumpText(formatter, result, opts.Output)
}

// dumpUnit types every node of every root of u.
func dumpUnit(u *compiler.Unit, path string) DumpResult {
	a := u.Arena
	result := DumpResult{
		Unit:    path,
		Hash:    u.ContentID(),
		Methods: make([]DumpMethod, 0, len(u.Methods)),
	}

	for _, m := range u.Methods {
		dm := DumpMethod{
			Name:   m.Name,
			Sig:    a.MangleType(ir.FnPtr{Sig: m.Func.Sig}),
			Locals: make([]string, len(m.Func.Locals)),
			Roots:  make([]DumpRoot, 0, len(m.Roots)),
		}
		for i, l := range m.Func.Locals {
			dm.Locals[i] = a.Mangle(l.Type)
		}

		c := typecheck.New(a, m.Func)
		for i, id := range m.Roots {
			root := a.Root(id)
			dr := DumpRoot{
				Index:    i,
				Kind:     root.Kind(),
				ID:       a.RootContentID(id),
				Encoding: canonicalKey(root),
			}
			if err := c.Root(id); err != nil {
				dr.Error = err.Error()
			}

			seen := make(map[ir.NodeID]bool)
			var visit func(ir.NodeID)
			visit = func(n ir.NodeID) {
				if seen[n] {
					return
				}
				seen[n] = true
				node := a.Node(n)
				dn := DumpNode{Node: uint32(n), Encoding: canonicalKey(node)}
				if t, err := c.Node(n); err != nil {
					dn.Error = err.Error()
				} else {
					dn.Type = a.MangleType(t)
				}
				dr.Nodes = append(dr.Nodes, dn)
				for _, child := range node.Children() {
					visit(child)
				}
			}
			for _, n := range root.Nodes() {
				visit(n)
			}
			if dr.Nodes == nil {
				dr.Nodes = []DumpNode{}
			}
			dm.Roots = append(dm.Roots, dr)
		}
		result.Methods = append(result.Methods, dm)
	}
	return result
}

func canonicalKey(e ir.Encodable) string {
	key, err := ir.CanonicalKey(e)
	if err != nil {
		return fmt.Sprintf("%T", e)
	}
	return key
}

// writeDumpFile writes the listing as indented JSON.
func writeDumpFile(result DumpResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling dump: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func outputDumpText(formatter *OutputFormatter, result DumpResult, outputFile string) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Unit %s (%s)\n\n", result.Unit, result.Hash)
	for _, m := range result.Methods {
		fmt.Fprintf(w, "%s %s\n", m.Name, m.Sig)
		for i, l := range m.Locals {
			fmt.Fprintf(w, "  local %d: %s\n", i, l)
		}
		for _, r := range m.Roots {
			status := "ok"
			if r.Error != "" {
				status = r.Error
			}
			fmt.Fprintf(w, "  [%d] %s %s\n", r.Index, r.Kind, status)
			for _, n := range r.Nodes {
				label := n.Type
				if n.Error != "" {
					label = "! " + n.Error
				}
				fmt.Fprintf(w, "      n%d %s : %s\n", n.Node, n.Encoding, label)
			}
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote listing to %s\n", outputFile)
	}
	return nil
}
