// Package diag renders the typing of a root as a Graphviz digraph.
//
// Each reachable node is drawn once, labelled with its encoding and either
// its type (green) or the error it fails with (red). Edges point from a
// node to its operands and are drawn reversed so that the root sits at the
// bottom of the rendered graph.
package diag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ilverify/internal/arena"
	"github.com/roach88/ilverify/internal/ir"
	"github.com/roach88/ilverify/internal/typecheck"
)

const (
	colorOK   = "green"
	colorFail = "red"
)

// RenderRoot returns the DOT graph of root id checked in the context of fn.
func RenderRoot(a *arena.Arena, fn typecheck.Func, id ir.RootID) string {
	r := &renderer{
		a:    a,
		c:    typecheck.New(a, fn),
		seen: make(map[ir.NodeID]bool),
	}

	root := a.Root(id)
	var b strings.Builder
	b.WriteString("digraph G{edge [dir=\"back\"];\n")
	for _, n := range root.Nodes() {
		r.node(&b, n)
	}

	label, color := describe(root), colorOK
	if err := r.c.Root(id); err != nil {
		label += "\n" + err.Error()
		color = colorFail
	}
	fmt.Fprintf(&b, " r%d  [label = %s color = %q] r%d ->{", id, strconv.Quote(label), color, id)
	for _, n := range root.Nodes() {
		fmt.Fprintf(&b, "n%d \n", n)
	}
	b.WriteString("}")
	return b.String()
}

type renderer struct {
	a    *arena.Arena
	c    *typecheck.Checker
	seen map[ir.NodeID]bool
}

// node writes id and, depth first, every operand not drawn yet.
func (r *renderer) node(b *strings.Builder, id ir.NodeID) {
	if r.seen[id] {
		return
	}
	r.seen[id] = true

	n := r.a.Node(id)
	label, color := describe(n), colorOK
	if t, err := r.c.Node(id); err != nil {
		label += "\n" + err.Error()
		color = colorFail
	} else {
		label += "\n" + r.a.MangleType(t)
	}
	fmt.Fprintf(b, "n%d [label = %s color = %q]\n", id, strconv.Quote(label), color)

	children := n.Children()
	if len(children) == 0 {
		return
	}
	fmt.Fprintf(b, " n%d  -> {", id)
	for _, c := range children {
		fmt.Fprintf(b, " n%d ", c)
	}
	b.WriteString("}\n")
	for _, c := range children {
		r.node(b, c)
	}
}

func describe(e ir.Encodable) string {
	key, err := ir.CanonicalKey(e)
	if err != nil {
		return fmt.Sprintf("%T", e)
	}
	return key
}
