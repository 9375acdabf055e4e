package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CycleWarning reports a set of mutually recursive methods.
//
// Recursion is legal and typechecks like any other call; it is reported
// so that fixtures exercising it are recognizable.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// callGraph maps a method name to the methods its body references, either
// by call or by taking a function pointer.
type callGraph map[string][]string

// AnalyzeCycles finds recursive call chains among the methods of a unit.
//
// It builds the call graph from each method's references, finds strongly
// connected components with Tarjan's algorithm, and reports every
// component with more than one method or with a self-call. Warnings are
// ordered by the first method of their path.
func AnalyzeCycles(u *Unit) []CycleWarning {
	graph := make(callGraph, len(u.Methods))
	for _, m := range u.Methods {
		var callees []string
		for _, name := range m.Calls {
			// Externs have no body and cannot call back.
			if _, ok := u.Method(name); ok {
				callees = append(callees, name)
			}
		}
		graph[m.Name] = callees
	}

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Path[0] < warnings[j].Path[0] })
	return warnings
}

func hasSelfLoop(name string, graph callGraph) bool {
	for _, callee := range graph[name] {
		if callee == name {
			return true
		}
	}
	return false
}

// tarjanSCC returns the strongly connected components of graph. Nodes are
// visited in name order so the result is deterministic.
func tarjanSCC(graph callGraph) [][]string {
	var (
		index   int
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, visited := indices[name]; !visited {
			strongConnect(name)
		}
	}
	return sccs
}

func sccToWarning(scc []string, graph callGraph) CycleWarning {
	sort.Strings(scc)
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-recursive method: %s → %s", name, name),
			Level:   "info",
		}
	}

	path := cyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Mutually recursive methods: %s", strings.Join(path, " → ")),
		Level:   "info",
	}
}

// cyclePath walks edges inside the component from its smallest member
// until it returns to the start.
func cyclePath(scc []string, graph callGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, name := range scc {
		members[name] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true

		var next string
		for _, callee := range graph[current] {
			if members[callee] && (!visited[callee] || callee == start) {
				next = callee
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
