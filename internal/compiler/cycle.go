package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/rules"
	"github.com/roach88/adaptivity/internal/script"
)

// Warning codes (W200-W299)
const (
	WarnNoCorrectRule  = "W201" // no enabled rule marks an answer correct
	WarnBuiltinDefault = "W202" // no default incorrect rule; the builtin will be used
	WarnBindCycle      = "W203" // bind to actions form a cycle
)

// Warning is a problem that does not stop a check from running but
// usually means the rules are not what the author intended.
type Warning struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"` // cycle path, for W203
}

// Analyze reports warnings for a rule list.
func Analyze(rs []ir.Rule) []Warning {
	warnings := []Warning{}
	enabled := rules.Enabled(rs)

	if !slices.ContainsFunc(enabled, func(r ir.Rule) bool { return r.Correct }) {
		warnings = append(warnings, Warning{
			Code:    WarnNoCorrectRule,
			Message: "no enabled rule is marked correct; every check will be incorrect",
		})
	}
	if _, added := rules.EnsureDefaultWrong(enabled); added {
		warnings = append(warnings, Warning{
			Code:    WarnBuiltinDefault,
			Message: fmt.Sprintf("no default incorrect rule; %s will be used", rules.DefaultWrongID),
		})
	}
	return append(warnings, AnalyzeBindCycles(enabled)...)
}

// AnalyzeBindCycles finds cycles among the "bind to" mutations of a rule
// list.
//
// A bound variable reads through to its source, so a cycle of bindings
// (a → b → a) can never resolve to a value. Lookups give up after a fixed
// number of hops at run time; this reports the cycle before the rules ship.
//
// The algorithm:
//  1. Build a target → source graph from every bind to action
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Nodes are visited in sorted order so the output is deterministic.
func AnalyzeBindCycles(rs []ir.Rule) []Warning {
	graph := buildBindGraph(rs)
	if len(graph) == 0 {
		return []Warning{}
	}

	warnings := []Warning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleWarning(scc, graph))
		}
	}
	return warnings
}

// bindGraph maps a bound variable to the variables it is bound to.
type bindGraph map[string][]string

func buildBindGraph(rs []ir.Rule) bindGraph {
	graph := make(bindGraph)
	for _, r := range rs {
		for _, a := range r.Event.Params.Actions {
			op, ok := a.StateOperation()
			if !ok || op.Operator != script.OpBind {
				continue
			}
			source, ok := bindSource(op.Value)
			if !ok {
				continue
			}
			target := strings.TrimSpace(op.Target)
			if !slices.Contains(graph[target], source) {
				graph[target] = append(graph[target], source)
			}
			if _, exists := graph[source]; !exists {
				graph[source] = []string{}
			}
		}
	}
	return graph
}

// bindSource reads the variable name of a bind operand: "name" or "{name}".
func bindSource(v ir.Value) (string, bool) {
	s, ok := v.(ir.String)
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(string(s))
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") && strings.Count(name, "{") == 1 {
		name = strings.TrimSpace(name[1 : len(name)-1])
	}
	if name == "" || strings.ContainsAny(name, "{}") {
		return "", false
	}
	return name, true
}

func hasSelfLoop(node string, graph bindGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of variable names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph bindGraph) [][]string {
	var (
		index   = 0
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

		// v is a root node: pop the stack into an SCC.
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

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleWarning(scc []string, graph bindGraph) Warning {
	if len(scc) == 1 {
		name := scc[0]
		return Warning{
			Code:    WarnBindCycle,
			Path:    []string{name, name},
			Message: fmt.Sprintf("variable bound to itself: %s → %s", name, name),
		}
	}

	path := cyclePath(scc, graph)
	return Warning{
		Code:    WarnBindCycle,
		Path:    path,
		Message: fmt.Sprintf("bind cycle: %s", strings.Join(path, " → ")),
	}
}

// cyclePath walks from the smallest member of the SCC along edges inside
// the SCC until it returns to the start.
func cyclePath(scc []string, graph bindGraph) []string {
	start := slices.Min(scc)
	current := start
	path := []string{start}
	visited := map[string]bool{}

	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if slices.Contains(scc, neighbor) && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		current = next
	}
}
