// Package validation checks workflow graphs for executability.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/registry"
)

// IssueKind classifies a semantic problem found in a graph.
type IssueKind string

const (
	IssueUnreachable    IssueKind = "unreachable"
	IssueDeadEnd        IssueKind = "dead_end"
	IssueCycle          IssueKind = "cycle"
	IssueEndUnreachable IssueKind = "end_unreachable"
)

// Issue is a semantic problem. Issues are data: a graph with issues is still
// a structurally valid graph, only not executable.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	NodeID  string    `json:"node_id,omitempty"`
	Cycle   []string  `json:"cycle,omitempty"`
	Message string    `json:"message"`
}

// Result holds every issue found, in detection order.
type Result struct {
	Issues []Issue `json:"issues"`
}

// Valid reports whether the graph has no issues.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// Summary joins the issue messages.
func (r Result) Summary() string {
	messages := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		messages = append(messages, issue.Message)
	}

	return strings.Join(messages, "; ")
}

// Graph is the read-only view the validator needs. *graph.WorkflowGraph implements it.
type Graph interface {
	StartID() string
	EndID() string
	Nodes() []models.StepNode
	Successors(nodeID string) []string
}

// Validator checks graphs against the registry's port shapes.
type Validator struct {
	registry *registry.Registry
}

func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate returns the graph's issues in this order: unreachable nodes, dead
// ends, the first cycle reachable from start, end unreachable. Nodes on the
// reported cycle are not reported again, and end unreachable is left out
// when a cycle is reported. The graph is never modified.
func (v *Validator) Validate(g Graph) Result {
	startID, endID := g.StartID(), g.EndID()
	nodes := g.Nodes()

	reachable := reachableFrom(g, startID)
	cycle := firstCycle(g, startID)

	onCycle := make(map[string]bool, len(cycle))
	for _, id := range cycle {
		onCycle[id] = true
	}

	result := Result{Issues: []Issue{}}

	for _, node := range nodes {
		if node.ID == startID || node.ID == endID || reachable[node.ID] || onCycle[node.ID] {
			continue
		}

		result.Issues = append(result.Issues, Issue{
			Kind:    IssueUnreachable,
			NodeID:  node.ID,
			Message: fmt.Sprintf("%s step %s is unreachable from start", v.registry.Label(node.Kind), node.ID),
		})
	}

	for _, node := range nodes {
		if node.ID == startID || node.ID == endID || !reachable[node.ID] || onCycle[node.ID] {
			continue
		}

		if !v.registry.PortShape(node.Kind).HasOutput || len(g.Successors(node.ID)) > 0 {
			continue
		}

		result.Issues = append(result.Issues, Issue{
			Kind:    IssueDeadEnd,
			NodeID:  node.ID,
			Message: fmt.Sprintf("output of %s step %s is not connected", v.registry.Label(node.Kind), node.ID),
		})
	}

	if len(cycle) > 0 {
		result.Issues = append(result.Issues, Issue{
			Kind:    IssueCycle,
			NodeID:  cycle[0],
			Cycle:   cycle,
			Message: fmt.Sprintf("steps form a cycle: %s", strings.Join(append(slices.Clone(cycle), cycle[0]), " -> ")),
		})
	} else if !reachable[endID] {
		result.Issues = append(result.Issues, Issue{
			Kind:    IssueEndUnreachable,
			NodeID:  endID,
			Message: "end is unreachable from start",
		})
	}

	return result
}

func reachableFrom(g Graph, startID string) map[string]bool {
	reachable := map[string]bool{startID: true}
	queue := []string{startID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.Successors(current) {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	return reachable
}

type colour int

const (
	white colour = iota // unvisited
	grey                // on the current path
	black               // finished
)

type frame struct {
	id         string
	successors []string
	next       int
}

// firstCycle runs an iterative depth-first search from startID, following
// successors in connection order, and returns the nodes of the first back
// edge's cycle in path order. It returns nil when no cycle is reachable.
func firstCycle(g Graph, startID string) []string {
	colours := map[string]colour{startID: grey}
	stack := []frame{{id: startID, successors: g.Successors(startID)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next >= len(top.successors) {
			colours[top.id] = black
			stack = stack[:len(stack)-1]

			continue
		}

		next := top.successors[top.next]
		top.next++

		switch colours[next] {
		case grey:
			index := slices.IndexFunc(stack, func(f frame) bool { return f.id == next })

			cycle := make([]string, 0, len(stack)-index)
			for _, f := range stack[index:] {
				cycle = append(cycle, f.id)
			}

			return cycle
		case white:
			colours[next] = grey
			stack = append(stack, frame{id: next, successors: g.Successors(next)})
		}
	}

	return nil
}
