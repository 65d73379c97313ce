// Package graph provides the workflow graph data structure and the builder
// that is its only mutator.
package graph

import (
	"slices"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Default canvas positions of the start and end markers.
var (
	DefaultStartPosition = models.Position{X: 250, Y: 0}
	DefaultEndPosition   = models.Position{X: 250, Y: 300}
)

// WorkflowGraph is a directed graph of step nodes. Node and connection
// collections keep insertion order. A graph always holds exactly one start
// and one end node, and every connection references nodes of the graph.
//
// Readers receive copies; all mutations go through a Builder.
type WorkflowGraph struct {
	nodes           map[string]*models.StepNode
	nodeOrder       []string
	connections     map[string]*models.Connection
	connectionOrder []string
	incoming        map[string]string   // target node id -> connection id
	outgoing        map[string][]string // source node id -> connection ids
	used            map[string]struct{} // every id ever assigned in this graph
	startID         string
	endID           string
}

func newWorkflowGraph() *WorkflowGraph {
	return &WorkflowGraph{
		nodes:       make(map[string]*models.StepNode),
		connections: make(map[string]*models.Connection),
		incoming:    make(map[string]string),
		outgoing:    make(map[string][]string),
		used:        make(map[string]struct{}),
	}
}

// StartID returns the id of the start node.
func (g *WorkflowGraph) StartID() string {
	return g.startID
}

// EndID returns the id of the end node.
func (g *WorkflowGraph) EndID() string {
	return g.endID
}

// Node returns a copy of the node with the given id.
func (g *WorkflowGraph) Node(id string) (models.StepNode, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return models.StepNode{}, false
	}

	return node.Clone(), true
}

// HasNode reports whether the graph holds a node with the given id.
func (g *WorkflowGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]

	return ok
}

// Nodes returns copies of all nodes in insertion order.
func (g *WorkflowGraph) Nodes() []models.StepNode {
	nodes := make([]models.StepNode, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		nodes = append(nodes, g.nodes[id].Clone())
	}

	return nodes
}

// NodeIDs returns node ids in insertion order.
func (g *WorkflowGraph) NodeIDs() []string {
	return slices.Clone(g.nodeOrder)
}

// NodeCount returns the number of nodes.
func (g *WorkflowGraph) NodeCount() int {
	return len(g.nodeOrder)
}

// Connection returns the connection with the given id.
func (g *WorkflowGraph) Connection(id string) (models.Connection, bool) {
	conn, ok := g.connections[id]
	if !ok {
		return models.Connection{}, false
	}

	return *conn, true
}

// Connections returns all connections in insertion order.
func (g *WorkflowGraph) Connections() []models.Connection {
	conns := make([]models.Connection, 0, len(g.connectionOrder))
	for _, id := range g.connectionOrder {
		conns = append(conns, *g.connections[id])
	}

	return conns
}

// ConnectionCount returns the number of connections.
func (g *WorkflowGraph) ConnectionCount() int {
	return len(g.connectionOrder)
}

// Incoming returns the connection feeding the input port of nodeID.
func (g *WorkflowGraph) Incoming(nodeID string) (models.Connection, bool) {
	connID, ok := g.incoming[nodeID]
	if !ok {
		return models.Connection{}, false
	}

	return *g.connections[connID], true
}

// Outgoing returns the connections leaving the output port of nodeID in insertion order.
func (g *WorkflowGraph) Outgoing(nodeID string) []models.Connection {
	ids := g.outgoing[nodeID]

	conns := make([]models.Connection, 0, len(ids))
	for _, id := range ids {
		conns = append(conns, *g.connections[id])
	}

	return conns
}

// Successors returns the target node ids of the outgoing connections of nodeID.
func (g *WorkflowGraph) Successors(nodeID string) []string {
	ids := g.outgoing[nodeID]

	targets := make([]string, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, g.connections[id].Target)
	}

	return targets
}

// Clone returns a deep copy of the graph.
func (g *WorkflowGraph) Clone() *WorkflowGraph {
	clone := newWorkflowGraph()
	clone.startID = g.startID
	clone.endID = g.endID
	clone.nodeOrder = slices.Clone(g.nodeOrder)
	clone.connectionOrder = slices.Clone(g.connectionOrder)

	for id, node := range g.nodes {
		copied := node.Clone()
		clone.nodes[id] = &copied
	}

	for id, conn := range g.connections {
		copied := *conn
		clone.connections[id] = &copied
	}

	for target, connID := range g.incoming {
		clone.incoming[target] = connID
	}

	for source, connIDs := range g.outgoing {
		clone.outgoing[source] = slices.Clone(connIDs)
	}

	for id := range g.used {
		clone.used[id] = struct{}{}
	}

	return clone
}

func (g *WorkflowGraph) insertNode(node models.StepNode) {
	copied := node.Clone()
	g.nodes[node.ID] = &copied
	g.nodeOrder = append(g.nodeOrder, node.ID)
	g.used[node.ID] = struct{}{}
}

func (g *WorkflowGraph) insertConnection(conn models.Connection) {
	g.connections[conn.ID] = &conn
	g.connectionOrder = append(g.connectionOrder, conn.ID)
	g.incoming[conn.Target] = conn.ID
	g.outgoing[conn.Source] = append(g.outgoing[conn.Source], conn.ID)
	g.used[conn.ID] = struct{}{}
}

func (g *WorkflowGraph) deleteConnection(id string) {
	conn := g.connections[id]

	delete(g.connections, id)
	g.connectionOrder = slices.DeleteFunc(g.connectionOrder, func(c string) bool { return c == id })

	if g.incoming[conn.Target] == id {
		delete(g.incoming, conn.Target)
	}

	remaining := slices.DeleteFunc(g.outgoing[conn.Source], func(c string) bool { return c == id })
	if len(remaining) == 0 {
		delete(g.outgoing, conn.Source)
	} else {
		g.outgoing[conn.Source] = remaining
	}
}

func (g *WorkflowGraph) deleteNode(id string) {
	for _, connID := range slices.Clone(g.connectionOrder) {
		conn := g.connections[connID]
		if conn.Source == id || conn.Target == id {
			g.deleteConnection(connID)
		}
	}

	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(n string) bool { return n == id })
}

func (g *WorkflowGraph) countKind(kind models.StepKind) int {
	count := 0

	for _, node := range g.nodes {
		if node.Kind == kind {
			count++
		}
	}

	return count
}
