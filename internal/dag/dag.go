package dag

import (
	"fmt"
	"slices"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		seq:        len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Dependencies returns the IDs the given node depends on, in insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.deps), nil
}

// CycleError reports a dependency cycle. Node is the first node found on
// it.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected involving node '%s'", e.Node)
}

func (g *Graph) detectCycles() error {
	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the recursion stack of the current walk.
	// unvisited: everything else.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return &CycleError{Node: n.id}
		}

		temporary[n.id] = true
		for _, id := range sortedIDs(n.dependents) {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// TopologicalOrder returns every node ID such that each node appears after
// all of its dependencies. Among nodes that are ready at the same time, the
// one added first comes first, so the order is deterministic. A cycle is
// reported as a *CycleError.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if err := g.detectCycles(); err != nil {
		return nil, err
	}

	remaining := make(map[string]int, len(g.nodes))
	for id, n := range g.nodes {
		remaining[id] = len(n.deps)
	}

	out := make([]string, 0, len(g.order))
	done := make(map[string]bool, len(g.order))
	for len(out) < len(g.order) {
		// Earliest-inserted ready node wins.
		next := ""
		for _, id := range g.order {
			if !done[id] && remaining[id] == 0 {
				next = id
				break
			}
		}
		done[next] = true
		out = append(out, next)
		for depID := range g.nodes[next].dependents {
			remaining[depID]--
		}
	}
	return out, nil
}

func sortedIDs(m map[string]*node) []string {
	nodes := make([]*node, 0, len(m))
	for _, n := range m {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *node) int { return a.seq - b.seq })
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.id
	}
	return ids
}
