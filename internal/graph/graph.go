package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/refs"
)

// Graph is a directed dependency graph keyed by fully-qualified block
// addresses. All operations are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all vertices, keyed by block address.
	nodes map[string]*node
}

// node is un-exported to enforce interaction via string addresses, not by
// direct struct manipulation.
type node struct {
	addr string
	// deps holds the addresses this node depends on (its reference targets).
	deps map[string]*node
	// dependents holds the addresses that reference this node.
	dependents map[string]*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// FromEdges builds a graph from an extracted edge list. Both endpoints of
// every edge become vertices; an edge from A to B records that A depends on
// B, whether the edge is a symbolic reference or module containment.
func FromEdges(edges []*refs.Edge) *Graph {
	g := New()
	for _, e := range edges {
		from, to := block.Address(e.From), block.Address(e.To)
		g.AddNode(from)
		g.AddNode(to)
		// Dedup already happened at extraction; a repeated pair is a no-op
		// on the maps anyway.
		_ = g.AddEdge(from, to)
	}
	return g
}

// AddNode adds a vertex for the given address. Adding an existing address
// does nothing.
func (g *Graph) AddNode(addr string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[addr]; ok {
		return
	}

	g.nodes[addr] = &node{
		addr:       addr,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge records that `from` depends on `to`. An error is returned if
// either vertex does not exist or if the edge would be a self-reference.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", from, from)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("source vertex not found: %s", from)
	}

	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("target vertex not found: %s", to)
	}

	fromNode.deps[to] = toNode
	toNode.dependents[from] = fromNode

	return nil
}

// Dependencies returns the sorted addresses the given block depends on.
func (g *Graph) Dependencies(addr string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[addr]
	if !ok {
		return nil, fmt.Errorf("vertex not found: %s", addr)
	}

	deps := make([]string, 0, len(n.deps))
	for dep := range n.deps {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps, nil
}

// Dependents returns the sorted addresses that depend on the given block.
func (g *Graph) Dependents(addr string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[addr]
	if !ok {
		return nil, fmt.Errorf("vertex not found: %s", addr)
	}

	dependents := make([]string, 0, len(n.dependents))
	for dep := range n.dependents {
		dependents = append(dependents, dep)
	}
	sort.Strings(dependents)
	return dependents, nil
}

// Nodes returns every vertex address in sorted order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	addrs := make([]string, 0, len(g.nodes))
	for addr := range g.nodes {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// DetectCycles checks the graph for reference cycles. It returns a non-nil
// error naming the first vertex found inside a cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three node states:
	// permanent: fully visited and known cycle-free.
	// temporary: currently on the recursion stack.
	// unvisited: everything else.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.addr] {
			return nil
		}
		if temporary[n.addr] {
			return fmt.Errorf("reference cycle detected involving %q", n.addr)
		}

		temporary[n.addr] = true

		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		delete(temporary, n.addr)
		permanent[n.addr] = true

		return nil
	}

	for _, n := range g.nodes {
		if !permanent[n.addr] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}

	return nil
}
