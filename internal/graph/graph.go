package graph

import (
	"maps"
	"slices"

	"github.com/conneroisu/synthdom/internal/tree"
)

// Dependency is one loaded file: its URI and its parsed module.
type Dependency struct {
	URI     string `json:"uri" yaml:"uri"`
	Content *Node  `json:"module" yaml:"module"`
}

type nodeRef struct {
	node       *Node
	dependency *Dependency
}

// DependencyGraph is an immutable snapshot of every loaded dependency,
// indexed by node id. Reloading a file produces a new snapshot through With
// or Without; existing snapshots are never modified.
type DependencyGraph struct {
	dependencies map[string]*Dependency
	index        map[string]nodeRef
}

// NewDependencyGraph builds a snapshot from the given dependencies. A later
// dependency with the same URI replaces an earlier one.
func NewDependencyGraph(deps ...*Dependency) *DependencyGraph {
	g := &DependencyGraph{
		dependencies: make(map[string]*Dependency, len(deps)),
	}
	for _, dep := range deps {
		if dep == nil {
			continue
		}
		g.dependencies[dep.URI] = dep
	}
	g.reindex()
	return g
}

func (g *DependencyGraph) reindex() {
	g.index = make(map[string]nodeRef)
	for _, uri := range slices.Sorted(maps.Keys(g.dependencies)) {
		dep := g.dependencies[uri]
		if dep.Content == nil {
			continue
		}
		tree.Walk(dep.Content, func(n *Node) bool {
			if _, exists := g.index[n.ID]; !exists {
				g.index[n.ID] = nodeRef{node: n, dependency: dep}
			}
			return true
		})
	}
}

// With returns a new snapshot with dep added or replaced.
func (g *DependencyGraph) With(dep *Dependency) *DependencyGraph {
	if dep == nil {
		return g
	}
	deps := g.Dependencies()
	deps = slices.DeleteFunc(deps, func(d *Dependency) bool { return d.URI == dep.URI })
	return NewDependencyGraph(append(deps, dep)...)
}

// Without returns a new snapshot with the dependency at uri removed.
func (g *DependencyGraph) Without(uri string) *DependencyGraph {
	deps := g.Dependencies()
	deps = slices.DeleteFunc(deps, func(d *Dependency) bool { return d.URI == uri })
	return NewDependencyGraph(deps...)
}

// Dependencies returns the loaded dependencies sorted by URI.
func (g *DependencyGraph) Dependencies() []*Dependency {
	if g == nil {
		return nil
	}
	deps := make([]*Dependency, 0, len(g.dependencies))
	for _, uri := range slices.Sorted(maps.Keys(g.dependencies)) {
		deps = append(deps, g.dependencies[uri])
	}
	return deps
}

// Dependency returns the dependency loaded from uri.
func (g *DependencyGraph) Dependency(uri string) *Dependency {
	if g == nil {
		return nil
	}
	return g.dependencies[uri]
}

// Len returns the number of loaded dependencies.
func (g *DependencyGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.dependencies)
}

// GetNode returns the source node with the given id, or nil.
func GetNode(id string, g *DependencyGraph) *Node {
	if g == nil {
		return nil
	}
	return g.index[id].node
}

// GetNodeDependency returns the dependency that owns the node with the given
// id, or nil.
func GetNodeDependency(id string, g *DependencyGraph) *Dependency {
	if g == nil {
		return nil
	}
	return g.index[id].dependency
}

// GetNodeModule returns the module that contains the node with the given id.
func GetNodeModule(id string, g *DependencyGraph) *Node {
	dep := GetNodeDependency(id, g)
	if dep == nil {
		return nil
	}
	return dep.Content
}

// GetNodeContentNode returns the top-level child of content (a module) that
// is, or contains, the node with the given id.
func GetNodeContentNode(id string, content *Node) *Node {
	if content == nil {
		return nil
	}
	for _, child := range content.Children {
		if tree.ContainsNestedNodeByID(id, child) {
			return child
		}
	}
	return nil
}
