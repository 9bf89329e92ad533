// Package resolver answers instance and override questions about synthetic
// nodes: which component instances enclose a node, the instance path an
// override must target to reach it, and which overrides apply to an
// instance at a given variant.
//
// Every query is total. Unresolvable source ids (deleted or not yet loaded)
// produce nil, false or an empty slice.
package resolver

import (
	"slices"
	"weak"

	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/memo"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/tree"
)

type key struct {
	node  weak.Pointer[synthetic.Node]
	root  weak.Pointer[synthetic.Node]
	graph weak.Pointer[graph.DependencyGraph]
}

type overridesKey struct {
	key
	variantID string
}

func keyOf(node, root *synthetic.Node, g *graph.DependencyGraph) key {
	return key{node: memo.Ref(node), root: memo.Ref(root), graph: memo.Ref(g)}
}

// Resolver memoizes queries by the identity of their inputs. Synthetic trees
// and graph snapshots are immutable, so a result stays valid while its
// inputs are alive. A Resolver is safe for concurrent use.
type Resolver struct {
	parents   *memo.Cache[key, []*synthetic.Node]
	paths     *memo.Cache[key, []string]
	overrides *memo.Cache[overridesKey, []*graph.Node]
}

// New creates a resolver whose caches hold at most cacheSize entries each.
// A non-positive size selects memo.DefaultSize.
func New(cacheSize int) (*Resolver, error) {
	parents, err := memo.New[key, []*synthetic.Node](cacheSize)
	if err != nil {
		return nil, err
	}
	paths, err := memo.New[key, []string](cacheSize)
	if err != nil {
		return nil, err
	}
	overrides, err := memo.New[overridesKey, []*graph.Node](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{parents: parents, paths: paths, overrides: overrides}, nil
}

// Purge drops every memoized result.
func (r *Resolver) Purge() {
	r.parents.Purge()
	r.paths.Purge()
	r.overrides.Purge()
}

func isComponentOrInstance(g *graph.DependencyGraph) tree.Predicate[*synthetic.Node] {
	return func(n *synthetic.Node) bool {
		return synthetic.IsComponentOrInstance(n, g)
	}
}

// FindClosestParentComponentInstance returns the nearest ancestor of node
// within root whose source is a component or component instance.
func (r *Resolver) FindClosestParentComponentInstance(node, root *synthetic.Node, g *graph.DependencyGraph) *synthetic.Node {
	if node == nil || root == nil {
		return nil
	}
	parent, _ := tree.FindParent(node.ID, root, isComponentOrInstance(g))
	return parent
}

// GetAllParentComponentInstance returns every component or instance
// ancestor of node within root, innermost first.
func (r *Resolver) GetAllParentComponentInstance(node, root *synthetic.Node, g *graph.DependencyGraph) []*synthetic.Node {
	if node == nil || root == nil {
		return nil
	}
	return memo.GetOrCompute(r.parents, node, keyOf(node, root, g), func() []*synthetic.Node {
		return tree.FilterParents(node.ID, root, isComponentOrInstance(g))
	})
}

// FindFurthestParentComponentInstance returns the outermost component or
// instance ancestor of node within root.
func (r *Resolver) FindFurthestParentComponentInstance(node, root *synthetic.Node, g *graph.DependencyGraph) *synthetic.Node {
	instances := r.GetAllParentComponentInstance(node, root, g)
	if len(instances) == 0 {
		return nil
	}
	return instances[len(instances)-1]
}

// GetNearestComponentInstances returns node itself when it is a component
// or instance, followed by its component or instance ancestors.
func (r *Resolver) GetNearestComponentInstances(node, root *synthetic.Node, g *graph.DependencyGraph) []*synthetic.Node {
	instances := r.GetAllParentComponentInstance(node, root, g)
	if synthetic.IsComponentOrInstance(node, g) {
		return append([]*synthetic.Node{node}, instances...)
	}
	return instances
}

// GetSyntheticInstancePath returns the source ids of the instances that
// produced node, outermost first. An override reaches node when its target
// path matches this path.
//
// Enclosing instances are visited innermost first. An instance joins the
// path when the id last added to the path is declared somewhere along the
// instance's extends chain.
func (r *Resolver) GetSyntheticInstancePath(node, root *synthetic.Node, g *graph.DependencyGraph) []string {
	if node == nil || root == nil {
		return nil
	}
	return memo.GetOrCompute(r.paths, node, keyOf(node, root, g), func() []string {
		return r.instancePath(node, root, g)
	})
}

func (r *Resolver) instancePath(node, root *synthetic.Node, g *graph.DependencyGraph) []string {
	path := []string{node.SourceNodeID}

	for _, instance := range r.GetAllParentComponentInstance(node, root, g) {
		source := graph.GetNode(instance.SourceNodeID, g)
		if source == nil {
			continue
		}
		last := path[len(path)-1]

		for current := source; graph.ExtendsComponent(current); {
			current = graph.GetNode(current.Is, g)
			if current == nil {
				break
			}
			if tree.ContainsNestedNodeByID(last, current) {
				path = append(path, source.ID)
				break
			}
		}
	}

	path = path[1:]
	slices.Reverse(path)
	return path
}

// SyntheticNodeIsInShadow reports whether node was produced by expanding a
// component instance. Such nodes cannot be edited directly; edits go
// through overrides.
func (r *Resolver) SyntheticNodeIsInShadow(node, root *synthetic.Node, g *graph.DependencyGraph) bool {
	return len(r.GetSyntheticInstancePath(node, root, g)) > 0
}

// IsSyntheticNodeImmutable is SyntheticNodeIsInShadow.
func (r *Resolver) IsSyntheticNodeImmutable(node, root *synthetic.Node, g *graph.DependencyGraph) bool {
	return r.SyntheticNodeIsInShadow(node, root, g)
}

// GetInheritedAndSelfOverrides returns the overrides that apply to instance
// at variantID ("" is the default variant): the instance's own overrides
// first, then those declared by each ancestor within doc whose target path
// contains the instance's source id, nearest ancestor first.
//
// Consumers apply the result in order with later entries winning, so the
// outermost declaring ancestor has the final say.
func (r *Resolver) GetInheritedAndSelfOverrides(instance, doc *synthetic.Node, g *graph.DependencyGraph, variantID string) []*graph.Node {
	if instance == nil || doc == nil {
		return nil
	}
	k := overridesKey{key: keyOf(instance, doc, g), variantID: variantID}
	return memo.GetOrCompute(r.overrides, instance, k, func() []*graph.Node {
		overrides := slices.Clone(graph.GetVariantOverrides(graph.GetNode(instance.SourceNodeID, g), variantID))

		for _, parent := range tree.FilterParents(instance.ID, doc, tree.Any[*synthetic.Node]) {
			for _, override := range graph.GetOverrides(graph.GetNode(parent.SourceNodeID, g)) {
				if override.VariantID == variantID && override.Targets(instance.SourceNodeID) {
					overrides = append(overrides, override)
				}
			}
		}
		return overrides
	})
}

// FindInstanceOfSourceNode returns the first synthetic node, across docs in
// order, rendered from source.
func FindInstanceOfSourceNode(source *graph.Node, docs []*synthetic.Node) *synthetic.Node {
	if source == nil {
		return nil
	}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		found, ok := tree.FindNestedNode(doc, func(n *synthetic.Node) bool {
			return n.SourceNodeID == source.ID
		})
		if ok {
			return found
		}
	}
	return nil
}

// MergeOverrideAttributes applies the attribute overrides in order, later
// entries winning, and returns the merged attributes.
func MergeOverrideAttributes(overrides []*graph.Node) map[string]string {
	merged := make(map[string]string)
	for _, override := range overrides {
		if override == nil {
			continue
		}
		if override.Property != graph.PropertyAttributes && override.Property != "" {
			continue
		}
		for name, value := range override.Attributes {
			merged[name] = value
		}
	}
	return merged
}
