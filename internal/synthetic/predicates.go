package synthetic

import (
	"reflect"
	"slices"

	"github.com/conneroisu/synthdom/internal/graph"
)

// IsDocument reports whether n is a synthetic document.
func IsDocument(n *Node) bool {
	return n != nil && n.Kind == KindDocument
}

// IsElement reports whether n is an element, including instance elements.
func IsElement(n *Node) bool {
	return n != nil && n.Kind == KindElement
}

// IsTextNode reports whether n is a text node.
func IsTextNode(n *Node) bool {
	return n != nil && n.Kind == KindText
}

// IsFragment reports whether n is a fragment.
func IsFragment(n *Node) bool {
	return n != nil && n.Kind == KindFragment
}

// IsVisibleNode reports whether n renders something on its own: an element
// or a text node with a source id.
func IsVisibleNode(n *Node) bool {
	if n == nil || n.SourceNodeID == "" || n.Name == "" {
		return false
	}
	switch n.Kind {
	case KindElement, KindText:
		return true
	default:
		return false
	}
}

// IsInstanceElement reports whether n is an element rendered from a
// component instance, i.e. it carries variant flags.
func IsInstanceElement(n *Node) bool {
	return IsElement(n) && n.Variant != nil
}

// IsContentNode reports whether the source of n is listed directly in its
// owning module's top-level children.
func IsContentNode(n *Node, g *graph.DependencyGraph) bool {
	source := GetSourceNode(n, g)
	if source == nil {
		return false
	}
	module := graph.GetNodeModule(source.ID, g)
	if module == nil {
		return false
	}
	return slices.Contains(module.Children, source)
}

// IsRootOfItsFrame reports whether the source of n is the first child of the
// content node (frame) that contains it.
func IsRootOfItsFrame(n *Node, g *graph.DependencyGraph) bool {
	frame := GetSourceFrame(n, g)
	if frame == nil || len(frame.Children) == 0 {
		return false
	}
	return frame.Children[0].ID == n.SourceNodeID
}

// IsComponentOrInstance reports whether n was rendered from a component or a
// component instance. A source node missing from the graph yields false.
func IsComponentOrInstance(n *Node, g *graph.DependencyGraph) bool {
	source := GetSourceNode(n, g)
	if source == nil {
		return false
	}
	return source.Name == graph.TagComponent || source.Name == graph.TagComponentInstance
}

// MetadataEqual compares two metadata maps value by value.
func MetadataEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}
