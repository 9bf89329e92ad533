// Package graph provides read-only queries over a dependency graph of parsed
// template modules.
//
// The graph itself is produced by an external loader. Synthetic nodes only
// hold source ids, so every query here takes the graph snapshot explicitly
// and every query fails soft: a missing id yields nil, false or an empty
// slice, never an error. Live editing routinely references source nodes
// that were just deleted.
package graph

import "slices"

// Source tag names.
const (
	TagModule            = "module"
	TagComponent         = "component"
	TagComponentInstance = "component-instance"
	TagElement           = "element"
	TagText              = "text"
	TagStyleMixin        = "style-mixin"
	TagOverride          = "override"
	TagVariant           = "variant"
)

// OverrideProperty names what an override modifies.
type OverrideProperty string

const (
	PropertyAttributes OverrideProperty = "attributes"
	PropertyStyle      OverrideProperty = "style"
	PropertyText       OverrideProperty = "text"
	PropertyChildren   OverrideProperty = "children"
	PropertyVariant    OverrideProperty = "variant"
)

// Node is a node of a parsed template module.
type Node struct {
	ID string `json:"id" yaml:"id"`
	// Name is the source tag (see the Tag constants).
	Name string `json:"name" yaml:"name"`
	// TagName is the native element tag for elements (div, span, ...).
	TagName string `json:"tagName,omitempty" yaml:"tagName,omitempty"`
	// Is references the id of the component a component or instance
	// extends. Empty when the node does not extend a component.
	Is string `json:"is,omitempty" yaml:"is,omitempty"`

	// Override fields. VariantID "" is the default variant.
	VariantID    string           `json:"variantId,omitempty" yaml:"variantId,omitempty"`
	TargetIDPath []string         `json:"targetIdPath,omitempty" yaml:"targetIdPath,omitempty"`
	Property     OverrideProperty `json:"property,omitempty" yaml:"property,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Text       string            `json:"text,omitempty" yaml:"text,omitempty"`
	Children   []*Node           `json:"children,omitempty" yaml:"children,omitempty"`
}

// NodeID implements tree.Node.
func (n *Node) NodeID() string {
	if n == nil {
		return ""
	}
	return n.ID
}

// NodeChildren implements tree.Node.
func (n *Node) NodeChildren() []*Node {
	if n == nil {
		return nil
	}
	return n.Children
}

// IsOverride reports whether n declares an override.
func (n *Node) IsOverride() bool {
	return n != nil && n.Name == TagOverride
}

// Targets reports whether the override's target path goes through id.
func (n *Node) Targets(id string) bool {
	return n != nil && slices.Contains(n.TargetIDPath, id)
}

// ExtendsComponent reports whether n is a component or component instance
// that extends another component through Is.
func ExtendsComponent(n *Node) bool {
	if n == nil || n.Is == "" {
		return false
	}
	return n.Name == TagComponent || n.Name == TagComponentInstance
}

// GetOverrides returns the overrides declared directly on n, in source order.
func GetOverrides(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var overrides []*Node
	for _, child := range n.Children {
		if child.IsOverride() {
			overrides = append(overrides, child)
		}
	}
	return overrides
}

// GetVariantOverrides returns the overrides declared directly on an instance
// node for the given variant. The default variant is "".
func GetVariantOverrides(instance *Node, variantID string) []*Node {
	var overrides []*Node
	for _, override := range GetOverrides(instance) {
		if override.VariantID == variantID {
			overrides = append(overrides, override)
		}
	}
	return overrides
}
