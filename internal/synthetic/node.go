// Package synthetic models the rendered output of template modules as a tree
// of synthetic nodes.
//
// A synthetic document is produced by the template evaluator for one source
// module. Every node keeps only the id of the source node it was rendered
// from; the source graph is passed explicitly to every query that needs it.
// Nodes are treated as immutable once built: updates go through the ot
// package, which clones the changed path and shares everything else.
package synthetic

import (
	"fmt"
	"maps"
	"slices"
)

// DocumentNodeName is the Name of every synthetic document.
const DocumentNodeName = "document"

// TextNodeName is the Name of every synthetic text node.
const TextNodeName = "text"

// DocumentIDPrefix prefixes the id of a document derived from its source id.
const DocumentIDPrefix = "synthetic-dom-"

// Kind discriminates synthetic node variants.
type Kind uint8

const (
	KindDocument Kind = iota + 1
	KindElement
	KindText
	KindFragment
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k == 0 {
		return []byte{}, nil
	}
	if k.String() == "unknown" {
		return nil, fmt.Errorf("unknown node kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*k = 0
	case "document":
		*k = KindDocument
	case "element":
		*k = KindElement
	case "text":
		*k = KindText
	case "fragment":
		*k = KindFragment
	default:
		return fmt.Errorf("unknown node kind %q", text)
	}
	return nil
}

// VariantSet maps variant ids to whether they are active. A nil set and
// an empty set are distinct: only instance elements carry one.
type VariantSet map[string]bool

// IsZero reports whether s is nil. Encoders consult it for omitempty and
// omitzero, so empty sets are still written.
func (s VariantSet) IsZero() bool {
	return s == nil
}

// Node is a synthetic document, element, text node or fragment.
//
// Fields that do not apply to a kind stay at their zero value. An element
// with a non-nil Variant is a component instance element. A node with a
// non-nil Sheet is a content node carrying its module's top-level styles.
type Node struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	SourceNodeID string         `json:"sourceNodeId" yaml:"sourceNodeId"`
	Metadata     map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// InstancePath lists, dot separated, the source ids of the component
	// instances this node was expanded through. Empty for directly
	// authored nodes.
	InstancePath string `json:"instancePath,omitempty" yaml:"instancePath,omitempty"`

	ClassName  string            `json:"className,omitempty" yaml:"className,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Sheet      *StyleSheet       `json:"sheet,omitempty" yaml:"sheet,omitempty"`

	// Variant is omitted only when nil, so an empty variant set survives
	// every encoding.
	Variant VariantSet `json:"variant,omitzero" yaml:"variant,omitempty" cbor:"variant"`

	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	// Deprecated: inline styles on text nodes predate style sheets.
	Style map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
	// Overrides holds the ids of override declarations that older
	// evaluators attached as children of elements and text nodes.
	Overrides []string `json:"overrides,omitempty" yaml:"overrides,omitempty"`

	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
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

// Clone returns a shallow copy of n with its own children slice. Field maps
// are shared; they are never mutated in place.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Children = slices.Clone(n.Children)
	return &clone
}

// StyleSheet is the evaluated style sheet attached to a content node.
type StyleSheet struct {
	Rules []StyleRule `json:"rules" yaml:"rules"`
}

// StyleRule is one style rule of a sheet.
type StyleRule struct {
	Selector     string        `json:"selector" yaml:"selector"`
	Declarations []Declaration `json:"declarations,omitempty" yaml:"declarations,omitempty"`
}

// Declaration is a single property: value pair.
type Declaration struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Equal reports whether two sheets hold the same rules.
func (s *StyleSheet) Equal(other *StyleSheet) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.EqualFunc(s.Rules, other.Rules, func(a, b StyleRule) bool {
		return a.Selector == b.Selector && slices.Equal(a.Declarations, b.Declarations)
	})
}

// String renders the sheet as CSS text.
func (s *StyleSheet) String() string {
	if s == nil {
		return ""
	}
	var buf []byte
	for _, rule := range s.Rules {
		buf = fmt.Appendf(buf, "%s {", rule.Selector)
		for _, decl := range rule.Declarations {
			buf = fmt.Appendf(buf, " %s: %s;", decl.Name, decl.Value)
		}
		buf = append(buf, " }\n"...)
	}
	return string(buf)
}

// DocumentID returns the id of the document rendered from sourceNodeID.
func DocumentID(sourceNodeID string) string {
	return DocumentIDPrefix + sourceNodeID
}

// NewDocument creates a document for the module with the given source id.
func NewDocument(sourceNodeID string, children ...*Node) *Node {
	return &Node{
		Kind:         KindDocument,
		ID:           DocumentID(sourceNodeID),
		Name:         DocumentNodeName,
		SourceNodeID: sourceNodeID,
		Children:     children,
	}
}

// NewElement creates an element node.
func NewElement(id, name, sourceNodeID string, attributes map[string]string, children ...*Node) *Node {
	return &Node{
		Kind:         KindElement,
		ID:           id,
		Name:         name,
		SourceNodeID: sourceNodeID,
		Attributes:   attributes,
		Children:     children,
	}
}

// NewText creates a text node.
func NewText(id, sourceNodeID, value string) *Node {
	return &Node{
		Kind:         KindText,
		ID:           id,
		Name:         TextNodeName,
		SourceNodeID: sourceNodeID,
		Value:        value,
	}
}

// NewFragment creates a fragment whose children render without a wrapper.
func NewFragment(id, sourceNodeID string, children ...*Node) *Node {
	return &Node{
		Kind:         KindFragment,
		ID:           id,
		Name:         "fragment",
		SourceNodeID: sourceNodeID,
		Children:     children,
	}
}

// Equal reports whether a and b are structurally identical. Nil and empty
// maps or slices compare equal, except Variant, whose presence marks an
// instance element.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if !FieldsEqual(a, b) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// FieldsEqual compares every field of a and b except Children.
func FieldsEqual(a, b *Node) bool {
	return a.Kind == b.Kind &&
		a.ID == b.ID &&
		a.Name == b.Name &&
		a.SourceNodeID == b.SourceNodeID &&
		a.InstancePath == b.InstancePath &&
		a.ClassName == b.ClassName &&
		a.Value == b.Value &&
		maps.Equal(a.Attributes, b.Attributes) &&
		(a.Variant == nil) == (b.Variant == nil) &&
		maps.Equal(a.Variant, b.Variant) &&
		maps.Equal(a.Style, b.Style) &&
		slices.Equal(a.Overrides, b.Overrides) &&
		a.Sheet.Equal(b.Sheet) &&
		MetadataEqual(a.Metadata, b.Metadata)
}
