package synthetic

import (
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/tree"
)

// GetSourceNode returns the source node n was rendered from, or nil when it
// is no longer in the graph.
func GetSourceNode(n *Node, g *graph.DependencyGraph) *graph.Node {
	if n == nil {
		return nil
	}
	return graph.GetNode(n.SourceNodeID, g)
}

// GetSourceFrame returns the top-level source node (frame) that contains the
// source of n.
func GetSourceFrame(n *Node, g *graph.DependencyGraph) *graph.Node {
	if n == nil {
		return nil
	}
	dep := graph.GetNodeDependency(n.SourceNodeID, g)
	if dep == nil {
		return nil
	}
	return graph.GetNodeContentNode(n.SourceNodeID, dep.Content)
}

// GetNodeSourceDependency returns the dependency that owns the source of n.
func GetNodeSourceDependency(n *Node, g *graph.DependencyGraph) *graph.Dependency {
	if n == nil {
		return nil
	}
	return graph.GetNodeDependency(n.SourceNodeID, g)
}

// GetSourceURI returns the URI of the file n was rendered from, or "".
func GetSourceURI(n *Node, g *graph.DependencyGraph) string {
	dep := GetNodeSourceDependency(n, g)
	if dep == nil {
		return ""
	}
	return dep.URI
}

// GetDocumentDependencyURI returns the URI of the file a document renders.
func GetDocumentDependencyURI(doc *Node, g *graph.DependencyGraph) string {
	return GetSourceURI(doc, g)
}

// GetDocumentByDependencyURI returns the document rendered from the file at
// uri.
func GetDocumentByDependencyURI(uri string, docs []*Node, g *graph.DependencyGraph) *Node {
	for _, doc := range docs {
		dep := graph.GetNodeDependency(doc.SourceNodeID, g)
		if dep != nil && dep.URI == uri {
			return doc
		}
	}
	return nil
}

// GetDocumentBySourceNodeID returns the document rendered from the module
// with the given source id.
func GetDocumentBySourceNodeID(sourceNodeID string, docs []*Node) *Node {
	for _, doc := range docs {
		if doc.SourceNodeID == sourceNodeID {
			return doc
		}
	}
	return nil
}

// GetVisibleNodeDocument returns the document that contains the node with
// the given id.
func GetVisibleNodeDocument(id string, docs []*Node) *Node {
	for _, doc := range docs {
		if tree.ContainsNestedNodeByID(id, doc) {
			return doc
		}
	}
	return nil
}

// GetNodeByID looks a node up across all documents.
func GetNodeByID(id string, docs []*Node) *Node {
	doc := GetVisibleNodeDocument(id, docs)
	if doc == nil {
		return nil
	}
	n, _ := tree.FindNestedNodeByID(id, doc)
	return n
}

// GetContentNode returns the top-level child of n's document that is, or
// contains, n.
func GetContentNode(n *Node, docs []*Node) *Node {
	if n == nil {
		return nil
	}
	doc := GetVisibleNodeDocument(n.ID, docs)
	if doc == nil {
		return nil
	}
	for _, content := range doc.Children {
		if tree.ContainsNestedNodeByID(n.ID, content) {
			return content
		}
	}
	return nil
}

// SourceKey returns the key of n in a source map: its instance path followed
// by its source id.
func SourceKey(n *Node) string {
	if n.InstancePath == "" {
		return n.SourceNodeID
	}
	return n.InstancePath + "." + n.SourceNodeID
}

// SourceMap maps the source key of every node under root to its synthetic
// id. When two nodes share a key, the later one in pre-order wins.
func SourceMap(root *Node) map[string]string {
	m := make(map[string]string)
	if root == nil {
		return m
	}
	tree.Walk(root, func(n *Node) bool {
		m[SourceKey(n)] = n.ID
		return true
	})
	return m
}

// DocumentsSourceMap merges the source maps of all documents.
func DocumentsSourceMap(docs []*Node) map[string]string {
	m := make(map[string]string)
	for _, doc := range docs {
		for key, id := range SourceMap(doc) {
			m[key] = id
		}
	}
	return m
}
