// Package document maintains the collection of synthetic documents.
//
// The collection is copy-on-write: every operation returns a new slice and
// leaves its input untouched. Re-evaluated documents are never swapped in
// wholesale; they are diffed against the stored version and patched in, so
// nodes whose subtree did not change keep their identity across reloads.
package document

import (
	"maps"
	"slices"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/ot"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/tree"
)

// Upsert adds newDoc to docs, or patches it into the stored document with
// the same source node id. g is the graph newDoc was evaluated against.
//
// The returned script is empty when newDoc was appended or did not change
// anything. On error docs is returned unchanged.
func Upsert(newDoc *synthetic.Node, docs []*synthetic.Node, g *graph.DependencyGraph) ([]*synthetic.Node, ot.EditScript, error) {
	if newDoc == nil {
		return docs, nil, errors.NewValidationError(errors.ErrCodeNilTree, "cannot upsert a nil document")
	}
	if !synthetic.IsDocument(newDoc) {
		return docs, nil, errors.NewValidationError(errors.ErrCodeInvalidOperation,
			"cannot upsert a "+newDoc.Kind.String()+" node as a document").WithNode(newDoc.ID)
	}

	i := indexOf(newDoc.SourceNodeID, docs)
	if i < 0 {
		return append(slices.Clip(docs), newDoc), nil, nil
	}

	old := docs[i]
	script, err := ot.Diff(old, newDoc)
	if err != nil {
		return docs, nil, errors.EnhanceError(err, "diff", newDoc.ID)
	}
	patched, err := ot.Patch(script, old)
	if err != nil {
		return docs, nil, errors.EnhanceError(err, "patch", newDoc.ID)
	}
	if patched == old {
		return docs, script, nil
	}

	updated := slices.Clone(docs)
	updated[i] = patched
	return updated, script, nil
}

// Remove drops the document rendered from sourceNodeID. It reports false,
// and returns docs itself, when no such document exists.
func Remove(sourceNodeID string, docs []*synthetic.Node) ([]*synthetic.Node, bool) {
	i := indexOf(sourceNodeID, docs)
	if i < 0 {
		return docs, false
	}
	return slices.Delete(slices.Clone(docs), i, i+1), true
}

// UpdateVisibleNodeMetadata merges metadata onto node and returns the
// patched document. Keys in metadata replace existing keys; other keys are
// kept. doc is not modified.
func UpdateVisibleNodeMetadata(metadata map[string]any, node, doc *synthetic.Node) (*synthetic.Node, error) {
	if node == nil || doc == nil {
		return nil, errors.NewValidationError(errors.ErrCodeNilTree, "node and document are required")
	}
	if !synthetic.IsVisibleNode(node) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidOperation,
			node.Kind.String()+" nodes carry no visible metadata").WithNode(node.ID)
	}
	if !tree.ContainsNestedNodeByID(node.ID, doc) {
		return nil, errors.ErrUnknownNode(node.ID)
	}

	merged := maps.Clone(node.Metadata)
	if merged == nil {
		merged = make(map[string]any, len(metadata))
	}
	maps.Copy(merged, metadata)

	return ot.Patch(ot.EditScript{{
		Type:   ot.OperationSet,
		NodeID: node.ID,
		Field:  ot.FieldMetadata,
		Value:  merged,
	}}, doc)
}

func indexOf(sourceNodeID string, docs []*synthetic.Node) int {
	return slices.IndexFunc(docs, func(doc *synthetic.Node) bool {
		return doc != nil && doc.SourceNodeID == sourceNodeID
	})
}
