package cmd

import (
	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/fixture"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/tree"
)

// loadFixtures reads every path and merges the results. Later dependencies
// with the same URI replace earlier ones.
func loadFixtures(paths ...string) (*fixture.Fixture, error) {
	merged := &fixture.Fixture{}
	for _, path := range paths {
		f, err := fixture.Load(path)
		if err != nil {
			return nil, err
		}
		merged.Dependencies = append(merged.Dependencies, f.Dependencies...)
		merged.Documents = append(merged.Documents, f.Documents...)
	}
	return merged, nil
}

// findNode returns the node with the given id across docs together with
// the document containing it.
func findNode(id string, docs []*synthetic.Node) (node, doc *synthetic.Node, err error) {
	doc = synthetic.GetVisibleNodeDocument(id, docs)
	if doc == nil {
		return nil, nil, errors.NewValidationError(errors.ErrCodeUnknownNode, "no document contains "+id).WithNode(id)
	}
	node, _ = tree.FindNestedNodeByID(id, doc)
	return node, doc, nil
}
