package document

import (
	"testing"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/ot"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/testutils"
	"github.com/conneroisu/synthdom/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func find(t *testing.T, id string, root *synthetic.Node) *synthetic.Node {
	t.Helper()
	n, ok := tree.FindNestedNodeByID(id, root)
	require.True(t, ok, "node %s not found", id)
	return n
}

func TestUpsertAppendsNewDocument(t *testing.T) {
	g := testutils.CreateTestGraph()
	doc := testutils.CreateTestDocument()

	docs, script, err := Upsert(doc, nil, g)
	require.NoError(t, err)
	assert.Empty(t, script)
	require.Len(t, docs, 1)
	assert.Same(t, doc, docs[0], "first load stores the document itself")
}

func TestUpsertPreservesUnchangedIdentity(t *testing.T) {
	g := testutils.CreateTestGraph()
	prev := testutils.CreateTestDocument()
	docs := []*synthetic.Node{prev}

	next := testutils.CreateTestDocument()
	find(t, "s-title", next).Value = "Welcome"

	updated, script, err := Upsert(next, docs, g)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	require.Len(t, script, 1)
	assert.Equal(t, `set s-title.value = "Welcome"`, script[0].String())

	result := updated[0]
	assert.True(t, synthetic.Equal(next, result))
	assert.NotSame(t, next, result, "never substituted wholesale")
	assert.NotSame(t, prev, result)
	assert.Same(t, find(t, "s-inst1", prev), find(t, "s-inst1", result))
	assert.Same(t, find(t, "s-inst2", prev), find(t, "s-inst2", result))
	assert.Same(t, find(t, "s-orphan", prev), find(t, "s-orphan", result))

	assert.Same(t, prev, docs[0], "input collection untouched")
	assert.Equal(t, "Title", find(t, "s-title", prev).Value)
}

func TestUpsertUnchangedDocumentKeepsCollection(t *testing.T) {
	docs := []*synthetic.Node{testutils.CreateTestDocument()}

	updated, script, err := Upsert(testutils.CreateTestDocument(), docs, nil)
	require.NoError(t, err)
	assert.Empty(t, script)
	assert.Same(t, docs[0], updated[0])
}

func TestUpsertUnrelatedDocumentLeavesOthersUntouched(t *testing.T) {
	first := testutils.CreateTestDocument()
	docs := []*synthetic.Node{first}

	other := synthetic.NewDocument("m2", synthetic.NewElement("o1", "div", "m2-root", nil))
	updated, _, err := Upsert(other, docs, nil)
	require.NoError(t, err)

	require.Len(t, updated, 2)
	assert.Same(t, first, updated[0])
	assert.Same(t, other, updated[1])
	assert.Len(t, docs, 1)
}

func TestUpsertAppendDoesNotAliasInput(t *testing.T) {
	docs := make([]*synthetic.Node, 1, 4)
	docs[0] = testutils.CreateTestDocument()

	a, _, err := Upsert(synthetic.NewDocument("a"), docs, nil)
	require.NoError(t, err)
	b, _, err := Upsert(synthetic.NewDocument("b"), docs, nil)
	require.NoError(t, err)

	assert.Equal(t, "a", a[1].SourceNodeID)
	assert.Equal(t, "b", b[1].SourceNodeID)
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	docs := []*synthetic.Node{testutils.CreateTestDocument()}

	testCases := []struct {
		name string
		doc  *synthetic.Node
	}{
		{"nil", nil},
		{"not a document", synthetic.NewElement("e", "div", "m1", nil)},
		{"root id changed", &synthetic.Node{Kind: synthetic.KindDocument, ID: "other", SourceNodeID: "m1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			updated, script, err := Upsert(tc.doc, docs, nil)
			require.Error(t, err)
			assert.Nil(t, script)
			assert.Equal(t, docs, updated)
		})
	}
}

func TestCollectionsWithNilEntries(t *testing.T) {
	g := testutils.CreateTestGraph()
	prev := testutils.CreateTestDocument()
	docs := []*synthetic.Node{nil, prev}

	next := testutils.CreateTestDocument()
	find(t, "s-title", next).Value = "Welcome"

	var updated []*synthetic.Node
	var err error
	require.NotPanics(t, func() {
		updated, _, err = Upsert(next, docs, g)
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Nil(t, updated[0])
	assert.Equal(t, "Welcome", find(t, "s-title", updated[1]).Value)

	removed, ok := Remove(prev.SourceNodeID, docs)
	require.True(t, ok)
	assert.Equal(t, []*synthetic.Node{nil}, removed)

	_, ok = Remove("missing", []*synthetic.Node{nil})
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	a := synthetic.NewDocument("a")
	b := synthetic.NewDocument("b")
	docs := []*synthetic.Node{a, b}

	updated, ok := Remove("a", docs)
	require.True(t, ok)
	assert.Equal(t, []*synthetic.Node{b}, updated)
	assert.Equal(t, []*synthetic.Node{a, b}, docs)

	same, ok := Remove("missing", docs)
	assert.False(t, ok)
	assert.Equal(t, docs, same)
}

func TestUpdateVisibleNodeMetadata(t *testing.T) {
	doc := testutils.CreateTestDocument()
	label := find(t, "s-label", doc)
	label.Metadata = map[string]any{"hidden": true, "locked": false}

	updated, err := UpdateVisibleNodeMetadata(map[string]any{"locked": true, "note": "x"}, label, doc)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"hidden": true, "locked": true, "note": "x"}, find(t, "s-label", updated).Metadata)
	assert.Equal(t, map[string]any{"hidden": true, "locked": false}, label.Metadata, "original untouched")
	assert.Same(t, find(t, "s-inst2", doc), find(t, "s-inst2", updated))
}

func TestUpdateVisibleNodeMetadataErrors(t *testing.T) {
	doc := testutils.CreateTestDocument()

	_, err := UpdateVisibleNodeMetadata(nil, doc, doc)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "documents are not visible nodes")

	stranger := synthetic.NewElement("stranger", "div", "x", nil)
	_, err = UpdateVisibleNodeMetadata(map[string]any{"a": 1}, stranger, doc)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePatch))
	assert.Equal(t, "stranger", errors.ExtractNodeID(err))

	_, err = UpdateVisibleNodeMetadata(nil, nil, doc)
	assert.Error(t, err)
}

func TestUpsertMatchesDiffPatch(t *testing.T) {
	prev := testutils.CreateTestDocument()
	next := testutils.CreateTestDocument()
	page := find(t, "s-page", next)
	page.Children = append(page.Children[1:], synthetic.NewText("s-new", "page-title", "New"))

	updated, script, err := Upsert(next, []*synthetic.Node{prev}, nil)
	require.NoError(t, err)

	direct, err := ot.Diff(prev, next)
	require.NoError(t, err)
	assert.Equal(t, direct, script)
	assert.True(t, synthetic.Equal(next, updated[0]))
}
