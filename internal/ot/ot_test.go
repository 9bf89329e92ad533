package ot

import (
	"testing"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/testutils"
	"github.com/conneroisu/synthdom/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func div(id string, children ...*synthetic.Node) *synthetic.Node {
	return synthetic.NewElement(id, "div", "src-"+id, nil, children...)
}

// roundTrip diffs prev against next, checks the patched result and that prev
// was left untouched, and returns the script.
func roundTrip(t *testing.T, prev, next *synthetic.Node) EditScript {
	t.Helper()
	before := synthetic.Stringify(prev)

	script, err := Diff(prev, next)
	require.NoError(t, err)

	patched, err := Patch(script, prev)
	require.NoError(t, err)
	assert.True(t, synthetic.Equal(next, patched), "patched tree differs:\n%s\nwant:\n%s", synthetic.Stringify(patched), synthetic.Stringify(next))
	assert.Equal(t, before, synthetic.Stringify(prev), "patch mutated its input")
	return script
}

func TestDiffIdenticalTrees(t *testing.T) {
	a := testutils.CreateTestDocument()
	b := testutils.CreateTestDocument()

	script, err := Diff(a, b)
	require.NoError(t, err)
	assert.Empty(t, script)

	patched, err := Patch(script, a)
	require.NoError(t, err)
	assert.Same(t, a, patched)
}

func TestDiffRejectsMismatchedRoots(t *testing.T) {
	_, err := Diff(div("a"), div("b"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDiff))

	_, err = Diff(nil, div("b"))
	require.Error(t, err)
}

func TestDiffChildReorder(t *testing.T) {
	prev := div("r", div("a"), div("b"), div("c"))
	next := div("r", div("c"), div("a"), div("d"))

	script := roundTrip(t, prev, next)
	require.Len(t, script, 3)
	assert.Equal(t, Operation{Type: OperationRemove, NodeID: "b", ParentID: "r", Index: 1}, script[0])
	assert.Equal(t, Operation{Type: OperationMove, NodeID: "c", ParentID: "r", Index: 0}, script[1])
	assert.Equal(t, OperationInsert, script[2].Type)
	assert.Equal(t, "d", script[2].NodeID)
	assert.Equal(t, 2, script[2].Index)

	assert.Equal(t, Stats{Inserts: 1, Removes: 1, Moves: 1}, script.Stats())
	assert.Equal(t, 3, script.Stats().Total())
}

func TestDiffRemovesComeFirst(t *testing.T) {
	prev := div("r", div("p1", div("x"), div("y")), div("p2", div("z")))
	next := div("r", div("p2", div("w")), div("p1", div("y")))

	script := roundTrip(t, prev, next)
	seenOther := false
	for _, op := range script {
		if op.Type != OperationRemove {
			seenOther = true
			continue
		}
		assert.False(t, seenOther, "remove %s after a non-remove", op.NodeID)
	}
}

func TestDiffRename(t *testing.T) {
	prev := div("r", div("x"))
	renamed := div("y")
	renamed.SourceNodeID = "src-x"
	renamed.ClassName = "k"
	next := div("r", renamed)

	script := roundTrip(t, prev, next)
	require.Len(t, script, 2)
	assert.Equal(t, Operation{Type: OperationSet, NodeID: "x", Field: FieldID, Value: "y"}, script[0])
	assert.Equal(t, Operation{Type: OperationSet, NodeID: "y", Field: FieldClassName, Value: "k"}, script[1])
}

func TestDiffDoesNotRenameAcrossKinds(t *testing.T) {
	prev := div("r", div("a"))
	next := div("r", synthetic.NewText("a", "src-a", "hello"))

	script := roundTrip(t, prev, next)
	require.Len(t, script, 2)
	assert.Equal(t, OperationRemove, script[0].Type)
	assert.Equal(t, OperationInsert, script[1].Type)
}

func TestDiffMoveAcrossParents(t *testing.T) {
	prev := div("r", div("p1", div("x")), div("p2"))
	next := div("r", div("p1"), div("p2", div("x")))

	script := roundTrip(t, prev, next)
	require.Len(t, script, 2)
	assert.Equal(t, "remove x", script[0].String())
	assert.Equal(t, "insert x into p2 at 0", script[1].String())
}

func TestDiffFieldSets(t *testing.T) {
	prev := testutils.CreateTestDocument()
	next := testutils.CreateTestDocument()

	page := next.Children[0]
	page.Attributes = map[string]string{"id": "page", "lang": "en"}
	title, ok := tree.FindNestedNodeByID("s-title", next)
	require.True(t, ok)
	title.Value = "Welcome"
	inst, ok := tree.FindNestedNodeByID("s-inst1", next)
	require.True(t, ok)
	inst.Variant = nil

	script := roundTrip(t, prev, next)
	assert.Equal(t, EditScript{
		{Type: OperationSet, NodeID: "s-page", Field: FieldAttributes, Value: page.Attributes},
		{Type: OperationSet, NodeID: "s-title", Field: FieldValue, Value: "Welcome"},
		{Type: OperationSet, NodeID: "s-inst1", Field: FieldVariant, Value: synthetic.VariantSet(nil)},
	}, script)
	assert.Equal(t, `set s-title.value = "Welcome"`, script[1].String())
}

func TestPatchSharesUntouchedSubtrees(t *testing.T) {
	prev := testutils.CreateTestDocument()

	patched, err := Patch(EditScript{
		{Type: OperationSet, NodeID: "s-text", Field: FieldValue, Value: "Press"},
	}, prev)
	require.NoError(t, err)

	assert.NotSame(t, prev, patched)
	assert.NotSame(t, prev.Children[0], patched.Children[0])

	for _, id := range []string{"s-title", "s-inst2", "s-card-label", "s-orphan"} {
		before, _ := tree.FindNestedNodeByID(id, prev)
		after, _ := tree.FindNestedNodeByID(id, patched)
		assert.Same(t, before, after, "%s should be shared", id)
	}
	for _, id := range []string{"s-page", "s-inst1", "s-label", "s-text"} {
		before, _ := tree.FindNestedNodeByID(id, prev)
		after, _ := tree.FindNestedNodeByID(id, patched)
		assert.NotSame(t, before, after, "%s should be cloned", id)
	}

	text, _ := tree.FindNestedNodeByID("s-text", patched)
	assert.Equal(t, "Press", text.Value)
	original, _ := tree.FindNestedNodeByID("s-text", prev)
	assert.Equal(t, "Click", original.Value)
}

func TestPatchErrors(t *testing.T) {
	testCases := []struct {
		name string
		op   Operation
		code string
	}{
		{"unknown node", Operation{Type: OperationSet, NodeID: "missing", Field: FieldValue, Value: "x"}, errors.ErrCodeUnknownNode},
		{"unknown parent", Operation{Type: OperationInsert, NodeID: "n", ParentID: "missing", Node: div("n")}, errors.ErrCodeUnknownNode},
		{"remove root", Operation{Type: OperationRemove, NodeID: "r"}, errors.ErrCodeInvalidOperation},
		{"index out of range", Operation{Type: OperationInsert, NodeID: "n", ParentID: "r", Index: 9, Node: div("n")}, errors.ErrCodeInvalidIndex},
		{"duplicate insert", Operation{Type: OperationInsert, NodeID: "a", ParentID: "r", Node: div("a")}, errors.ErrCodeInvalidOperation},
		{"move into own subtree", Operation{Type: OperationMove, NodeID: "a", ParentID: "a1"}, errors.ErrCodeInvalidOperation},
		{"wrong value type", Operation{Type: OperationSet, NodeID: "a", Field: FieldAttributes, Value: 42}, errors.ErrCodeInvalidOperation},
		{"unknown field", Operation{Type: OperationSet, NodeID: "a", Field: "color", Value: "red"}, errors.ErrCodeInvalidOperation},
		{"rename collision", Operation{Type: OperationSet, NodeID: "a", Field: FieldID, Value: "b"}, errors.ErrCodeInvalidOperation},
		{"unknown type", Operation{Type: "swap", NodeID: "a"}, errors.ErrCodeInvalidOperation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := div("r", div("a", div("a1")), div("b"))
			before := synthetic.Stringify(root)

			patched, err := Patch(EditScript{
				{Type: OperationSet, NodeID: "b", Field: FieldClassName, Value: "first"},
				tc.op,
			}, root)
			require.Error(t, err)
			assert.Nil(t, patched, "no partial tree on failure")
			assert.Equal(t, before, synthetic.Stringify(root))

			assert.True(t, errors.IsType(err, errors.ErrorTypePatch))
			assert.False(t, errors.IsRecoverable(err))
			assert.ErrorIs(t, err, &errors.Error{Type: errors.ErrorTypePatch, Code: tc.code})
		})
	}
}

func TestPatchMoveAndRename(t *testing.T) {
	root := div("r", div("a", div("a1")), div("b"))

	patched, err := Patch(EditScript{
		{Type: OperationSet, NodeID: "a", Field: FieldID, Value: "z"},
		{Type: OperationMove, NodeID: "a1", ParentID: "b", Index: 0},
		{Type: OperationSet, NodeID: "a1", Field: FieldClassName, Value: "moved"},
		{Type: OperationMove, NodeID: "b", ParentID: "r", Index: 0},
	}, root)
	require.NoError(t, err)

	expected := div("r", div("b", div("a1")), div("a"))
	expected.Children[1].ID = "z"
	expected.Children[0].Children[0].ClassName = "moved"
	assert.True(t, synthetic.Equal(expected, patched), synthetic.Stringify(patched))
}

func TestPatchEmptyScriptReturnsInput(t *testing.T) {
	root := div("r")
	patched, err := Patch(nil, root)
	require.NoError(t, err)
	assert.Same(t, root, patched)
}

func TestEditScriptString(t *testing.T) {
	script := EditScript{
		{Type: OperationInsert, NodeID: "n", ParentID: "r", Index: 1},
		{Type: OperationRemove, NodeID: "m", ParentID: "r"},
		{Type: OperationMove, NodeID: "o", ParentID: "r", Index: 0},
		{Type: OperationSet, NodeID: "o", Field: FieldKind, Value: synthetic.KindText},
	}
	assert.Equal(t, "insert n into r at 1\nremove m\nmove o to r at 0\nset o.kind = text\n", script.String())
}
