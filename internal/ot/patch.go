package ot

import (
	"fmt"
	"slices"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/tree"
)

// Patch applies script to root and returns the resulting tree.
//
// root is never mutated. Only nodes on the path from the root to an edited
// node are cloned; every other subtree of the result is shared with root.
// An empty script returns root itself. If any operation fails, Patch returns
// a non-recoverable patch error and no tree.
func Patch(script EditScript, root *synthetic.Node) (*synthetic.Node, error) {
	if len(script) == 0 {
		return root, nil
	}
	if root == nil {
		return nil, errors.NewPatchError(errors.ErrCodeNilTree, "cannot patch a nil tree")
	}

	p := newPatcher(root)
	for i, op := range script {
		if err := p.apply(op); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypePatch, codeOf(err), fmt.Sprintf("operation %d (%s) failed", i, op.Type)).
				WithContext("operation", i)
		}
	}
	return p.root, nil
}

func codeOf(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Code
	}
	return errors.ErrCodeInternalError
}

type patcher struct {
	root   *synthetic.Node
	index  map[string]*synthetic.Node
	parent map[string]string
	// owned holds the clones made by this patcher; they may be mutated.
	owned map[*synthetic.Node]struct{}
}

func newPatcher(root *synthetic.Node) *patcher {
	p := &patcher{
		root:   root,
		index:  make(map[string]*synthetic.Node),
		parent: make(map[string]string),
		owned:  make(map[*synthetic.Node]struct{}),
	}
	p.indexSubtree(root, "", false)
	return p
}

func (p *patcher) indexSubtree(n *synthetic.Node, parentID string, hasParent bool) {
	p.index[n.ID] = n
	if hasParent {
		p.parent[n.ID] = parentID
	}
	for _, child := range n.Children {
		p.indexSubtree(child, n.ID, true)
	}
}

func (p *patcher) unindexSubtree(n *synthetic.Node) {
	tree.Walk(n, func(node *synthetic.Node) bool {
		delete(p.index, node.ID)
		delete(p.parent, node.ID)
		return true
	})
}

// mutable returns a clone of the node with the given id that this patcher
// owns, cloning its ancestors as needed.
func (p *patcher) mutable(id string) (*synthetic.Node, error) {
	n, ok := p.index[id]
	if !ok {
		return nil, errors.ErrUnknownNode(id)
	}
	if _, owned := p.owned[n]; owned {
		return n, nil
	}

	clone := n.Clone()
	p.owned[clone] = struct{}{}
	p.index[id] = clone

	parentID, ok := p.parent[id]
	if !ok {
		p.root = clone
		return clone, nil
	}
	parent, err := p.mutable(parentID)
	if err != nil {
		return nil, err
	}
	i := childIndex(parent, id)
	if i < 0 {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "parent index out of sync", nil).WithNode(id)
	}
	parent.Children[i] = clone
	return clone, nil
}

func childIndex(parent *synthetic.Node, id string) int {
	return slices.IndexFunc(parent.Children, func(c *synthetic.Node) bool {
		return c.ID == id
	})
}

func (p *patcher) apply(op Operation) error {
	switch op.Type {
	case OperationInsert:
		return p.insert(op)
	case OperationRemove:
		return p.remove(op)
	case OperationMove:
		return p.move(op)
	case OperationSet:
		return p.set(op)
	default:
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, fmt.Sprintf("unknown operation type %q", op.Type))
	}
}

func (p *patcher) insert(op Operation) error {
	if op.Node == nil {
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, "insert without a node").WithNode(op.NodeID)
	}
	var duplicate string
	tree.Walk(op.Node, func(n *synthetic.Node) bool {
		if _, exists := p.index[n.ID]; exists && duplicate == "" {
			duplicate = n.ID
		}
		return duplicate == ""
	})
	if duplicate != "" {
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, "insert duplicates an existing id").WithNode(duplicate)
	}

	parent, err := p.mutable(op.ParentID)
	if err != nil {
		return err
	}
	if op.Index < 0 || op.Index > len(parent.Children) {
		return indexError(op, len(parent.Children))
	}
	parent.Children = slices.Insert(parent.Children, op.Index, op.Node)
	p.indexSubtree(op.Node, parent.ID, true)
	return nil
}

func (p *patcher) remove(op Operation) error {
	n, ok := p.index[op.NodeID]
	if !ok {
		return errors.ErrUnknownNode(op.NodeID)
	}
	parentID, ok := p.parent[op.NodeID]
	if !ok {
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, "cannot remove the root").WithNode(op.NodeID)
	}
	parent, err := p.mutable(parentID)
	if err != nil {
		return err
	}
	i := childIndex(parent, op.NodeID)
	parent.Children = slices.Delete(parent.Children, i, i+1)
	p.unindexSubtree(n)
	return nil
}

func (p *patcher) move(op Operation) error {
	n, ok := p.index[op.NodeID]
	if !ok {
		return errors.ErrUnknownNode(op.NodeID)
	}
	fromID, ok := p.parent[op.NodeID]
	if !ok {
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, "cannot move the root").WithNode(op.NodeID)
	}
	if _, ok := p.index[op.ParentID]; !ok {
		return errors.ErrUnknownNode(op.ParentID)
	}
	for ancestor, ok := op.ParentID, true; ok; ancestor, ok = p.parent[ancestor] {
		if ancestor == op.NodeID {
			return errors.NewPatchError(errors.ErrCodeInvalidOperation, "cannot move a node into its own subtree").WithNode(op.NodeID)
		}
	}

	from, err := p.mutable(fromID)
	if err != nil {
		return err
	}
	to, err := p.mutable(op.ParentID)
	if err != nil {
		return err
	}

	i := childIndex(from, op.NodeID)
	from.Children = slices.Delete(from.Children, i, i+1)
	if op.Index < 0 || op.Index > len(to.Children) {
		return indexError(op, len(to.Children))
	}
	to.Children = slices.Insert(to.Children, op.Index, n)
	p.parent[op.NodeID] = to.ID
	return nil
}

func indexError(op Operation, length int) error {
	return errors.NewPatchError(
		errors.ErrCodeInvalidIndex,
		fmt.Sprintf("index %d out of range [0, %d]", op.Index, length),
	).WithNode(op.ParentID)
}

func (p *patcher) set(op Operation) error {
	n, err := p.mutable(op.NodeID)
	if err != nil {
		return err
	}

	switch op.Field {
	case FieldID:
		return p.rename(n, op)
	case FieldKind:
		return assign(&n.Kind, op)
	case FieldName:
		return assign(&n.Name, op)
	case FieldSourceNodeID:
		return assign(&n.SourceNodeID, op)
	case FieldMetadata:
		return assign(&n.Metadata, op)
	case FieldInstancePath:
		return assign(&n.InstancePath, op)
	case FieldClassName:
		return assign(&n.ClassName, op)
	case FieldAttributes:
		return assign(&n.Attributes, op)
	case FieldVariant:
		if v, ok := op.Value.(map[string]bool); ok {
			n.Variant = synthetic.VariantSet(v)
			return nil
		}
		return assign(&n.Variant, op)
	case FieldSheet:
		return assign(&n.Sheet, op)
	case FieldValue:
		return assign(&n.Value, op)
	case FieldStyle:
		return assign(&n.Style, op)
	case FieldOverrides:
		return assign(&n.Overrides, op)
	default:
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, fmt.Sprintf("unknown field %q", op.Field)).WithNode(op.NodeID)
	}
}

// assign stores op.Value in dst. A nil value stores the zero value.
func assign[T any](dst *T, op Operation) error {
	if op.Value == nil {
		var zero T
		*dst = zero
		return nil
	}
	v, ok := op.Value.(T)
	if !ok {
		return errors.NewPatchError(
			errors.ErrCodeInvalidOperation,
			fmt.Sprintf("field %s cannot hold %T", op.Field, op.Value),
		).WithNode(op.NodeID)
	}
	*dst = v
	return nil
}

func (p *patcher) rename(n *synthetic.Node, op Operation) error {
	newID, ok := op.Value.(string)
	if !ok {
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, fmt.Sprintf("id cannot be %T", op.Value)).WithNode(op.NodeID)
	}
	if newID == n.ID {
		return nil
	}
	if _, exists := p.index[newID]; exists {
		return errors.NewPatchError(errors.ErrCodeInvalidOperation, "rename to an existing id").WithNode(newID)
	}

	oldID := n.ID
	n.ID = newID
	delete(p.index, oldID)
	p.index[newID] = n
	if parentID, ok := p.parent[oldID]; ok {
		delete(p.parent, oldID)
		p.parent[newID] = parentID
	}
	for _, child := range n.Children {
		p.parent[child.ID] = newID
	}
	return nil
}
