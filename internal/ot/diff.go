package ot

import (
	"maps"
	"slices"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/tree"
)

// Diff returns the edit script that turns prev into next.
//
// Both trees must share their root id. Children are paired by id when the
// kinds agree; an unpaired old child is also paired with the unpaired new
// child at the same position when neither id occurs in the other tree and
// their kind and name agree, which yields a rename. All removes come first,
// then, walking next in pre-order, each node's field sets, the renames of its
// children, and the moves and inserts that put its children in order.
// Identical trees produce an empty script.
func Diff(prev, next *synthetic.Node) (EditScript, error) {
	if prev == nil || next == nil {
		return nil, errors.NewDiffError(errors.ErrCodeNilTree, "cannot diff a nil tree")
	}
	if prev.ID != next.ID {
		return nil, errors.ErrRootMismatch(prev.ID, next.ID)
	}
	if prev == next {
		return nil, nil
	}

	d := &differ{
		prevIDs: idSet(prev),
		nextIDs: idSet(next),
	}
	d.diffNode(prev, next)

	if len(d.removes) == 0 {
		return d.ops, nil
	}
	return append(d.removes, d.ops...), nil
}

type differ struct {
	prevIDs map[string]struct{}
	nextIDs map[string]struct{}
	removes EditScript
	ops     EditScript
}

func idSet(root *synthetic.Node) map[string]struct{} {
	ids := make(map[string]struct{})
	tree.Walk(root, func(n *synthetic.Node) bool {
		ids[n.ID] = struct{}{}
		return true
	})
	return ids
}

func (d *differ) diffNode(prev, next *synthetic.Node) {
	if prev == next {
		return
	}
	d.diffFields(prev, next)
	d.diffChildren(prev, next)
}

func (d *differ) diffChildren(prev, next *synthetic.Node) {
	if len(prev.Children) == 0 && len(next.Children) == 0 {
		return
	}

	nextByID := make(map[string]*synthetic.Node, len(next.Children))
	for _, nc := range next.Children {
		nextByID[nc.ID] = nc
	}

	// pairs maps the id a child ends up with to its old counterpart.
	pairs := make(map[string]*synthetic.Node, len(next.Children))
	finalID := make([]string, len(prev.Children))
	kept := make([]bool, len(prev.Children))
	for i, pc := range prev.Children {
		if nc, ok := nextByID[pc.ID]; ok && nc.Kind == pc.Kind {
			pairs[pc.ID] = pc
			finalID[i], kept[i] = pc.ID, true
		}
	}

	for i := 0; i < len(prev.Children) && i < len(next.Children); i++ {
		pc, nc := prev.Children[i], next.Children[i]
		if kept[i] {
			continue
		}
		if _, paired := pairs[nc.ID]; paired {
			continue
		}
		if !d.renamable(pc, nc) {
			continue
		}
		pairs[nc.ID] = pc
		finalID[i], kept[i] = nc.ID, true
		d.ops = append(d.ops, Operation{
			Type:   OperationSet,
			NodeID: pc.ID,
			Field:  FieldID,
			Value:  nc.ID,
		})
	}

	current := make([]string, 0, len(prev.Children))
	for i, pc := range prev.Children {
		if !kept[i] {
			d.removes = append(d.removes, Operation{
				Type:     OperationRemove,
				NodeID:   pc.ID,
				ParentID: prev.ID,
				Index:    i,
			})
			continue
		}
		current = append(current, finalID[i])
	}

	for i, nc := range next.Children {
		if _, paired := pairs[nc.ID]; !paired {
			d.ops = append(d.ops, Operation{
				Type:     OperationInsert,
				NodeID:   nc.ID,
				ParentID: next.ID,
				Index:    i,
				Node:     nc,
			})
			current = slices.Insert(current, i, nc.ID)
			continue
		}
		if current[i] == nc.ID {
			continue
		}
		j := slices.Index(current[i:], nc.ID) + i
		current = slices.Delete(current, j, j+1)
		current = slices.Insert(current, i, nc.ID)
		d.ops = append(d.ops, Operation{
			Type:     OperationMove,
			NodeID:   nc.ID,
			ParentID: next.ID,
			Index:    i,
		})
	}

	for _, nc := range next.Children {
		if pc, ok := pairs[nc.ID]; ok {
			d.diffNode(pc, nc)
		}
	}
}

func (d *differ) renamable(pc, nc *synthetic.Node) bool {
	if pc.Kind != nc.Kind || pc.Name != nc.Name {
		return false
	}
	if _, ok := d.nextIDs[pc.ID]; ok {
		return false
	}
	_, ok := d.prevIDs[nc.ID]
	return !ok
}

// diffFields emits a set for every field that differs, in declaration
// order. Ids are handled by the caller.
func (d *differ) diffFields(prev, next *synthetic.Node) {
	set := func(field string, value any) {
		d.ops = append(d.ops, Operation{
			Type:   OperationSet,
			NodeID: next.ID,
			Field:  field,
			Value:  value,
		})
	}

	if prev.Kind != next.Kind {
		set(FieldKind, next.Kind)
	}
	if prev.Name != next.Name {
		set(FieldName, next.Name)
	}
	if prev.SourceNodeID != next.SourceNodeID {
		set(FieldSourceNodeID, next.SourceNodeID)
	}
	if !synthetic.MetadataEqual(prev.Metadata, next.Metadata) {
		set(FieldMetadata, next.Metadata)
	}
	if prev.InstancePath != next.InstancePath {
		set(FieldInstancePath, next.InstancePath)
	}
	if prev.ClassName != next.ClassName {
		set(FieldClassName, next.ClassName)
	}
	if !maps.Equal(prev.Attributes, next.Attributes) {
		set(FieldAttributes, next.Attributes)
	}
	if (prev.Variant == nil) != (next.Variant == nil) || !maps.Equal(prev.Variant, next.Variant) {
		set(FieldVariant, next.Variant)
	}
	if !prev.Sheet.Equal(next.Sheet) {
		set(FieldSheet, next.Sheet)
	}
	if prev.Value != next.Value {
		set(FieldValue, next.Value)
	}
	if !maps.Equal(prev.Style, next.Style) {
		set(FieldStyle, next.Style)
	}
	if !slices.Equal(prev.Overrides, next.Overrides) {
		set(FieldOverrides, next.Overrides)
	}
}
