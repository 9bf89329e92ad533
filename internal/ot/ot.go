// Package ot computes and applies edit scripts between synthetic trees.
//
// Diff produces a deterministic script that turns one version of a tree
// into another; Patch applies a script without mutating its input, cloning
// only the nodes on changed paths so that untouched subtrees keep their
// identity.
package ot

import (
	"fmt"
	"strings"

	"github.com/conneroisu/synthdom/internal/synthetic"
)

// OperationType identifies an edit operation.
type OperationType string

const (
	OperationInsert OperationType = "insert"
	OperationRemove OperationType = "remove"
	OperationMove   OperationType = "move"
	OperationSet    OperationType = "set"
)

// Settable node fields. The names match the node's serialized keys.
const (
	FieldID           = "id"
	FieldKind         = "kind"
	FieldName         = "name"
	FieldSourceNodeID = "sourceNodeId"
	FieldMetadata     = "metadata"
	FieldInstancePath = "instancePath"
	FieldClassName    = "className"
	FieldAttributes   = "attributes"
	FieldVariant      = "variant"
	FieldSheet        = "sheet"
	FieldValue        = "value"
	FieldStyle        = "style"
	FieldOverrides    = "overrides"
)

// Operation is a single edit.
//
//   - insert places Node under ParentID at Index.
//   - remove detaches NodeID and its subtree. ParentID is informational.
//   - move detaches NodeID and places it under ParentID at Index. Index is
//     relative to the parent's children after the detach.
//   - set assigns Value to Field of NodeID. Setting FieldID renames the node.
type Operation struct {
	Type     OperationType   `json:"type" yaml:"type" cbor:"type"`
	NodeID   string          `json:"nodeId" yaml:"nodeId" cbor:"nodeId"`
	ParentID string          `json:"parentId,omitempty" yaml:"parentId,omitempty" cbor:"parentId,omitempty"`
	Index    int             `json:"index" yaml:"index" cbor:"index"`
	Field    string          `json:"field,omitempty" yaml:"field,omitempty" cbor:"field,omitempty"`
	Value    any             `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Node     *synthetic.Node `json:"node,omitempty" yaml:"node,omitempty" cbor:"node,omitempty"`
}

// String renders the operation on one line.
func (op Operation) String() string {
	switch op.Type {
	case OperationInsert:
		return fmt.Sprintf("insert %s into %s at %d", op.NodeID, op.ParentID, op.Index)
	case OperationRemove:
		return fmt.Sprintf("remove %s", op.NodeID)
	case OperationMove:
		return fmt.Sprintf("move %s to %s at %d", op.NodeID, op.ParentID, op.Index)
	case OperationSet:
		return fmt.Sprintf("set %s.%s = %v", op.NodeID, op.Field, formatValue(op.Value))
	default:
		return fmt.Sprintf("%s %s", op.Type, op.NodeID)
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case synthetic.Kind:
		return v.String()
	case *synthetic.StyleSheet:
		if v == nil {
			return "<nil>"
		}
		return fmt.Sprintf("%q", strings.TrimSpace(v.String()))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// EditScript is an ordered list of operations.
type EditScript []Operation

// Stats summarizes a script.
type Stats struct {
	Inserts int `json:"inserts" yaml:"inserts"`
	Removes int `json:"removes" yaml:"removes"`
	Moves   int `json:"moves" yaml:"moves"`
	Sets    int `json:"sets" yaml:"sets"`
}

// Total returns the number of operations.
func (s Stats) Total() int {
	return s.Inserts + s.Removes + s.Moves + s.Sets
}

// Stats counts the operations of each type.
func (s EditScript) Stats() Stats {
	var stats Stats
	for _, op := range s {
		switch op.Type {
		case OperationInsert:
			stats.Inserts++
		case OperationRemove:
			stats.Removes++
		case OperationMove:
			stats.Moves++
		case OperationSet:
			stats.Sets++
		}
	}
	return stats
}

// String renders the script one operation per line.
func (s EditScript) String() string {
	var b strings.Builder
	for _, op := range s {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}
