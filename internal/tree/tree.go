// Package tree provides read-only traversal helpers over ordered trees with
// stable node identity.
//
// The helpers are generic over any node type that can report its id and its
// ordered children, which lets the same code walk parsed source modules and
// synthetic documents. All traversals are pre-order and never mutate the
// tree they are given.
package tree

// Node is implemented by every tree node type. N is the concrete node type,
// usually a pointer to a struct.
type Node[N any] interface {
	NodeID() string
	NodeChildren() []N
}

// Predicate reports whether a node matches.
type Predicate[N any] func(node N) bool

// Any matches every node.
func Any[N any](N) bool { return true }

// FindNestedNodeByID returns the node with the given id within root,
// including root itself.
func FindNestedNodeByID[N Node[N]](id string, root N) (N, bool) {
	return FindNestedNode(root, func(node N) bool {
		return node.NodeID() == id
	})
}

// FindNestedNode returns the first node in pre-order that satisfies pred.
func FindNestedNode[N Node[N]](root N, pred Predicate[N]) (N, bool) {
	if pred(root) {
		return root, true
	}
	for _, child := range root.NodeChildren() {
		if found, ok := FindNestedNode(child, pred); ok {
			return found, true
		}
	}
	var zero N
	return zero, false
}

// ContainsNestedNodeByID reports whether root or any of its descendants has
// the given id.
func ContainsNestedNodeByID[N Node[N]](id string, root N) bool {
	_, ok := FindNestedNodeByID(id, root)
	return ok
}

// GetNodePath returns the chain of nodes from root down to the node with the
// given id, both ends included. It returns nil when id is not in the tree.
func GetNodePath[N Node[N]](id string, root N) []N {
	var path []N
	if collectPath(id, root, &path) {
		return path
	}
	return nil
}

func collectPath[N Node[N]](id string, current N, path *[]N) bool {
	*path = append(*path, current)
	if current.NodeID() == id {
		return true
	}
	for _, child := range current.NodeChildren() {
		if collectPath(id, child, path) {
			return true
		}
	}
	*path = (*path)[:len(*path)-1]
	return false
}

// FindParent walks the ancestors of the node with the given id, nearest
// first, and returns the first one satisfying pred.
func FindParent[N Node[N]](id string, root N, pred Predicate[N]) (N, bool) {
	path := GetNodePath(id, root)
	for i := len(path) - 2; i >= 0; i-- {
		if pred(path[i]) {
			return path[i], true
		}
	}
	var zero N
	return zero, false
}

// FilterParents returns every ancestor of the node with the given id that
// satisfies pred, nearest first.
func FilterParents[N Node[N]](id string, root N, pred Predicate[N]) []N {
	path := GetNodePath(id, root)
	var parents []N
	for i := len(path) - 2; i >= 0; i-- {
		if pred(path[i]) {
			parents = append(parents, path[i])
		}
	}
	return parents
}

// Flatten returns root and all of its descendants in pre-order.
func Flatten[N Node[N]](root N) []N {
	nodes := []N{root}
	for _, child := range root.NodeChildren() {
		nodes = append(nodes, Flatten(child)...)
	}
	return nodes
}

// Walk calls visit for root and every descendant in pre-order. Returning
// false from visit skips the children of that node.
func Walk[N Node[N]](root N, visit func(node N) bool) {
	if !visit(root) {
		return
	}
	for _, child := range root.NodeChildren() {
		Walk(child, visit)
	}
}
