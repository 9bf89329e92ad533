package synthetic

import (
	"maps"
	"slices"
	"strings"
)

// Stringify renders n as indented HTML-like text for previews and tests.
//
// Elements print one tag per line with class first and the remaining
// attributes in key order. Text nodes print their value, wrapped in a span
// when they carry a class. Documents and fragments print their children
// without a wrapper.
func Stringify(n *Node) string {
	var b strings.Builder
	stringify(&b, n, 0)
	return b.String()
}

func stringify(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case KindText:
		b.WriteString(indent)
		if n.ClassName == "" {
			b.WriteString(n.Value)
		} else {
			b.WriteString(`<span class="` + n.ClassName + `">` + n.Value + "</span>")
		}
		b.WriteByte('\n')
	case KindElement:
		b.WriteString(indent + "<" + n.Name)
		if n.ClassName != "" {
			b.WriteString(` class="` + n.ClassName + `"`)
		}
		for _, key := range slices.Sorted(maps.Keys(n.Attributes)) {
			b.WriteString(" " + key + `="` + n.Attributes[key] + `"`)
		}
		b.WriteString(">\n")
		for _, child := range n.Children {
			stringify(b, child, depth+1)
		}
		b.WriteString(indent + "</" + n.Name + ">\n")
	default:
		for i, child := range n.Children {
			if i > 0 {
				b.WriteByte('\n')
			}
			stringify(b, child, depth)
		}
	}
}
