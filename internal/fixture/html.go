package fixture

import (
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/render"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML reads an HTML document as a synthetic document.
//
// The children of <body> become the document's children. data-id and
// data-source-id give node ids and source ids; nodes without a data-id
// get one derived from their parent. data-variant marks an instance
// element and lists its enabled variants, comma separated. data-meta-*
// attributes become string metadata. The document's source id comes from
// data-source-id on <body>. Whitespace-only text, <style> and <script>
// are dropped.
func ParseHTML(r io.Reader) (*synthetic.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "invalid HTML fixture")
	}

	body := findBody(root)
	if body == nil {
		return nil, errors.NewValidationError(errors.ErrCodeDecodeFailed, "HTML fixture has no body")
	}

	sourceID := attr(body, render.AttrSourceID)
	doc := synthetic.NewDocument(sourceID)
	doc.Children = convertChildren(body, doc.ID, sourceID)
	return doc, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func convertChildren(parent *html.Node, parentID, parentSourceID string) []*synthetic.Node {
	var children []*synthetic.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		id := fmt.Sprintf("%s.%d", parentID, len(children))
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
			children = append(children, synthetic.NewText(id, parentSourceID, strings.TrimSpace(c.Data)))
		case html.ElementNode:
			if c.DataAtom == atom.Style || c.DataAtom == atom.Script {
				continue
			}
			children = append(children, convertElement(c, id))
		}
	}
	return children
}

func convertElement(el *html.Node, fallbackID string) *synthetic.Node {
	id := attr(el, render.AttrID)
	if id == "" {
		id = fallbackID
	}
	sourceID := attr(el, render.AttrSourceID)

	if el.Data == render.FragmentTag {
		fragment := synthetic.NewFragment(id, sourceID)
		fragment.Children = convertChildren(el, id, sourceID)
		return fragment
	}

	// Text nodes render as spans marked with data-text.
	if text, ok := asTextNode(el, id, sourceID); ok {
		return text
	}

	n := synthetic.NewElement(id, el.Data, sourceID, map[string]string{})
	for _, a := range el.Attr {
		switch {
		case a.Key == render.AttrID || a.Key == render.AttrSourceID:
		case a.Key == render.AttrInstancePath:
			n.InstancePath = a.Val
		case a.Key == render.AttrVariant:
			n.Variant = parseVariant(a.Val)
		case strings.HasPrefix(a.Key, render.AttrMetadata):
			if n.Metadata == nil {
				n.Metadata = make(map[string]any)
			}
			n.Metadata[strings.TrimPrefix(a.Key, render.AttrMetadata)] = a.Val
		case a.Key == "class":
			n.ClassName = a.Val
		default:
			n.Attributes[a.Key] = a.Val
		}
	}
	n.Children = convertChildren(el, id, sourceID)
	return n
}

func asTextNode(el *html.Node, id, sourceID string) (*synthetic.Node, bool) {
	if el.DataAtom != atom.Span || !hasAttr(el, render.AttrText) {
		return nil, false
	}
	var value strings.Builder
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			return nil, false
		}
		value.WriteString(c.Data)
	}
	text := synthetic.NewText(id, sourceID, strings.TrimSpace(value.String()))
	text.ClassName = attr(el, "class")
	text.InstancePath = attr(el, render.AttrInstancePath)
	return text, true
}

func parseVariant(value string) synthetic.VariantSet {
	variant := synthetic.VariantSet{}
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			variant[name] = true
		}
	}
	return variant
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
