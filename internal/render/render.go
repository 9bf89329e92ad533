// Package render turns synthetic trees into HTML for previews.
//
// Rendering never fails as a whole. A node that cannot be rendered, because
// it is malformed or because building it panics, is replaced by an error
// marker element and reported, and its siblings render normally.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/a-h/templ"
	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/logging"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Annotation attributes written when Config.Annotate is set. HTML fixtures
// read the same attributes back.
const (
	AttrID           = "data-id"
	AttrSourceID     = "data-source-id"
	AttrInstancePath = "data-instance-path"
	AttrVariant      = "data-variant"
	AttrText         = "data-text"
	AttrMetadata     = "data-meta-"
)

// FragmentTag wraps annotated fragments.
const FragmentTag = "synthdom-fragment"

// DefaultErrorClass is the class of error marker elements.
const DefaultErrorClass = "synthdom-render-error"

// Config configures a Renderer.
type Config struct {
	// ErrorClass is the class of error markers. Empty means
	// DefaultErrorClass.
	ErrorClass string
	// Annotate adds data-* attributes carrying node identity so the
	// output can be loaded back as a fixture.
	Annotate bool
	Logger   logging.Logger
}

// Renderer converts synthetic nodes to HTML nodes.
type Renderer struct {
	errorClass string
	annotate   bool
	logger     logging.Logger
}

// Result is the outcome of rendering one tree.
type Result struct {
	Nodes  []*html.Node
	Errors []errors.NodeError
}

// NewRenderer creates a renderer.
func NewRenderer(cfg Config) *Renderer {
	errorClass := cfg.ErrorClass
	if errorClass == "" {
		errorClass = DefaultErrorClass
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Renderer{
		errorClass: errorClass,
		annotate:   cfg.Annotate,
		logger:     logger.WithComponent("render"),
	}
}

// Render converts n into top-level HTML nodes. Documents and unannotated
// fragments produce their children.
func (r *Renderer) Render(n *synthetic.Node) *Result {
	collector := errors.NewCollector()
	nodes := r.convert(n, collector)
	return &Result{Nodes: nodes, Errors: collector.NodeErrors()}
}

// Write renders n to w. Per-node failures are logged and rendered as
// markers; only write errors are returned.
func (r *Renderer) Write(ctx context.Context, w io.Writer, n *synthetic.Node) error {
	result := r.Render(n)
	for i := range result.Errors {
		nodeErr := &result.Errors[i]
		r.logger.Warn(ctx, nodeErr, "Node rendered as error marker", "node", nodeErr.NodeID)
	}
	for _, node := range result.Nodes {
		if err := html.Render(w, node); err != nil {
			return errors.NewIOError(errors.ErrCodeEncodeFailed, "write rendered HTML", err)
		}
	}
	return nil
}

// HTML renders n to a string.
func (r *Renderer) HTML(n *synthetic.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.Write(context.Background(), &buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Component exposes n as a templ component, so synthetic previews can be
// embedded in templ layouts.
func (r *Renderer) Component(n *synthetic.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return r.Write(ctx, w, n)
	})
}

func (r *Renderer) convert(n *synthetic.Node, collector *errors.Collector) (nodes []*html.Node) {
	if n == nil {
		return nil
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			nodes = []*html.Node{r.marker(n, fmt.Sprintf("panic: %v", recovered), collector)}
		}
	}()

	switch n.Kind {
	case synthetic.KindDocument:
		return r.convertChildren(n.Children, collector)
	case synthetic.KindFragment:
		children := r.convertChildren(n.Children, collector)
		if !r.annotate {
			return children
		}
		wrapper := element(FragmentTag, r.identity(n))
		appendAll(wrapper, children)
		return []*html.Node{wrapper}
	case synthetic.KindText:
		return []*html.Node{r.text(n)}
	case synthetic.KindElement:
		el, err := r.element(n, collector)
		if err != nil {
			return []*html.Node{r.marker(n, err.Error(), collector)}
		}
		return []*html.Node{el}
	default:
		return []*html.Node{r.marker(n, "unknown node kind "+n.Kind.String(), collector)}
	}
}

func (r *Renderer) convertChildren(children []*synthetic.Node, collector *errors.Collector) []*html.Node {
	var nodes []*html.Node
	for _, child := range children {
		nodes = append(nodes, r.convert(child, collector)...)
	}
	return nodes
}

func (r *Renderer) element(n *synthetic.Node, collector *errors.Collector) (*html.Node, error) {
	if !validName(n.Name) {
		return nil, fmt.Errorf("invalid tag name %q", n.Name)
	}

	attrs := r.identity(n)
	if n.ClassName != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: n.ClassName})
	}
	for _, key := range slices.Sorted(maps.Keys(n.Attributes)) {
		if !validName(key) {
			return nil, fmt.Errorf("invalid attribute name %q", key)
		}
		if key == "class" && n.ClassName != "" {
			continue
		}
		attrs = append(attrs, html.Attribute{Key: key, Val: n.Attributes[key]})
	}

	el := element(n.Name, attrs)
	if voidElements[el.DataAtom] && (len(n.Children) > 0 || n.Sheet != nil) {
		return nil, fmt.Errorf("void element <%s> cannot have children", n.Name)
	}
	if n.Sheet != nil && len(n.Sheet.Rules) > 0 {
		style := element("style", nil)
		style.AppendChild(&html.Node{Type: html.TextNode, Data: n.Sheet.String()})
		el.AppendChild(style)
	}
	appendAll(el, r.convertChildren(n.Children, collector))
	return el, nil
}

func (r *Renderer) text(n *synthetic.Node) *html.Node {
	content := &html.Node{Type: html.TextNode, Data: n.Value}
	if !r.annotate && n.ClassName == "" && len(n.Style) == 0 {
		return content
	}

	attrs := r.identity(n)
	if r.annotate {
		attrs = append(attrs, html.Attribute{Key: AttrText})
	}
	if n.ClassName != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: n.ClassName})
	}
	if len(n.Style) > 0 {
		attrs = append(attrs, html.Attribute{Key: "style", Val: inlineStyle(n.Style)})
	}
	span := element("span", attrs)
	span.AppendChild(content)
	return span
}

// identity returns the annotation attributes of n.
func (r *Renderer) identity(n *synthetic.Node) []html.Attribute {
	if !r.annotate {
		return nil
	}
	attrs := []html.Attribute{{Key: AttrID, Val: n.ID}}
	if n.SourceNodeID != "" {
		attrs = append(attrs, html.Attribute{Key: AttrSourceID, Val: n.SourceNodeID})
	}
	if n.InstancePath != "" {
		attrs = append(attrs, html.Attribute{Key: AttrInstancePath, Val: n.InstancePath})
	}
	if n.Variant != nil {
		attrs = append(attrs, html.Attribute{Key: AttrVariant, Val: variantList(n.Variant)})
	}
	for _, key := range slices.Sorted(maps.Keys(n.Metadata)) {
		attrs = append(attrs, html.Attribute{Key: AttrMetadata + key, Val: fmt.Sprint(n.Metadata[key])})
	}
	return attrs
}

func (r *Renderer) marker(n *synthetic.Node, message string, collector *errors.Collector) *html.Node {
	collector.Add(errors.NodeError{
		NodeID:   n.ID,
		Name:     n.Name,
		Message:  message,
		Severity: errors.ErrorSeverityError,
	})

	attrs := []html.Attribute{{Key: "class", Val: r.errorClass}}
	if r.annotate {
		attrs = append(attrs, html.Attribute{Key: AttrID, Val: n.ID})
	}
	span := element("span", attrs)
	span.AppendChild(&html.Node{Type: html.TextNode, Data: message})
	return span
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

func element(name string, attrs []html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     name,
		DataAtom: atom.Lookup([]byte(name)),
		Attr:     attrs,
	}
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, child := range children {
		parent.AppendChild(child)
	}
}

// validName reports whether name can be written as an HTML tag or
// attribute name.
func validName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, " \t\n\f\r/>\"'=<")
}

func inlineStyle(style map[string]string) string {
	var b strings.Builder
	for i, key := range slices.Sorted(maps.Keys(style)) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s: %s;", key, style[key])
	}
	return b.String()
}

func variantList(variant map[string]bool) string {
	var names []string
	for name, enabled := range variant {
		if enabled {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}
