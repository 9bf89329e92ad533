// Package testutils holds shared fixtures for synthdom tests: a small
// source graph with nested component instances and the synthetic document
// an evaluator would render from it.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/stretchr/testify/require"
)

// ModuleURI is the URI of the fixture module.
const ModuleURI = "file:///components/button.pc"

// CreateTestGraph returns the fixture source graph:
//
//	m1 (module)
//	├── button (component)
//	│   └── button-label (element span)
//	│       └── button-text (text "Click")
//	├── fancy-button (component, is button)
//	│   └── fb-override (override [button-label])
//	├── card (component)
//	│   └── card-body (element div)
//	│       └── card-btn (component-instance, is button)
//	└── page (element div)
//	    ├── page-title (text "Title")
//	    ├── inst1 (component-instance, is fancy-button)
//	    │   ├── inst1-default (override, default variant, [button-label])
//	    │   └── inst1-hover (override, variant hover, [button-label])
//	    ├── inst2 (component-instance, is card)
//	    ├── page-inst1 (override, default variant, [inst1])
//	    └── page-inst1-hover (override, variant hover, [inst1])
func CreateTestGraph() *graph.DependencyGraph {
	module := &graph.Node{
		ID:   "m1",
		Name: graph.TagModule,
		Children: []*graph.Node{
			{
				ID: "button", Name: graph.TagComponent, TagName: "button",
				Children: []*graph.Node{
					{
						ID: "button-label", Name: graph.TagElement, TagName: "span",
						Children: []*graph.Node{
							{ID: "button-text", Name: graph.TagText, Text: "Click"},
						},
					},
				},
			},
			{
				ID: "fancy-button", Name: graph.TagComponent, Is: "button",
				Children: []*graph.Node{
					{
						ID: "fb-override", Name: graph.TagOverride,
						Property:     graph.PropertyAttributes,
						TargetIDPath: []string{"button-label"},
						Attributes:   map[string]string{"class": "fancy"},
					},
				},
			},
			{
				ID: "card", Name: graph.TagComponent, TagName: "div",
				Children: []*graph.Node{
					{
						ID: "card-body", Name: graph.TagElement, TagName: "div",
						Children: []*graph.Node{
							{ID: "card-btn", Name: graph.TagComponentInstance, Is: "button"},
						},
					},
				},
			},
			{
				ID: "page", Name: graph.TagElement, TagName: "div",
				Children: []*graph.Node{
					{ID: "page-title", Name: graph.TagText, Text: "Title"},
					{
						ID: "inst1", Name: graph.TagComponentInstance, Is: "fancy-button",
						Children: []*graph.Node{
							{
								ID: "inst1-default", Name: graph.TagOverride,
								Property:     graph.PropertyAttributes,
								TargetIDPath: []string{"button-label"},
								Attributes:   map[string]string{"title": "self", "role": "button"},
							},
							{
								ID: "inst1-hover", Name: graph.TagOverride, VariantID: "hover",
								Property:     graph.PropertyAttributes,
								TargetIDPath: []string{"button-label"},
								Attributes:   map[string]string{"title": "hovered"},
							},
						},
					},
					{ID: "inst2", Name: graph.TagComponentInstance, Is: "card"},
					{
						ID: "page-inst1", Name: graph.TagOverride,
						Property:     graph.PropertyAttributes,
						TargetIDPath: []string{"inst1"},
						Attributes:   map[string]string{"title": "page"},
					},
					{
						ID: "page-inst1-hover", Name: graph.TagOverride, VariantID: "hover",
						Property:     graph.PropertyAttributes,
						TargetIDPath: []string{"inst1"},
						Attributes:   map[string]string{"title": "page-hover"},
					},
				},
			},
		},
	}

	return graph.NewDependencyGraph(&graph.Dependency{URI: ModuleURI, Content: module})
}

// CreateTestDocument returns the synthetic document rendered from the
// fixture module's page frame:
//
//	synthetic-dom-m1
//	└── s-page (div, page)
//	    ├── s-title ("Title", page-title)
//	    ├── s-inst1 (button, inst1, instance)
//	    │   └── s-label (span, button-label, instance path inst1)
//	    │       └── s-text ("Click", button-text)
//	    ├── s-inst2 (div, inst2, instance)
//	    │   └── s-card-body (div, card-body)
//	    │       └── s-card-btn (button, card-btn, instance)
//	    │           └── s-card-label (span, button-label)
//	    └── s-orphan (span, deleted-node)
func CreateTestDocument() *synthetic.Node {
	label := synthetic.NewElement("s-label", "span", "button-label", map[string]string{})
	label.InstancePath = "inst1"
	text := synthetic.NewText("s-text", "button-text", "Click")
	text.InstancePath = "inst1"
	label.Children = []*synthetic.Node{text}

	inst1 := synthetic.NewElement("s-inst1", "button", "inst1", map[string]string{}, label)
	inst1.Variant = map[string]bool{}

	cardLabel := synthetic.NewElement("s-card-label", "span", "button-label", map[string]string{})
	cardLabel.InstancePath = "inst2.card-btn"
	cardBtn := synthetic.NewElement("s-card-btn", "button", "card-btn", map[string]string{}, cardLabel)
	cardBtn.InstancePath = "inst2"
	cardBtn.Variant = map[string]bool{}
	cardBody := synthetic.NewElement("s-card-body", "div", "card-body", map[string]string{}, cardBtn)
	cardBody.InstancePath = "inst2"
	inst2 := synthetic.NewElement("s-inst2", "div", "inst2", map[string]string{}, cardBody)
	inst2.Variant = map[string]bool{}

	orphan := synthetic.NewElement("s-orphan", "span", "deleted-node", map[string]string{})

	page := synthetic.NewElement("s-page", "div", "page", map[string]string{"id": "page"},
		synthetic.NewText("s-title", "page-title", "Title"),
		inst1,
		inst2,
		orphan,
	)
	page.ClassName = "page"

	return synthetic.NewDocument("m1", page)
}

// CreateTempProject creates a temporary directory with a fixtures folder.
func CreateTempProject(t *testing.T) string {
	tempDir := t.TempDir()
	err := os.MkdirAll(filepath.Join(tempDir, "fixtures"), 0755)
	require.NoError(t, err)
	return tempDir
}

// WriteFixture writes a fixture file and returns its path.
func WriteFixture(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}
