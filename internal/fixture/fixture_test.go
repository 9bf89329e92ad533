package fixture

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/render"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlFixture = `
dependencies:
  - uri: file:///m1.pc
    module:
      id: m1
      name: module
      children:
        - id: button
          name: component
          tagName: button
        - id: inst1
          name: component-instance
          is: button
documents:
  - sourceNodeId: m1
    children:
      - id: e1
        name: div
        sourceNodeId: inst1
        className: box
        variant: {}
        metadata:
          locked: true
        children:
          - id: t1
            name: text
            sourceNodeId: button
            value: Hi
`

const jsoncFixture = `{
  // modules
  "dependencies": [
    {"uri": "file:///m1.pc", "module": {"id": "m1", "name": "module"}},
  ],
  "documents": [
    {
      "sourceNodeId": "m1",
      "children": [
        {"id": "e1", "name": "div", "sourceNodeId": "m1", "children": [
          {"id": "t1", "kind": "text", "name": "text", "value": "Hi"}, /* trailing */
        ]}
      ]
    }
  ]
}`

func TestLoadYAML(t *testing.T) {
	dir := testutils.CreateTempProject(t)
	path := testutils.WriteFixture(t, dir, "project.yaml", yamlFixture)

	f, err := Load(path)
	require.NoError(t, err)

	g := f.Graph()
	assert.NotNil(t, graph.GetNode("inst1", g))

	require.Len(t, f.Documents, 1)
	doc := f.Documents[0]
	assert.Equal(t, "synthetic-dom-m1", doc.ID)
	assert.Equal(t, synthetic.KindDocument, doc.Kind)

	e1 := doc.Children[0]
	assert.Equal(t, synthetic.KindElement, e1.Kind)
	assert.True(t, synthetic.IsInstanceElement(e1), "an empty variant map marks an instance")
	assert.Equal(t, map[string]any{"locked": true}, e1.Metadata)
	assert.True(t, synthetic.IsComponentOrInstance(e1, g))

	t1 := e1.Children[0]
	assert.Equal(t, synthetic.KindText, t1.Kind)
	assert.Equal(t, "<div class=\"box\">\n  Hi\n</div>\n", synthetic.Stringify(e1))
}

func TestLoadJSONC(t *testing.T) {
	dir := testutils.CreateTempProject(t)
	path := testutils.WriteFixture(t, dir, "project.jsonc", jsoncFixture)

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Dependencies, 1)
	require.Len(t, f.Documents, 1)
	assert.Equal(t, "Hi", f.Documents[0].Children[0].Children[0].Value)
}

func TestParseRejectsBadFixtures(t *testing.T) {
	testCases := []struct {
		name string
		ext  string
		data string
	}{
		{"unknown yaml field", ".yaml", "documents: []\nextra: 1\n"},
		{"unknown json field", ".json", `{"docs": []}`},
		{"unknown kind", ".yaml", "documents:\n  - sourceNodeId: m\n    children:\n      - {id: a, kind: widget}\n"},
		{"duplicate ids", ".yaml", "documents:\n  - sourceNodeId: m\n    children:\n      - {id: a, name: div}\n      - {id: a, name: div}\n"},
		{"element at top level", ".yaml", "documents:\n  - {id: a, kind: element, name: div}\n"},
		{"dependency without uri", ".json", `{"dependencies": [{"module": {"id": "m"}}]}`},
		{"unsupported extension", ".toml", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.ext, []byte(tc.data))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "got %v", err)
		})
	}
}

func TestParseEmptyYAML(t *testing.T) {
	f, err := Parse(".yml", nil)
	require.NoError(t, err)
	assert.Empty(t, f.Documents)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b.YAML"))
	assert.True(t, Supported("x.jsonc"))
	assert.True(t, Supported("page.html"))
	assert.False(t, Supported("main.go"))
}

func TestParseHTML(t *testing.T) {
	const page = `<!DOCTYPE html>
<html><body data-source-id="m1">
  <div data-id="e1" data-source-id="page" class="page" title="x" data-meta-selected="yes">
    <span data-id="t1" data-source-id="title" data-text>Hello</span>
    <button data-id="i1" data-source-id="inst1" data-variant="hover, active">Go</button>
    <synthdom-fragment data-id="f1"><br></synthdom-fragment>
    <style>.page { color: red; }</style>
  </div>
</body></html>`

	doc, err := ParseHTML(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "synthetic-dom-m1", doc.ID)
	require.Len(t, doc.Children, 1)

	e1 := doc.Children[0]
	assert.Equal(t, "div", e1.Name)
	assert.Equal(t, "page", e1.ClassName)
	assert.Equal(t, map[string]string{"title": "x"}, e1.Attributes)
	assert.Equal(t, map[string]any{"selected": "yes"}, e1.Metadata)
	require.Len(t, e1.Children, 3)

	title := e1.Children[0]
	assert.Equal(t, synthetic.KindText, title.Kind)
	assert.Equal(t, "Hello", title.Value)

	button := e1.Children[1]
	assert.Equal(t, synthetic.VariantSet{"hover": true, "active": true}, button.Variant)
	require.Len(t, button.Children, 1)
	assert.Equal(t, "i1.0", button.Children[0].ID, "generated ids derive from the parent")
	assert.Equal(t, "inst1", button.Children[0].SourceNodeID)

	fragment := e1.Children[2]
	assert.Equal(t, synthetic.KindFragment, fragment.Kind)
	assert.Equal(t, "f1.0", fragment.Children[0].ID)
}

func TestLoadHTMLUsesFileNameAsSourceID(t *testing.T) {
	dir := testutils.CreateTempProject(t)
	path := testutils.WriteFixture(t, dir, "landing.html", `<p data-id="p1">x</p>`)

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Documents, 1)
	assert.Equal(t, "landing", f.Documents[0].SourceNodeID)
	assert.Equal(t, "synthetic-dom-landing", f.Documents[0].ID)
}

func TestAnnotatedRenderRoundTrip(t *testing.T) {
	doc := testutils.CreateTestDocument()
	out, err := render.NewRenderer(render.Config{Annotate: true}).HTML(doc)
	require.NoError(t, err)

	parsed, err := ParseHTML(strings.NewReader(`<html><body data-source-id="m1">` + out + `</body></html>`))
	require.NoError(t, err)
	assert.True(t, synthetic.Equal(doc, parsed), "parsed:\n%s", synthetic.Stringify(parsed))
}
