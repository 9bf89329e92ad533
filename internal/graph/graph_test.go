package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModule() *Node {
	return &Node{
		ID:   "m1",
		Name: TagModule,
		Children: []*Node{
			{
				ID: "button", Name: TagComponent,
				Children: []*Node{
					{ID: "label", Name: TagElement, TagName: "span"},
				},
			},
			{
				ID: "fancy", Name: TagComponent, Is: "button",
				Children: []*Node{
					{ID: "fancy-ov", Name: TagOverride, TargetIDPath: []string{"label"}},
				},
			},
			{
				ID: "frame", Name: TagElement, TagName: "div",
				Children: []*Node{
					{
						ID: "inst", Name: TagComponentInstance, Is: "fancy",
						Children: []*Node{
							{ID: "ov-default", Name: TagOverride, TargetIDPath: []string{"label"}},
							{ID: "ov-hover", Name: TagOverride, VariantID: "hover", TargetIDPath: []string{"label"}},
							{ID: "inst-child", Name: TagElement},
						},
					},
				},
			},
		},
	}
}

func TestGetNodeAndDependency(t *testing.T) {
	dep := &Dependency{URI: "file:///a.pc", Content: testModule()}
	g := NewDependencyGraph(dep)

	node := GetNode("inst", g)
	require.NotNil(t, node)
	assert.Equal(t, TagComponentInstance, node.Name)

	assert.Same(t, dep, GetNodeDependency("label", g))
	assert.Same(t, dep.Content, GetNodeModule("label", g))

	assert.Nil(t, GetNode("missing", g))
	assert.Nil(t, GetNodeDependency("missing", g))
	assert.Nil(t, GetNodeModule("missing", g))
}

func TestNilGraphFailsSoft(t *testing.T) {
	var g *DependencyGraph

	assert.Nil(t, GetNode("inst", g))
	assert.Nil(t, GetNodeDependency("inst", g))
	assert.Nil(t, GetNodeModule("inst", g))
	assert.Empty(t, g.Dependencies())
	assert.Equal(t, 0, g.Len())
	assert.Nil(t, GetNodeContentNode("inst", nil))
	assert.Empty(t, GetOverrides(nil))
	assert.False(t, ExtendsComponent(nil))
}

func TestGetNodeContentNode(t *testing.T) {
	module := testModule()

	frame := GetNodeContentNode("inst-child", module)
	require.NotNil(t, frame)
	assert.Equal(t, "frame", frame.ID)

	button := GetNodeContentNode("button", module)
	require.NotNil(t, button)
	assert.Equal(t, "button", button.ID)

	assert.Nil(t, GetNodeContentNode("m1", module), "the module is not its own content node")
}

func TestOverrides(t *testing.T) {
	g := NewDependencyGraph(&Dependency{URI: "file:///a.pc", Content: testModule()})
	inst := GetNode("inst", g)

	overrides := GetOverrides(inst)
	require.Len(t, overrides, 2)
	assert.Equal(t, "ov-default", overrides[0].ID)
	assert.Equal(t, "ov-hover", overrides[1].ID)

	defaults := GetVariantOverrides(inst, "")
	require.Len(t, defaults, 1)
	assert.Equal(t, "ov-default", defaults[0].ID)

	hover := GetVariantOverrides(inst, "hover")
	require.Len(t, hover, 1)
	assert.Equal(t, "ov-hover", hover[0].ID)

	assert.Empty(t, GetVariantOverrides(inst, "pressed"))
	assert.True(t, overrides[0].Targets("label"))
	assert.False(t, overrides[0].Targets("inst"))
}

func TestExtendsComponent(t *testing.T) {
	testCases := []struct {
		name     string
		node     *Node
		expected bool
	}{
		{"component with is", &Node{Name: TagComponent, Is: "base"}, true},
		{"instance with is", &Node{Name: TagComponentInstance, Is: "base"}, true},
		{"component without is", &Node{Name: TagComponent}, false},
		{"element with is", &Node{Name: TagElement, Is: "base"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtendsComponent(tc.node))
		})
	}
}

func TestWithAndWithoutAreCopyOnWrite(t *testing.T) {
	a := &Dependency{URI: "file:///a.pc", Content: testModule()}
	g1 := NewDependencyGraph(a)

	b := &Dependency{URI: "file:///b.pc", Content: &Node{ID: "m2", Name: TagModule}}
	g2 := g1.With(b)

	assert.Equal(t, 1, g1.Len())
	assert.Equal(t, 2, g2.Len())
	assert.Nil(t, GetNode("m2", g1))
	assert.NotNil(t, GetNode("m2", g2))

	replaced := &Dependency{URI: "file:///a.pc", Content: &Node{ID: "m1", Name: TagModule}}
	g3 := g2.With(replaced)
	assert.Nil(t, GetNode("inst", g3))
	assert.NotNil(t, GetNode("inst", g2))

	g4 := g3.Without("file:///b.pc")
	assert.Equal(t, 1, g4.Len())
	assert.Same(t, replaced, g4.Dependency("file:///a.pc"))

	deps := g2.Dependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, "file:///a.pc", deps[0].URI)
	assert.Equal(t, "file:///b.pc", deps[1].URI)
}
