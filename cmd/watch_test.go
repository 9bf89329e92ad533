package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/synthdom/internal/document"
	"github.com/conneroisu/synthdom/internal/fixture"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/logging"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/testutils"
	"github.com/conneroisu/synthdom/internal/tree"
	"github.com/conneroisu/synthdom/internal/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSync(t *testing.T) (*fixtureSync, *document.Store, *bytes.Buffer) {
	t.Helper()
	store, err := document.NewStore(document.StoreConfig{Graph: graph.NewDependencyGraph()})
	require.NoError(t, err)
	var out bytes.Buffer
	return newFixtureSync(store, logging.NewNopLogger(), &out), store, &out
}

func change(eventType watcher.EventType, path string) []watcher.ChangeEvent {
	return []watcher.ChangeEvent{{Type: eventType, Path: path}}
}

func TestFixtureSyncLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mirror, store, out := newTestSync(t)

	path := writeProject(t, dir, "page.yaml")
	require.NoError(t, mirror.handle(ctx, change(watcher.EventTypeCreated, path)))
	assert.Equal(t, 1, store.Count())
	assert.NotNil(t, graph.GetNode("inst1", store.Graph()))
	assert.Contains(t, out.String(), "loaded page.yaml: 1 documents, 0 operations, 0 removed\n")

	before, _ := store.Get("m1")
	card, _ := tree.FindNestedNodeByID("s-inst2", before)

	writeProject(t, dir, "page.yaml", editedDocument("Welcome"))
	require.NoError(t, mirror.handle(ctx, change(watcher.EventTypeModified, path)))
	after, _ := store.Get("m1")
	title, _ := tree.FindNestedNodeByID("s-title", after)
	assert.Equal(t, "Welcome", title.Value)
	unchanged, _ := tree.FindNestedNodeByID("s-inst2", after)
	assert.Same(t, card, unchanged, "untouched subtrees keep their identity")
	assert.Contains(t, out.String(), "loaded page.yaml: 1 documents, 1 operations, 0 removed\n")

	require.NoError(t, mirror.handle(ctx, change(watcher.EventTypeDeleted, path)))
	assert.Equal(t, 0, store.Count())
	assert.Nil(t, graph.GetNode("inst1", store.Graph()))
	assert.Contains(t, out.String(), "unloaded page.yaml: 1 documents removed\n")
}

func TestFixtureSyncRetractsDroppedDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mirror, store, _ := newTestSync(t)

	path := writeProject(t, dir, "page.yaml", testutils.CreateTestDocument(), synthetic.NewDocument("m2"))
	require.NoError(t, mirror.handle(ctx, change(watcher.EventTypeCreated, path)))
	assert.Equal(t, 2, store.Count())

	testutils.WriteFixture(t, dir, "page.yaml", "documents:\n  - sourceNodeId: m2\n")
	require.NoError(t, mirror.handle(ctx, change(watcher.EventTypeModified, path)))
	assert.Equal(t, 1, store.Count())
	_, ok := store.Get("m2")
	assert.True(t, ok)
	assert.Equal(t, 0, store.Graph().Len(), "dependencies the file no longer lists are retracted")
}

func TestFixtureSyncKeepsStateOnBadFixture(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mirror, store, _ := newTestSync(t)

	good := writeProject(t, dir, "page.yaml")
	bad := testutils.WriteFixture(t, dir, "bad.yaml", "documents: [")

	err := mirror.handle(ctx, []watcher.ChangeEvent{
		{Type: watcher.EventTypeCreated, Path: bad},
		{Type: watcher.EventTypeCreated, Path: good},
	})
	require.Error(t, err)
	assert.Equal(t, 1, store.Count(), "later files in the batch still apply")

	require.NoError(t, mirror.handle(ctx, change(watcher.EventTypeDeleted, bad)), "unknown files unload quietly")
}

func TestFixtureSyncAfterBatch(t *testing.T) {
	ctx := context.Background()
	mirror, _, _ := newTestSync(t)

	calls := 0
	mirror.afterBatch = func(context.Context) error {
		calls++
		return nil
	}
	path := writeProject(t, t.TempDir(), "page.yaml")
	require.NoError(t, mirror.handle(ctx, change(watcher.EventTypeCreated, path)))
	assert.Equal(t, 1, calls)
}

func TestCollectFixtures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0o755))

	a := testutils.WriteFixture(t, dir, "a.yaml", "")
	b := testutils.WriteFixture(t, filepath.Join(dir, "sub"), "b.json", "{}")
	testutils.WriteFixture(t, filepath.Join(dir, ".hidden"), "c.yaml", "")
	testutils.WriteFixture(t, dir, "notes.txt", "")

	files, err := collectFixtures([]string{dir, a}, fixture.Extensions)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	_, err = collectFixtures([]string{filepath.Join(dir, "missing")}, fixture.Extensions)
	assert.Error(t, err)
}

func TestWithinFilter(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "page.yaml")

	single := withinFilter([]string{file})
	assert.True(t, single(file))
	assert.False(t, single(filepath.Join(dir, "other.yaml")))

	nested := withinFilter([]string{dir})
	assert.True(t, nested(filepath.Join(dir, "sub", "page.yaml")))
	assert.False(t, nested(filepath.Join(filepath.Dir(dir), "elsewhere.yaml")))
}
