package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/conneroisu/synthdom/internal/document"
	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/fixture"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/history"
	"github.com/conneroisu/synthdom/internal/logging"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/watcher"
	"github.com/spf13/cobra"
)

var watchSave bool

var watchCmd = &cobra.Command{
	Use:   "watch [PATH...]",
	Short: "Apply fixture changes to a live document collection",
	Long: `Load every fixture under the given paths (default: watch.paths from the
configuration) and keep the document collection in sync as files change.
Edited fixtures are upserted, so only the changed nodes are patched; deleted
fixtures remove their documents and dependencies.

Examples:
  synthdom watch
  synthdom watch fixtures/ --save
  SYNTHDOM_WATCH_DEBOUNCE=250ms synthdom watch fixtures/`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchSave, "save", false, "Save a snapshot after every change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = env.config.Watch.Paths
	}

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := document.NewStore(document.StoreConfig{
		Graph:     graph.NewDependencyGraph(),
		History:   history.New(env.config.History.Limit),
		Logger:    env.logger,
		CacheSize: env.config.Cache.Size,
	})
	if err != nil {
		return err
	}
	mirror := newFixtureSync(store, env.logger, cmd.OutOrStdout())
	if watchSave {
		mirror.afterBatch = func(ctx context.Context) error {
			_, err := saveSnapshot(ctx, env, store)
			return err
		}
	}

	files, err := collectFixtures(paths, env.config.Watch.Extensions)
	if err != nil {
		return err
	}
	if err := mirror.handle(ctx, initialEvents(files)); err != nil {
		env.logger.Warn(ctx, err, "Some fixtures failed to load")
	}

	fw, err := watcher.NewFileWatcher(env.config.Watch.Debounce, env.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.ExtensionFilter(env.config.Watch.Extensions...))
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(withinFilter(paths))
	fw.AddHandler(mirror.handle)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return errors.WrapIO(err, errors.ErrCodeFileNotFound, path)
		}
		if info.IsDir() {
			err = fw.AddRecursive(path)
		} else {
			err = fw.AddPath(filepath.Dir(path))
		}
		if err != nil {
			return err
		}
	}

	if err := fw.Start(ctx); err != nil {
		return err
	}
	env.logger.Info(ctx, "Watching fixtures",
		"paths", strings.Join(fw.WatchList(), ","),
		"documents", store.Count(),
		"debounce", env.config.Watch.Debounce.String())

	<-ctx.Done()
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// collectFixtures expands paths into the fixture files they contain.
// Hidden directories are skipped.
func collectFixtures(paths, extensions []string) ([]string, error) {
	accept := watcher.ExtensionFilter(extensions...)
	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return errors.WrapIO(err, errors.ErrCodeFileNotFound, path)
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if accept(path) && fixture.Supported(path) {
				abs, err := filepath.Abs(path)
				if err != nil {
					return errors.WrapIO(err, errors.ErrCodeFileNotFound, path)
				}
				files = append(files, abs)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// withinFilter accepts paths equal to, or below, one of roots. Single files
// are watched through their directory, so siblings must be filtered out.
func withinFilter(roots []string) watcher.FileFilter {
	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		if path, err := filepath.Abs(root); err == nil {
			abs = append(abs, path)
		}
	}
	return func(path string) bool {
		for _, root := range abs {
			rel, err := filepath.Rel(root, path)
			if err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
				return true
			}
		}
		return false
	}
}

func initialEvents(files []string) []watcher.ChangeEvent {
	events := make([]watcher.ChangeEvent, 0, len(files))
	for _, file := range files {
		events = append(events, watcher.ChangeEvent{Type: watcher.EventTypeCreated, Path: file})
	}
	return events
}

// fixtureSync mirrors fixture files into a document store. It remembers
// what each file contributed so that edits and deletions can retract
// documents and dependencies the file no longer provides.
type fixtureSync struct {
	store      *document.Store
	logger     logging.Logger
	out        io.Writer
	afterBatch func(ctx context.Context) error

	mutex sync.Mutex
	files map[string]*fixture.Fixture
}

func newFixtureSync(store *document.Store, logger logging.Logger, out io.Writer) *fixtureSync {
	return &fixtureSync{
		store:  store,
		logger: logger.WithComponent("fixture_sync"),
		out:    out,
		files:  make(map[string]*fixture.Fixture),
	}
}

// handle applies one batch of file changes. It implements
// watcher.ChangeHandler. A file that fails to load keeps its previous
// contribution.
func (s *fixtureSync) handle(ctx context.Context, events []watcher.ChangeEvent) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	collector := errors.NewCollector()
	for _, event := range events {
		if event.Type.Gone() {
			s.unload(ctx, event.Path)
			continue
		}
		if err := s.load(ctx, event.Path); err != nil {
			s.logger.Warn(ctx, err, "Fixture not applied", "path", event.Path)
			collector.AddError(err)
		}
	}

	if s.afterBatch != nil {
		collector.AddError(s.afterBatch(ctx))
	}
	return stderrors.Join(collector.AllErrors()...)
}

func (s *fixtureSync) load(ctx context.Context, path string) error {
	next, err := fixture.Load(path)
	if err != nil {
		return err
	}
	prev := s.files[path]

	g := s.store.Graph()
	for _, dep := range s.retractedDependencies(prev, next) {
		g = g.Without(dep.URI)
	}
	for _, dep := range next.Dependencies {
		g = g.With(dep)
	}
	s.store.SetGraph(g)

	operations := 0
	for _, doc := range next.Documents {
		script, err := s.store.Upsert(ctx, doc)
		if err != nil {
			return err
		}
		operations += len(script)
	}
	removed := 0
	if prev != nil {
		for _, doc := range prev.Documents {
			if !slices.ContainsFunc(next.Documents, sameSource(doc.SourceNodeID)) && s.store.Remove(ctx, doc.SourceNodeID) {
				removed++
			}
		}
	}
	s.files[path] = next

	fmt.Fprintf(s.out, "loaded %s: %d documents, %d operations, %d removed\n",
		filepath.Base(path), len(next.Documents), operations, removed)
	return nil
}

func (s *fixtureSync) unload(ctx context.Context, path string) {
	prev, ok := s.files[path]
	if !ok {
		return
	}
	delete(s.files, path)

	g := s.store.Graph()
	for _, dep := range prev.Dependencies {
		g = g.Without(dep.URI)
	}
	s.store.SetGraph(g)

	removed := 0
	for _, doc := range prev.Documents {
		if s.store.Remove(ctx, doc.SourceNodeID) {
			removed++
		}
	}
	fmt.Fprintf(s.out, "unloaded %s: %d documents removed\n", filepath.Base(path), removed)
}

// retractedDependencies returns the dependencies prev provided that next
// no longer does.
func (s *fixtureSync) retractedDependencies(prev, next *fixture.Fixture) []*graph.Dependency {
	if prev == nil {
		return nil
	}
	var retracted []*graph.Dependency
	for _, dep := range prev.Dependencies {
		if !slices.ContainsFunc(next.Dependencies, func(d *graph.Dependency) bool { return d.URI == dep.URI }) {
			retracted = append(retracted, dep)
		}
	}
	return retracted
}

func sameSource(sourceNodeID string) func(*synthetic.Node) bool {
	return func(n *synthetic.Node) bool { return n.SourceNodeID == sourceNodeID }
}
