package document

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/history"
	"github.com/conneroisu/synthdom/internal/logging"
	"github.com/conneroisu/synthdom/internal/memo"
	"github.com/conneroisu/synthdom/internal/ot"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/tree"
)

// EventType represents the type of store event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
	EventTypeRestored
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	case EventTypeRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Event represents a change in the stored collection. Document is nil for
// restore events.
type Event struct {
	Type      EventType
	Document  *synthetic.Node
	Script    ot.EditScript
	Timestamp time.Time
}

// state is one immutable version of the collection.
type state struct {
	docs  []*synthetic.Node
	graph *graph.DependencyGraph
}

type lookupKey struct {
	node  weak.Pointer[synthetic.Node]
	state weak.Pointer[state]
}

// StoreConfig configures a Store.
type StoreConfig struct {
	Graph     *graph.DependencyGraph
	History   *history.History
	Logger    logging.Logger
	CacheSize int
}

// Store holds the current document collection.
//
// Writes are serialized, so upserts apply in call order. Reads load the
// current version without locking and never observe a partial update.
type Store struct {
	mutex    sync.Mutex
	current  atomic.Pointer[state]
	watchers []chan Event
	history  *history.History
	logger   logging.Logger
	lookups  *memo.Cache[lookupKey, *synthetic.Node]
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) (*Store, error) {
	lookups, err := memo.New[lookupKey, *synthetic.Node](cfg.CacheSize)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "create lookup cache", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Store{
		history: cfg.History,
		logger:  logger.WithComponent("document_store"),
		lookups: lookups,
	}
	s.current.Store(&state{graph: cfg.Graph})

	if s.history != nil {
		if _, err := s.history.Push("initial", nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Documents returns the current collection. The slice must not be modified.
func (s *Store) Documents() []*synthetic.Node {
	return s.current.Load().docs
}

// Graph returns the dependency graph of the current collection.
func (s *Store) Graph() *graph.DependencyGraph {
	return s.current.Load().graph
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	return len(s.current.Load().docs)
}

// Get returns the document rendered from sourceNodeID.
func (s *Store) Get(sourceNodeID string) (*synthetic.Node, bool) {
	doc := synthetic.GetDocumentBySourceNodeID(sourceNodeID, s.Documents())
	return doc, doc != nil
}

// DocumentOf returns the stored document containing node, or nil. Results
// are memoized per node and collection version.
func (s *Store) DocumentOf(node *synthetic.Node) *synthetic.Node {
	if node == nil {
		return nil
	}
	st := s.current.Load()
	key := lookupKey{node: memo.Ref(node), state: memo.Ref(st)}
	return memo.GetOrCompute(s.lookups, node, key, func() *synthetic.Node {
		for _, doc := range st.docs {
			if found, ok := tree.FindNestedNodeByID(node.ID, doc); ok && found == node {
				return doc
			}
		}
		return nil
	})
}

// SetGraph replaces the dependency graph. Documents are kept; callers
// upsert re-evaluated documents afterwards.
func (s *Store) SetGraph(g *graph.DependencyGraph) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st := s.current.Load()
	s.current.Store(&state{docs: st.docs, graph: g})
}

// Upsert adds doc or patches it into the stored document with the same
// source id. A failed diff or patch leaves the store unchanged.
func (s *Store) Upsert(ctx context.Context, doc *synthetic.Node) (ot.EditScript, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	op := logging.StartOperation(s.logger, "upsert")
	st := s.current.Load()

	docs, script, err := Upsert(doc, st.docs, st.graph)
	if err != nil {
		op.EndWithError(ctx, err, "document", documentID(doc))
		return nil, err
	}

	eventType := EventTypeUpdated
	if len(docs) > len(st.docs) {
		eventType = EventTypeAdded
	} else if len(script) == 0 {
		op.End(ctx, "document", doc.ID, "operations", 0)
		return script, nil
	}

	stored := synthetic.GetDocumentBySourceNodeID(doc.SourceNodeID, docs)
	s.commit(ctx, &state{docs: docs, graph: st.graph}, eventType.String()+" "+doc.ID)
	s.notify(Event{Type: eventType, Document: stored, Script: script, Timestamp: time.Now()})

	stats := script.Stats()
	op.End(ctx, "document", doc.ID,
		"event", eventType.String(),
		"inserts", stats.Inserts,
		"removes", stats.Removes,
		"moves", stats.Moves,
		"sets", stats.Sets,
	)
	return script, nil
}

// UpdateMetadata merges metadata onto the visible node with the given id.
func (s *Store) UpdateMetadata(ctx context.Context, nodeID string, metadata map[string]any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st := s.current.Load()
	doc := synthetic.GetVisibleNodeDocument(nodeID, st.docs)
	if doc == nil {
		return errors.NewValidationError(errors.ErrCodeUnknownNode, "no document contains "+nodeID).WithNode(nodeID)
	}
	node, _ := tree.FindNestedNodeByID(nodeID, doc)

	patched, err := UpdateVisibleNodeMetadata(metadata, node, doc)
	if err != nil {
		s.logger.Warn(ctx, err, "Metadata update failed", "node", nodeID)
		return err
	}

	docs := replace(st.docs, doc, patched)
	s.commit(ctx, &state{docs: docs, graph: st.graph}, "metadata "+nodeID)
	s.notify(Event{Type: EventTypeUpdated, Document: patched, Timestamp: time.Now()})
	return nil
}

// Remove drops the document rendered from sourceNodeID. It reports whether
// a document was removed.
func (s *Store) Remove(ctx context.Context, sourceNodeID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st := s.current.Load()
	removed := synthetic.GetDocumentBySourceNodeID(sourceNodeID, st.docs)
	docs, ok := Remove(sourceNodeID, st.docs)
	if !ok {
		return false
	}

	s.commit(ctx, &state{docs: docs, graph: st.graph}, "remove "+removed.ID)
	s.notify(Event{Type: EventTypeRemoved, Document: removed, Timestamp: time.Now()})
	return true
}

// Undo restores the previous history entry. It reports false when the
// store has no history or nothing to undo.
func (s *Store) Undo(ctx context.Context) bool {
	return s.restore(ctx, "undo", func(h *history.History) (history.Entry, bool) { return h.Undo() })
}

// Redo restores the next history entry.
func (s *Store) Redo(ctx context.Context) bool {
	return s.restore(ctx, "redo", func(h *history.History) (history.Entry, bool) { return h.Redo() })
}

func (s *Store) restore(ctx context.Context, action string, step func(*history.History) (history.Entry, bool)) bool {
	if s.history == nil {
		return false
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := step(s.history)
	if !ok {
		return false
	}

	st := s.current.Load()
	s.current.Store(&state{docs: entry.Documents, graph: st.graph})
	s.logger.Info(ctx, "History restored", "action", action, "entry", entry.Label, "fingerprint", entry.Fingerprint.Short())
	s.notify(Event{Type: EventTypeRestored, Timestamp: time.Now()})
	return true
}

// commit publishes next and records it in history. Callers hold the mutex.
func (s *Store) commit(ctx context.Context, next *state, label string) {
	s.current.Store(next)
	if s.history == nil {
		return
	}
	if _, err := s.history.Push(label, next.docs); err != nil {
		s.logger.Warn(ctx, err, "History entry not recorded", "label", label)
	}
}

// notify sends event to every watcher. Callers hold the mutex.
func (s *Store) notify(event Event) {
	for _, watcher := range s.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives store events
func (s *Store) Watch() <-chan Event {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch := make(chan Event, 100)
	s.watchers = append(s.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (s *Store) UnWatch(ch <-chan Event) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, watcher := range s.watchers {
		if watcher == ch {
			close(watcher)
			s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
			break
		}
	}
}

func replace(docs []*synthetic.Node, old, updated *synthetic.Node) []*synthetic.Node {
	out := make([]*synthetic.Node, len(docs))
	for i, doc := range docs {
		if doc == old {
			doc = updated
		}
		out[i] = doc
	}
	return out
}

func documentID(doc *synthetic.Node) string {
	if doc == nil {
		return ""
	}
	return doc.ID
}
