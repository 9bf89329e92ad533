// Package history keeps an undo/redo timeline of document collections.
//
// Entries hold document slices by reference. Documents are immutable once
// stored, so an entry is a full snapshot of the collection at the time it
// was pushed without copying any node.
package history

import (
	"slices"
	"sync"
	"time"

	"github.com/conneroisu/synthdom/internal/snapshot"
	"github.com/conneroisu/synthdom/internal/synthetic"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 100

// Entry is one point in the timeline.
type Entry struct {
	Label       string            `json:"label" yaml:"label"`
	Time        time.Time         `json:"time" yaml:"time"`
	Fingerprint snapshot.Hash     `json:"fingerprint" yaml:"fingerprint"`
	Documents   []*synthetic.Node `json:"-" yaml:"-"`
}

// History is a bounded undo/redo timeline. It is safe for concurrent use.
type History struct {
	mutex    sync.RWMutex
	entries  []Entry
	position int
	limit    int
}

// New creates an empty history holding at most limit entries. A
// non-positive limit means DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{position: -1, limit: limit}
}

// Push records docs as the newest entry. Entries after the current
// position are discarded. Push reports false, and records nothing, when
// docs has the same fingerprint as the current entry.
func (h *History) Push(label string, docs []*synthetic.Node) (bool, error) {
	fingerprint, err := snapshot.Fingerprint(docs)
	if err != nil {
		return false, err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.position >= 0 && h.entries[h.position].Fingerprint == fingerprint {
		return false, nil
	}

	// Clone rather than truncate in place: slices handed out by Entries
	// share the backing array.
	entries := slices.Clone(h.entries[:h.position+1])
	entries = append(entries, Entry{
		Label:       label,
		Time:        time.Now(),
		Fingerprint: fingerprint,
		Documents:   docs,
	})
	if overflow := len(entries) - h.limit; overflow > 0 {
		entries = entries[overflow:]
	}

	h.entries = entries
	h.position = len(entries) - 1
	return true, nil
}

// Undo steps back one entry and returns it. It reports false when there is
// nothing to undo.
func (h *History) Undo() (Entry, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.position <= 0 {
		return Entry{}, false
	}
	h.position--
	return h.entries[h.position], true
}

// Redo steps forward one entry and returns it. It reports false when there
// is nothing to redo.
func (h *History) Redo() (Entry, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.position >= len(h.entries)-1 {
		return Entry{}, false
	}
	h.position++
	return h.entries[h.position], true
}

// Current returns the entry at the current position.
func (h *History) Current() (Entry, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.position < 0 {
		return Entry{}, false
	}
	return h.entries[h.position], true
}

// Entries returns every entry, oldest first.
func (h *History) Entries() []Entry {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.entries
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.entries)
}

// Position returns the index of the current entry, or -1 when empty.
func (h *History) Position() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.position
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	return h.Position() > 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.position < len(h.entries)-1
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.entries = nil
	h.position = -1
}
