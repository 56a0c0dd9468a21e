package workspace

import (
	"sync"

	"cdm-backend/domain/graph"
)

// historyLimit bounds the undo stack per graph; oldest entries are evicted
const historyLimit = 50

type graphHistory struct {
	past   []graph.Snapshot
	future []graph.Snapshot
}

// History keeps bounded undo/redo stacks of cloned snapshots per graph id.
// It is process-local and lost on restart. Undo/redo are not transactional
// with concurrent remote pushes: a remote edit landing between a push and the
// matching undo is silently reverted over.
type History struct {
	mu      sync.Mutex
	byGraph map[string]*graphHistory
}

// NewHistory creates an empty history manager
func NewHistory() *History {
	return &History{byGraph: make(map[string]*graphHistory)}
}

func (h *History) entry(graphID string) *graphHistory {
	existing, ok := h.byGraph[graphID]
	if !ok {
		existing = &graphHistory{}
		h.byGraph[graphID] = existing
	}
	return existing
}

// Push records the pre-mutation snapshot. Any push clears the redo stack.
func (h *History) Push(graphID string, snapshot graph.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry := h.entry(graphID)
	entry.past = append(entry.past, snapshot.Clone())
	if len(entry.past) > historyLimit {
		entry.past = entry.past[1:]
	}
	entry.future = entry.future[:0]
}

// Undo pops the most recent past snapshot, stashing a clone of current on
// the redo stack. The caller applies the returned snapshot.
func (h *History) Undo(graphID string, current graph.Snapshot) (graph.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry := h.entry(graphID)
	if len(entry.past) == 0 {
		return graph.Snapshot{}, false
	}
	previous := entry.past[len(entry.past)-1]
	entry.past = entry.past[:len(entry.past)-1]
	entry.future = append(entry.future, current.Clone())
	return previous, true
}

// Redo mirrors Undo
func (h *History) Redo(graphID string, current graph.Snapshot) (graph.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry := h.entry(graphID)
	if len(entry.future) == 0 {
		return graph.Snapshot{}, false
	}
	next := entry.future[len(entry.future)-1]
	entry.future = entry.future[:len(entry.future)-1]
	entry.past = append(entry.past, current.Clone())
	if len(entry.past) > historyLimit {
		entry.past = entry.past[1:]
	}
	return next, true
}

// CanUndo reports whether the graph has undoable snapshots
func (h *History) CanUndo(graphID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entry(graphID).past) > 0
}

// CanRedo reports whether the graph has redoable snapshots
func (h *History) CanRedo(graphID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entry(graphID).future) > 0
}
