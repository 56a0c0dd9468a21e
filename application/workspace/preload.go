package workspace

import (
	"sync"

	"cdm-backend/domain/graph"
)

// preload is the short-lived cache that lets a freshly merged or extracted
// snapshot re-activate without a repository round trip. Consume reads and
// evicts in one step; entries are never served twice.
type preload struct {
	mu      sync.Mutex
	entries map[string]graph.Snapshot
}

func newPreload() *preload {
	return &preload{entries: make(map[string]graph.Snapshot)}
}

func (p *preload) Put(graphID string, snapshot graph.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[graphID] = snapshot
}

func (p *preload) Consume(graphID string) (graph.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot, ok := p.entries[graphID]
	if ok {
		delete(p.entries, graphID)
	}
	return snapshot, ok
}
