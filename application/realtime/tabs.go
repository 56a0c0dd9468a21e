package realtime

import (
	"context"
	"sync"

	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
)

// TabBroker is the same-device channel: it fans layout and graph state out
// to the other sessions registered in this process. The sender is excluded
// by identity so a session never receives its own publication back.
type TabBroker struct {
	mu        sync.RWMutex
	layoutSub map[*Session]func(collab.LayoutState)
	graphSub  map[interface{}]func(string, graph.Snapshot)
}

// NewTabBroker creates an empty broker
func NewTabBroker() *TabBroker {
	return &TabBroker{
		layoutSub: make(map[*Session]func(collab.LayoutState)),
		graphSub:  make(map[interface{}]func(string, graph.Snapshot)),
	}
}

// SubscribeLayout registers a session's layout callback
func (b *TabBroker) SubscribeLayout(owner *Session, fn func(collab.LayoutState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.layoutSub[owner] = fn
}

// UnsubscribeLayout removes a session's layout callback
func (b *TabBroker) UnsubscribeLayout(owner *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.layoutSub, owner)
}

// SubscribeGraph registers a graph snapshot callback under an owner key
func (b *TabBroker) SubscribeGraph(owner interface{}, fn func(string, graph.Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.graphSub[owner] = fn
}

// UnsubscribeGraph removes a graph callback
func (b *TabBroker) UnsubscribeGraph(owner interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.graphSub, owner)
}

// ChannelFor returns a layout channel publishing to every session but owner
func (b *TabBroker) ChannelFor(owner *Session) *tabLayoutChannel {
	return &tabLayoutChannel{broker: b, owner: owner}
}

type tabLayoutChannel struct {
	broker *TabBroker
	owner  *Session
}

// PublishLayout delivers state to every subscribed session except the owner
func (c *tabLayoutChannel) PublishLayout(ctx context.Context, state collab.LayoutState) error {
	c.broker.mu.RLock()
	callbacks := make([]func(collab.LayoutState), 0, len(c.broker.layoutSub))
	for owner, fn := range c.broker.layoutSub {
		if owner == c.owner {
			continue
		}
		callbacks = append(callbacks, fn)
	}
	c.broker.mu.RUnlock()
	for _, fn := range callbacks {
		fn(state.Clone())
	}
	return nil
}

// PublishGraph delivers a snapshot to every graph subscriber except owner
func (b *TabBroker) PublishGraph(ctx context.Context, owner interface{}, graphID string, snapshot graph.Snapshot) error {
	b.mu.RLock()
	callbacks := make([]func(string, graph.Snapshot), 0, len(b.graphSub))
	for key, fn := range b.graphSub {
		if key == owner {
			continue
		}
		callbacks = append(callbacks, fn)
	}
	b.mu.RUnlock()
	for _, fn := range callbacks {
		fn(graphID, snapshot.Clone())
	}
	return nil
}
