// Package realtime holds the collaboration session that keeps one
// participant's layout state converged with peers over two independent
// broadcast channels: a same-device tab channel and a networked peer channel.
package realtime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/domain/collab"
)

// Source tags where a remote layout update arrived from. Network updates are
// re-broadcast on the tab channel so a device that only listens locally still
// converges; tab updates are not, or two tabs would echo forever.
type Source int

const (
	SourceLocalTab Source = iota
	SourceNetwork
)

// SessionOptions configures a layout collaboration session
type SessionOptions struct {
	GraphID string
	Actor   string
	Role    collab.Role
	Repo    ports.LayoutRepository
	Tabs    ports.LayoutChannel
	Network ports.LayoutChannel
	Logger  *zap.Logger
}

// Session synchronizes one participant's layout state for a single graph.
// Local edits apply optimistically and save in the background; the version
// number assigned by the store is the sole conflict arbiter.
type Session struct {
	graphID string
	actor   string
	role    collab.Role
	state   collab.LayoutState
	saving  bool
	lastErr error

	repo    ports.LayoutRepository
	tabs    ports.LayoutChannel
	network ports.LayoutChannel
	logger  *zap.Logger
	now     func() time.Time
}

// NewSession creates a layout session starting from the default state
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		graphID: opts.GraphID,
		actor:   opts.Actor,
		role:    opts.Role,
		state:   collab.DefaultLayoutState(opts.GraphID),
		repo:    opts.Repo,
		tabs:    opts.Tabs,
		network: opts.Network,
		logger:  logger,
		now:     time.Now,
	}
}

// Open loads the persisted layout; a graph never laid out keeps the default
func (s *Session) Open(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	state, found, err := s.repo.GetLayout(ctx, s.graphID)
	if err != nil {
		s.logger.Warn("load layout failed", zap.String("graphId", s.graphID), zap.Error(err))
		return err
	}
	if found {
		s.state = state.Clone()
	}
	return nil
}

// State returns the current layout state
func (s *Session) State() collab.LayoutState { return s.state.Clone() }

// Saving reports whether a save is in flight
func (s *Session) Saving() bool { return s.saving }

// LastError returns the most recent save failure, nil after a success
func (s *Session) LastError() error { return s.lastErr }

// SetMode changes the layout mode and propagates it
func (s *Session) SetMode(ctx context.Context, mode collab.LayoutMode) error {
	if err := collab.RequireEditor(s.role); err != nil {
		return err
	}
	if !collab.ValidMode(mode) {
		return nil
	}
	next := s.state.Clone()
	next.Mode = mode
	return s.commit(ctx, next)
}

// Toggle flips one canvas helper toggle and propagates it
func (s *Session) Toggle(ctx context.Context, key collab.ToggleKey) error {
	if err := collab.RequireEditor(s.role); err != nil {
		return err
	}
	if !collab.ValidToggle(key) {
		return nil
	}
	next := s.state.Clone()
	next.Toggles[key] = !next.Toggles[key]
	return s.commit(ctx, next)
}

// commit applies an edit optimistically, persists it for an authoritative
// version, then broadcasts the stored state on both channels. On save failure
// the optimistic state stays in place and the error is surfaced; the next
// successful save or inbound update supersedes it.
func (s *Session) commit(ctx context.Context, next collab.LayoutState) error {
	next.UpdatedBy = s.actor
	next.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	s.state = next
	s.saving = true
	defer func() { s.saving = false }()

	if s.repo != nil {
		stored, err := s.repo.SaveLayout(ctx, next)
		if err != nil {
			s.lastErr = err
			s.logger.Warn("save layout failed", zap.String("graphId", s.graphID), zap.Error(err))
			return err
		}
		s.state = stored.Clone()
	}
	s.lastErr = nil
	s.publish(ctx, s.tabs)
	s.publish(ctx, s.network)
	return nil
}

// ApplyRemote installs a layout state pushed by a peer. Stale versions and
// states for other graphs are discarded. Returns whether the state was
// applied.
func (s *Session) ApplyRemote(ctx context.Context, state collab.LayoutState, source Source) bool {
	if state.GraphID != s.graphID {
		return false
	}
	if state.Version <= s.state.Version {
		return false
	}
	s.state = state.Clone()
	if source == SourceNetwork {
		s.publish(ctx, s.tabs)
	}
	return true
}

func (s *Session) publish(ctx context.Context, channel ports.LayoutChannel) {
	if channel == nil {
		return
	}
	if err := channel.PublishLayout(ctx, s.state.Clone()); err != nil {
		s.logger.Debug("layout publish failed", zap.String("graphId", s.graphID), zap.Error(err))
	}
}
