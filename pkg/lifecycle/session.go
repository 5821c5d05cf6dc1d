// Package lifecycle drives a flow through its draft/publish/fork states. A
// Session owns the editing graph, the current state, and the collaborators
// needed to persist it; every transition is explicit and every failed server
// call leaves the state and the graph exactly as they were.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/waflow/waflow/pkg/client"
	"github.com/waflow/waflow/pkg/draft"
	"github.com/waflow/waflow/pkg/flow"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/validation"
	"github.com/waflow/waflow/pkg/wire"
)

// State is the session's position in the draft/publish/fork machine.
type State string

const (
	// StateNewUnsaved is a flow the server has never seen (empty id).
	StateNewUnsaved State = "new_unsaved"

	// StateDraft has a server id and unpublished content.
	StateDraft State = "draft"

	// StatePublished is live and editable as long as no campaign uses it.
	StatePublished State = "published"

	// StatePublishedLocked is published and attached to at least one
	// campaign; saves are refused until the operator forks or backs out.
	StatePublishedLocked State = "published_locked"

	// StateReadOnlyFork is a declined fork prompt: the graph stays visible
	// but every mutation is a no-op until a fork is actually created.
	StateReadOnlyFork State = "read_only_fork"
)

var (
	// ErrReadOnly indicates a save was attempted after the fork prompt was
	// declined.
	ErrReadOnly = errors.New("session is read-only, fork the flow to edit it")

	// ErrNotLocked indicates a fork was requested while the session is not
	// in a locked state.
	ErrNotLocked = errors.New("flow is not locked, fork is not needed")
)

// FlowsClient is the subset of the REST client the session drives. It is an
// interface so tests can substitute a fake without a server.
type FlowsClient interface {
	Get(ctx context.Context, id string) (*wire.FlowPayload, error)
	Create(ctx context.Context, payload wire.FlowPayload) (string, error)
	Update(ctx context.Context, id string, payload wire.FlowPayload) (*wire.UpdateFlowResponse, error)
	Publish(ctx context.Context, id string) error
	Usage(ctx context.Context, id string) (*models.CampaignUsage, error)
	Fork(ctx context.Context, id string) (string, error)
}

// Session binds one editing graph to the lifecycle machine.
type Session struct {
	graph     *flow.Graph
	flows     FlowsClient
	mapper    *wire.Mapper
	autosaver *draft.Autosaver // Optional
	logger    *slog.Logger

	state    State
	lockedBy []models.CampaignRef
}

// NewSession wires a session around an existing graph. The initial state is
// derived from the flow itself: no id means new, otherwise the published flag
// decides. The autosaver may be nil when recovery snapshots are not wanted.
func NewSession(graph *flow.Graph, flows FlowsClient, mapper *wire.Mapper, autosaver *draft.Autosaver, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		graph:     graph,
		flows:     flows,
		mapper:    mapper,
		autosaver: autosaver,
		logger:    logger,
		state:     StateNewUnsaved,
	}

	f := graph.Flow()

	switch {
	case f.ID == "":
		s.state = StateNewUnsaved
	case f.IsPublished:
		s.state = StatePublished
	default:
		s.state = StateDraft
	}

	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Graph returns the graph this session edits.
func (s *Session) Graph() *flow.Graph { return s.graph }

// LockedBy returns the campaigns holding the usage lock, if any.
func (s *Session) LockedBy() []models.CampaignRef { return s.lockedBy }

// ShouldBlockUnload reports whether closing the session now would lose
// unsaved edits.
func (s *Session) ShouldBlockUnload() bool { return s.graph.Dirty() }

// SaveDraft persists the current graph as a draft. Validation issues are
// returned as warnings alongside a successful save; they never block it. On
// success the recovery snapshot is cleared and the dirty flag reset.
func (s *Session) SaveDraft(ctx context.Context) ([]validation.Issue, error) {
	if s.state == StateReadOnlyFork {
		return nil, ErrReadOnly
	}

	issues := validation.CheckAll(s.graph.Nodes())

	if err := s.persist(ctx); err != nil {
		return issues, err
	}

	s.saved(ctx)

	if len(issues) > 0 {
		s.logger.Warn("Draft saved with validation issues", "flow_id", s.graph.Flow().ID, "issues", len(issues))
	}

	return issues, nil
}

// Publish makes the flow live. It refuses on the first validation issue
// without touching the network. The content is persisted before the publish
// call, so a publish failure still leaves the saved draft in place.
func (s *Session) Publish(ctx context.Context) (*validation.Issue, error) {
	if s.state == StateReadOnlyFork {
		return nil, ErrReadOnly
	}

	if issue := validation.First(s.graph.Nodes()); issue != nil {
		return issue, nil
	}

	if err := s.persist(ctx); err != nil {
		return nil, err
	}

	f := s.graph.Flow()

	if err := s.flows.Publish(ctx, f.ID); err != nil {
		// The draft content is already on the server; only the publish
		// step failed, so the session stays (or becomes) a draft.
		if s.state != StatePublishedLocked {
			s.state = StateDraft
		}

		return nil, s.conflict(err)
	}

	f.IsPublished = true
	s.state = StatePublished
	s.saved(ctx)

	return nil, nil
}

// BeginEdit checks the usage lock before editing a published flow. With at
// least one attached campaign the session locks and the caller should offer
// a fork; otherwise in-place editing stays allowed.
func (s *Session) BeginEdit(ctx context.Context) (*models.CampaignUsage, error) {
	usage, err := s.flows.Usage(ctx, s.graph.Flow().ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow usage: %w", err)
	}

	if usage.Locked {
		s.state = StatePublishedLocked
		s.lockedBy = usage.Campaigns
	}

	return usage, nil
}

// Fork asks the server for a deep copy of the locked flow and switches the
// session to it as an editable draft. The original flow is untouched.
func (s *Session) Fork(ctx context.Context) (string, error) {
	if s.state != StatePublishedLocked && s.state != StateReadOnlyFork {
		return "", ErrNotLocked
	}

	forkID, err := s.flows.Fork(ctx, s.graph.Flow().ID)
	if err != nil {
		return "", fmt.Errorf("failed to fork flow: %w", err)
	}

	payload, err := s.flows.Get(ctx, forkID)
	if err != nil {
		return "", fmt.Errorf("failed to load forked flow: %w", err)
	}

	forked, err := s.mapper.Inbound(forkID, *payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode forked flow: %w", err)
	}

	s.graph.Reset(forked)
	s.state = StateDraft
	s.lockedBy = nil

	s.logger.Info("Switched session to forked flow", "flow_id", forkID)

	return forkID, nil
}

// DeclineFork keeps the locked flow open for viewing only. Every graph
// mutation becomes a no-op until Fork is called.
func (s *Session) DeclineFork() {
	if s.state != StatePublishedLocked {
		return
	}

	s.state = StateReadOnlyFork
	s.graph.SetReadOnly(true)
}

// Suspend flushes any pending recovery snapshot. Call it when the editor
// loses visibility but the session stays alive.
func (s *Session) Suspend() {
	if s.autosaver != nil {
		s.autosaver.Flush()
	}
}

// Close flushes and stops the autosaver. The session is not usable after.
func (s *Session) Close() {
	if s.autosaver != nil {
		s.autosaver.Close()
	}
}

// persist creates or updates the flow on the server. A usage-lock conflict
// transitions the session to locked; any other failure changes nothing.
func (s *Session) persist(ctx context.Context) error {
	f := s.graph.Flow()
	payload := s.mapper.Outbound(f)

	if s.state == StateNewUnsaved {
		id, err := s.flows.Create(ctx, payload)
		if err != nil {
			return s.conflict(err)
		}

		f.ID = id
		s.state = StateDraft

		return nil
	}

	if _, err := s.flows.Update(ctx, f.ID, payload); err != nil {
		return s.conflict(err)
	}

	return nil
}

// saved resets the dirty flag and drops the recovery snapshot after a
// successful server write.
func (s *Session) saved(ctx context.Context) {
	s.graph.ClearDirty()

	if s.autosaver != nil {
		s.autosaver.Clear(ctx)
	}
}

// conflict promotes a usage-lock error into the locked state, recording the
// campaign list for the fork prompt. Every other error passes through.
func (s *Session) conflict(err error) error {
	if lock, ok := client.IsUsageLocked(err); ok {
		s.state = StatePublishedLocked
		s.lockedBy = lock.Campaigns
	}

	return err
}
