package toolset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/lettatool/internal/letta"
	"github.com/kazz187/lettatool/pkg/cerr"
)

// AgentAPI is the part of the Letta client the manager needs.
type AgentAPI interface {
	GetAgent(ctx context.Context, agentID string) (*letta.Agent, error)
	UpdateAgentTools(ctx context.Context, agentID string, toolIDs []string) (*letta.Agent, error)
	GetTool(ctx context.Context, nameOrID string) (*letta.Tool, error)
}

// Result describes one read-modify-write cycle.
type Result struct {
	Agent   *letta.Agent
	Before  []string
	After   []string
	Changed bool
	// Applied is false when the change was computed but not sent (dry run).
	Applied bool
}

type Manager struct {
	api    AgentAPI
	dryRun bool
	logger *slog.Logger
}

type Option func(*Manager)

// WithDryRun computes changes without writing them back.
func WithDryRun(dryRun bool) Option {
	return func(m *Manager) {
		m.dryRun = dryRun
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func NewManager(api AgentAPI, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) FetchAgent(ctx context.Context, agentID string) (*letta.Agent, error) {
	return m.api.GetAgent(ctx, agentID)
}

// Mutate fetches the agent's tool IDs, applies fn, and overwrites the whole
// list when fn reports a change. There is no locking: the last writer wins.
func (m *Manager) Mutate(ctx context.Context, agentID string, fn Transform) (*Result, error) {
	agent, err := m.api.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	before, err := m.resolveIDs(ctx, agent)
	if err != nil {
		return nil, err
	}
	after, changed := fn(before)
	res := &Result{
		Agent:   agent,
		Before:  before,
		After:   after,
		Changed: changed,
	}
	if !changed {
		return res, nil
	}
	if m.dryRun {
		m.logger.DebugContext(ctx, "dry run, not updating agent", "tool_ids", after)
		return res, nil
	}

	updated, err := m.api.UpdateAgentTools(ctx, agentID, after)
	if err != nil {
		return nil, err
	}
	res.Agent = updated
	res.Applied = true
	return res, nil
}

// resolveIDs returns the ID of every attached tool in order. References that
// only carry a name are looked up, since the PATCH overwrites the whole list.
func (m *Manager) resolveIDs(ctx context.Context, agent *letta.Agent) ([]string, error) {
	ids := make([]string, 0, len(agent.Tools))
	for _, ref := range agent.Tools {
		if ref.ID != "" {
			ids = append(ids, ref.ID)
			continue
		}
		if ref.Name == "" {
			return nil, cerr.NewError(cerr.InvalidArgument, "agent lists a tool with neither id nor name", nil)
		}
		tool, err := m.api.GetTool(ctx, ref.Name)
		if err != nil {
			return nil, err
		}
		if tool.ID == "" {
			return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("could not resolve id of tool %q", ref.Name), nil)
		}
		m.logger.DebugContext(ctx, "resolved tool id", "tool", ref.Name, "tool_id", tool.ID)
		ids = append(ids, tool.ID)
	}
	return ids, nil
}

func (m *Manager) Attach(ctx context.Context, agentID, toolID string) (*Result, error) {
	return m.Mutate(ctx, agentID, AttachTransform(toolID))
}

func (m *Manager) Detach(ctx context.Context, agentID, toolID string) (*Result, error) {
	return m.Mutate(ctx, agentID, DetachTransform(toolID))
}

func (m *Manager) Replace(ctx context.Context, agentID, oldID, newID string) (*Result, error) {
	return m.Mutate(ctx, agentID, ReplaceTransform(oldID, newID))
}

// List fetches the agent and groups its tools for display.
func (m *Manager) List(ctx context.Context, agentID string) (*Listing, error) {
	agent, err := m.api.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return NewListing(agentID, agent), nil
}
