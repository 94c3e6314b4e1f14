package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kazz187/lettatool/internal/letta"
	"github.com/kazz187/lettatool/internal/toolset"
	"github.com/kazz187/lettatool/pkg/cerr"
	"github.com/kazz187/lettatool/pkg/storage"
)

// SourceType is the only source language the platform accepts from here.
const SourceType = "python"

// DefaultTags are attached to every uploaded tool unless overridden.
var DefaultTags = []string{"discord", "custom"}

// ToolAPI is the part of the Letta client the publisher needs.
type ToolAPI interface {
	toolset.AgentAPI
	CreateTool(ctx context.Context, req *letta.CreateToolRequest) (*letta.Tool, error)
}

// Artifact is a tool definition read from storage.
type Artifact struct {
	Name   string
	Source string
	Schema []byte
}

type Publisher struct {
	api     ToolAPI
	store   storage.Storage
	manager *toolset.Manager
	tags    []string
	logger  *slog.Logger
}

type Option func(*Publisher)

// WithTags replaces DefaultTags.
func WithTags(tags []string) Option {
	return func(p *Publisher) {
		if len(tags) > 0 {
			p.tags = tags
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

func New(api ToolAPI, store storage.Storage, opts ...Option) *Publisher {
	p := &Publisher{
		api:    api,
		store:  store,
		tags:   DefaultTags,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.manager = toolset.NewManager(api, toolset.WithLogger(p.logger))
	return p
}

// Load reads <name>.py and <name>.json. Both must exist; when either is
// missing the error names every missing file.
func (p *Publisher) Load(ctx context.Context, name string) (*Artifact, error) {
	pyPath, jsonPath := name+".py", name+".json"
	var missing []string
	for _, path := range []string{pyPath, jsonPath} {
		ok, err := p.store.Exists(ctx, path)
		if err != nil {
			return nil, cerr.NewError(cerr.Internal, fmt.Sprintf("failed to check %s", p.store.Location(path)), err)
		}
		if !ok {
			missing = append(missing, p.store.Location(path))
		}
	}
	if len(missing) > 0 {
		return nil, cerr.NewError(cerr.MissingLocalArtifact, "missing "+strings.Join(missing, ", "), nil)
	}

	source, err := p.store.Read(ctx, pyPath)
	if err != nil {
		return nil, cerr.WrapStorageReadError("python file "+p.store.Location(pyPath), err)
	}
	schema, err := p.store.Read(ctx, jsonPath)
	if err != nil {
		return nil, cerr.WrapStorageReadError("JSON schema "+p.store.Location(jsonPath), err)
	}
	if !gjson.ValidBytes(schema) {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("JSON schema %s is not valid JSON", p.store.Location(jsonPath)), nil)
	}
	return &Artifact{Name: name, Source: string(source), Schema: schema}, nil
}

// Request builds the creation payload for an artifact.
func (p *Publisher) Request(a *Artifact) *letta.CreateToolRequest {
	req := &letta.CreateToolRequest{
		SourceType: SourceType,
		SourceCode: a.Source,
		JSONSchema: a.Schema,
		Tags:       append([]string{}, p.tags...),
	}
	// Only a string description is forwarded.
	if desc := gjson.GetBytes(a.Schema, "description"); desc.Type == gjson.String {
		s := desc.String()
		req.Description = &s
	}
	return req
}

// Result of an upload. AttachResult is nil when no agent was targeted.
type Result struct {
	Tool         *letta.Tool
	AgentID      string
	AttachResult *toolset.Result
}

// Upload creates the tool named name and, when agentID is not empty,
// attaches it to that agent. A tool that is already attached is fine.
func (p *Publisher) Upload(ctx context.Context, name, agentID string) (*Result, error) {
	artifact, err := p.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "uploading tool", "tool", name)
	tool, err := p.api.CreateTool(ctx, p.Request(artifact))
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "tool uploaded", "tool", name, "tool_id", tool.ID)

	res := &Result{Tool: tool, AgentID: agentID}
	if agentID == "" {
		return res, nil
	}
	p.logger.InfoContext(ctx, "attaching to agent", "agent_id", agentID)
	res.AttachResult, err = p.manager.Attach(ctx, agentID, tool.ID)
	if err != nil {
		return res, err
	}
	return res, nil
}
