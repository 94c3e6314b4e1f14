package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/kazz187/lettatool/internal/letta"
	"github.com/kazz187/lettatool/pkg/cerr"
	"github.com/kazz187/lettatool/pkg/storage"
)

// ToolAPI is the part of the Letta client the harvester needs.
type ToolAPI interface {
	GetAgent(ctx context.Context, agentID string) (*letta.Agent, error)
	GetTool(ctx context.Context, nameOrID string) (*letta.Tool, error)
}

// Harvester mirrors the tools attached to an agent into a Storage.
type Harvester struct {
	api    ToolAPI
	store  storage.Storage
	secret string
	logger *slog.Logger
}

type Option func(*Harvester)

// WithRedactSecret sets the value scrubbed from pulled source code.
func WithRedactSecret(secret string) Option {
	return func(h *Harvester) {
		h.secret = secret
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Harvester) {
		h.logger = l
	}
}

func New(api ToolAPI, store storage.Storage, opts ...Option) *Harvester {
	h := &Harvester{
		api:    api,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ToolReport is the outcome for one attached tool.
type ToolReport struct {
	Name       string
	SourcePath string // empty when no source was written
	SchemaPath string // empty when no schema was written
	BuiltIn    bool
	Redacted   bool
	Err        error
}

type Report struct {
	AgentID      string
	AgentName    string
	Tools        []ToolReport
	ManifestPath string
	// Stale lists artifacts in the store that belong to no attached tool.
	Stale []string
}

// Failed returns the tools that could not be saved.
func (r *Report) Failed() []ToolReport {
	var out []ToolReport
	for _, t := range r.Tools {
		if t.Err != nil {
			out = append(out, t)
		}
	}
	return out
}

// Pull downloads every tool attached to agentID. Only a failure to fetch the
// agent itself is returned as an error; per-tool failures are logged,
// recorded in the report, and skipped.
func (h *Harvester) Pull(ctx context.Context, agentID string) (*Report, error) {
	agent, err := h.api.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	report := &Report{AgentID: agentID, AgentName: agent.Name}
	h.logger.InfoContext(ctx, "found tools attached to agent", "count", len(agent.Tools))

	for i, ref := range agent.Tools {
		key := refKey(ref)
		h.logger.InfoContext(ctx, "fetching tool", "index", i+1, "tool", key)
		tr := h.saveTool(ctx, key)
		if cerr.IsCode(tr.Err, cerr.Canceled) {
			return nil, tr.Err
		}
		if tr.Err != nil {
			h.logger.WarnContext(ctx, "skipping tool", "tool", key, "error", tr.Err)
		}
		report.Tools = append(report.Tools, tr)
	}

	// The manifest is built from a fresh pass over every tool.
	var details []*letta.Tool
	for _, ref := range agent.Tools {
		key := refKey(ref)
		if key == "" {
			continue
		}
		tool, err := h.api.GetTool(ctx, key)
		if err != nil {
			if cerr.IsCode(err, cerr.Canceled) {
				return nil, err
			}
			h.logger.WarnContext(ctx, "tool left out of manifest", "tool", key, "error", err)
			continue
		}
		details = append(details, tool)
	}
	data, err := NewManifest(details).Marshal()
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to encode manifest", err)
	}
	if err := h.store.Write(ctx, ManifestFile, data); err != nil {
		return nil, cerr.WrapStorageWriteError(ManifestFile, err)
	}
	report.ManifestPath = h.store.Location(ManifestFile)
	h.logger.InfoContext(ctx, "created manifest", "path", report.ManifestPath, "tools", len(details))

	report.Stale = h.staleArtifacts(ctx, report.Tools)
	return report, nil
}

// staleArtifacts lists .py and .json files left over from tools that are no
// longer attached. They are reported, never deleted. A listing failure only
// loses the report.
func (h *Harvester) staleArtifacts(ctx context.Context, tools []ToolReport) []string {
	names, err := h.store.List(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "could not list tools directory", "error", err)
		return nil
	}
	attached := make(map[string]bool, len(tools))
	for _, t := range tools {
		attached[t.Name] = true
	}
	var stale []string
	for _, name := range names {
		if name == ManifestFile {
			continue
		}
		ext := path.Ext(name)
		if ext != ".py" && ext != ".json" {
			continue
		}
		if !attached[strings.TrimSuffix(name, ext)] {
			stale = append(stale, h.store.Location(name))
		}
	}
	return stale
}

func refKey(ref letta.ToolRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}

func (h *Harvester) saveTool(ctx context.Context, key string) ToolReport {
	tr := ToolReport{Name: key}
	if key == "" {
		tr.Err = cerr.NewError(cerr.InvalidArgument, "tool reference has neither name nor id", nil)
		return tr
	}
	tool, err := h.api.GetTool(ctx, key)
	if err != nil {
		tr.Err = err
		return tr
	}
	if tool.Name != "" {
		tr.Name = tool.Name
	}
	if !safeName(tr.Name) {
		tr.Err = cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unsafe tool name %q", tr.Name), nil)
		return tr
	}

	if tool.SourceCode != "" {
		source, redacted := Redact(tool.SourceCode, h.secret)
		path := tr.Name + ".py"
		if err := h.store.Write(ctx, path, []byte(source)); err != nil {
			tr.Err = cerr.WrapStorageWriteError(path, err)
			return tr
		}
		tr.SourcePath = h.store.Location(path)
		tr.Redacted = redacted
		h.logger.InfoContext(ctx, "saved source", "path", tr.SourcePath, "redacted", redacted)
	} else {
		tr.BuiltIn = true
		h.logger.InfoContext(ctx, "no source code, built-in tool", "tool", tr.Name)
	}

	if tool.HasSchema() {
		path := tr.Name + ".json"
		data, err := indentSchema(tool.JSONSchema)
		if err != nil {
			tr.Err = cerr.NewError(cerr.Internal, "failed to format schema", err)
			return tr
		}
		if err := h.store.Write(ctx, path, data); err != nil {
			tr.Err = cerr.WrapStorageWriteError(path, err)
			return tr
		}
		tr.SchemaPath = h.store.Location(path)
		h.logger.InfoContext(ctx, "saved schema", "path", tr.SchemaPath)
	}
	return tr
}

func safeName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
