package toolset_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/lettatool/internal/letta"
	"github.com/kazz187/lettatool/internal/letta/lettatest"
	"github.com/kazz187/lettatool/internal/toolset"
	"github.com/kazz187/lettatool/pkg/cerr"
)

func newFixture(t *testing.T, refs ...letta.ToolRef) (*lettatest.Server, *toolset.Manager) {
	t.Helper()
	srv := lettatest.NewServer(t)
	srv.AddAgent(&letta.Agent{ID: "agent-1", Name: "bot", Tools: refs})
	for _, r := range refs {
		srv.AddTool(&letta.Tool{ID: r.ID, Name: r.Name, ToolType: r.ToolType})
	}
	return srv, toolset.NewManager(letta.NewClient(srv.URL, "key"))
}

func TestManager_AttachThenList(t *testing.T) {
	srv, m := newFixture(t, letta.ToolRef{ID: "t1", Name: "a", ToolType: "custom"})
	srv.AddTool(&letta.Tool{ID: "t2", Name: "b", ToolType: "letta_core"})
	ctx := context.Background()

	res, err := m.Attach(ctx, "agent-1", "t2")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Applied)

	patches := srv.RequestsFor(http.MethodPatch, "/v1/agents/agent-1")
	require.Len(t, patches, 1)
	assert.JSONEq(t, `{"tool_ids":["t1","t2"]}`, string(patches[0].Body))

	listing, err := m.List(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 2, listing.Total)
	custom := listing.Group(toolset.CategoryCustom)
	require.Len(t, custom, 1)
	assert.Equal(t, "a", custom[0].Name)

	var buf bytes.Buffer
	require.NoError(t, listing.Render(&buf, toolset.FormatText))
	assert.Contains(t, buf.String(), "Custom Tools:")
	assert.Contains(t, buf.String(), "Total tools: 2")
}

func TestManager_AttachIdempotent(t *testing.T) {
	srv, m := newFixture(t, letta.ToolRef{ID: "t1", Name: "a", ToolType: "custom"})

	res, err := m.Attach(context.Background(), "agent-1", "t1")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, []string{"t1"}, res.After)
	assert.Empty(t, srv.RequestsFor(http.MethodPatch, "/v1/agents/agent-1"))
}

func TestManager_DetachIdempotent(t *testing.T) {
	srv, m := newFixture(t, letta.ToolRef{ID: "t1", Name: "a", ToolType: "custom"})

	res, err := m.Detach(context.Background(), "agent-1", "t9")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, srv.RequestsFor(http.MethodPatch, "/v1/agents/agent-1"))
	assert.Equal(t, []string{"t1"}, srv.Agent("agent-1").ToolIDs())
}

func TestManager_Detach(t *testing.T) {
	srv, m := newFixture(t,
		letta.ToolRef{ID: "a", Name: "a", ToolType: "custom"},
		letta.ToolRef{ID: "b", Name: "b", ToolType: "custom"},
		letta.ToolRef{ID: "c", Name: "c", ToolType: "custom"},
	)

	_, err := m.Detach(context.Background(), "agent-1", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, srv.Agent("agent-1").ToolIDs())
}

func TestManager_Replace(t *testing.T) {
	srv, m := newFixture(t,
		letta.ToolRef{ID: "a", Name: "a", ToolType: "custom"},
		letta.ToolRef{ID: "b", Name: "b", ToolType: "custom"},
		letta.ToolRef{ID: "c", Name: "c", ToolType: "custom"},
	)

	res, err := m.Replace(context.Background(), "agent-1", "b", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "c"}, res.After)
	assert.Equal(t, []string{"a", "x", "c"}, srv.Agent("agent-1").ToolIDs())
}

func TestManager_DryRun(t *testing.T) {
	srv := lettatest.NewServer(t)
	srv.AddAgent(&letta.Agent{ID: "agent-1", Name: "bot", Tools: []letta.ToolRef{{ID: "t1", Name: "a"}}})
	m := toolset.NewManager(letta.NewClient(srv.URL, "key"), toolset.WithDryRun(true))

	res, err := m.Attach(context.Background(), "agent-1", "t2")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Applied)
	assert.Empty(t, srv.RequestsFor(http.MethodPatch, "/v1/agents/agent-1"))

	diff, err := res.Diff("agent-1")
	require.NoError(t, err)
	assert.Contains(t, diff, "+t2")
	assert.Contains(t, diff, " t1")
}

func TestManager_FetchAgentFailure(t *testing.T) {
	srv := lettatest.NewServer(t)
	m := toolset.NewManager(letta.NewClient(srv.URL, "key"))

	_, err := m.Attach(context.Background(), "nope", "t1")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFoundOrAuth))
	assert.Empty(t, srv.RequestsFor(http.MethodPatch, "/v1/agents/nope"))
}

func TestManager_UpdateFailure(t *testing.T) {
	srv, m := newFixture(t, letta.ToolRef{ID: "t1", Name: "a", ToolType: "custom"})
	srv.Fail(http.MethodPatch, "/v1/agents/agent-1", http.StatusBadRequest, `{"detail":"bad tool id"}`)

	_, err := m.Attach(context.Background(), "agent-1", "t2")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.RemoteRequestFailed))
	assert.Contains(t, err.Error(), "bad tool id")
}

func TestManager_ResolvesNameOnlyRefs(t *testing.T) {
	srv := lettatest.NewServer(t)
	srv.AddAgent(&letta.Agent{ID: "agent-1", Name: "bot", Tools: []letta.ToolRef{
		{Name: "legacy_tool"},
		{ID: "t1", Name: "a", ToolType: "custom"},
	}})
	srv.AddTool(&letta.Tool{ID: "t0", Name: "legacy_tool", ToolType: "custom"})
	srv.AddTool(&letta.Tool{ID: "t1", Name: "a", ToolType: "custom"})
	srv.AddTool(&letta.Tool{ID: "t2", Name: "b", ToolType: "custom"})
	m := toolset.NewManager(letta.NewClient(srv.URL, "key"))

	res, err := m.Attach(context.Background(), "agent-1", "t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t0", "t1"}, res.Before)
	assert.Equal(t, []string{"t0", "t1", "t2"}, res.After)

	patches := srv.RequestsFor(http.MethodPatch, "/v1/agents/agent-1")
	require.Len(t, patches, 1)
	assert.JSONEq(t, `{"tool_ids":["t0","t1","t2"]}`, string(patches[0].Body))
}

func TestManager_UnresolvableNameOnlyRef(t *testing.T) {
	srv := lettatest.NewServer(t)
	srv.AddAgent(&letta.Agent{ID: "agent-1", Name: "bot", Tools: []letta.ToolRef{
		{Name: "gone_tool"},
		{ID: "t1", Name: "a", ToolType: "custom"},
	}})
	srv.AddTool(&letta.Tool{ID: "t1", Name: "a", ToolType: "custom"})
	m := toolset.NewManager(letta.NewClient(srv.URL, "key"))

	_, err := m.Detach(context.Background(), "agent-1", "t1")
	require.Error(t, err)
	assert.Empty(t, srv.RequestsFor(http.MethodPatch, "/v1/agents/agent-1"))
	require.Len(t, srv.Agent("agent-1").Tools, 2)
}
