package letta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolRef_UnmarshalJSON(t *testing.T) {
	var agent Agent
	err := json.Unmarshal([]byte(`{
		"id": "agent-1",
		"name": "bot",
		"tools": [
			"send_message",
			{"id": "t1", "name": "a", "tool_type": "custom"}
		]
	}`), &agent)
	require.NoError(t, err)

	require.Len(t, agent.Tools, 2)
	assert.Equal(t, ToolRef{Name: "send_message"}, agent.Tools[0])
	assert.Equal(t, ToolRef{ID: "t1", Name: "a", ToolType: "custom"}, agent.Tools[1])
	assert.Equal(t, []string{"t1"}, agent.ToolIDs())
}

func TestToolRef_UnmarshalJSON_Invalid(t *testing.T) {
	var ref ToolRef
	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
}

func TestTool_HasSchema(t *testing.T) {
	tests := []struct {
		schema string
		want   bool
	}{
		{``, false},
		{`null`, false},
		{`{}`, false},
		{`{"name":"a"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.schema, func(t *testing.T) {
			tool := Tool{JSONSchema: json.RawMessage(tt.schema)}
			assert.Equal(t, tt.want, tool.HasSchema())
		})
	}
}

func TestCreateToolRequest_Description(t *testing.T) {
	data, err := json.Marshal(&CreateToolRequest{SourceType: "python", Tags: []string{}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "description")

	empty := ""
	data, err = json.Marshal(&CreateToolRequest{SourceType: "python", Tags: []string{}, Description: &empty})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"description":""`)
}
