package letta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Agent is the subset of the agent object this client reads.
type Agent struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Tools []ToolRef `json:"tools"`
}

// ToolIDs returns the attached tool IDs in server order. References that
// carry only a name contribute nothing, so the result must not be written
// back as is; toolset.Manager resolves those names first.
func (a *Agent) ToolIDs() []string {
	ids := make([]string, 0, len(a.Tools))
	for _, t := range a.Tools {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// ToolRef is an entry of an agent's tool list. The API normally returns
// objects, but older agents list bare tool names.
type ToolRef struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	ToolType string `json:"tool_type,omitempty"`
}

func (r *ToolRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = ToolRef{Name: name}
		return nil
	}
	type plain ToolRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("tool reference: %w", err)
	}
	*r = ToolRef(p)
	return nil
}

// Tool is a full tool definition.
type Tool struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ToolType    string          `json:"tool_type,omitempty"`
	Description string          `json:"description,omitempty"`
	SourceType  string          `json:"source_type,omitempty"`
	SourceCode  string          `json:"source_code,omitempty"`
	JSONSchema  json.RawMessage `json:"json_schema,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// HasSchema reports whether the tool carries a non-null schema.
func (t *Tool) HasSchema() bool {
	s := bytes.TrimSpace(t.JSONSchema)
	return len(s) > 0 && !bytes.Equal(s, []byte("null")) && !bytes.Equal(s, []byte("{}"))
}

type UpdateAgentRequest struct {
	ToolIDs []string `json:"tool_ids"`
}

type CreateToolRequest struct {
	SourceType string          `json:"source_type"`
	SourceCode string          `json:"source_code"`
	JSONSchema json.RawMessage `json:"json_schema"`
	Tags       []string        `json:"tags"`

	// Description is sent only when the schema defines one, even if empty.
	Description *string `json:"description,omitempty"`
}
