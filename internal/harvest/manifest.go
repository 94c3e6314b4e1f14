package harvest

import (
	"bytes"
	"encoding/json"

	"github.com/kazz187/lettatool/internal/letta"
)

const (
	ManifestFile    = "tools.config.json"
	manifestComment = "Edit 'attached' to true/false to manage which tools are on your agent"

	maxDescriptionRunes = 100
	ellipsis            = "..."
)

// Manifest is the content of tools.config.json.
type Manifest struct {
	Comment string          `json:"_comment"`
	Tools   []ManifestEntry `json:"tools"`
}

type ManifestEntry struct {
	Name        string `json:"name"`
	Attached    bool   `json:"attached"`
	Type        string `json:"type"`
	Description string `json:"description"`
	HasSource   bool   `json:"has_source"`
}

func NewManifest(tools []*letta.Tool) *Manifest {
	m := &Manifest{
		Comment: manifestComment,
		Tools:   make([]ManifestEntry, 0, len(tools)),
	}
	for _, t := range tools {
		toolType := t.ToolType
		if toolType == "" {
			toolType = "custom"
		}
		m.Tools = append(m.Tools, ManifestEntry{
			Name:        t.Name,
			Attached:    true,
			Type:        toolType,
			Description: TruncateDescription(t.Description),
			HasSource:   t.SourceCode != "",
		})
	}
	return m
}

// TruncateDescription cuts descriptions longer than 100 characters and marks
// the cut with "...". Shorter ones are kept as is.
func TruncateDescription(desc string) string {
	runes := []rune(desc)
	if len(runes) <= maxDescriptionRunes {
		return desc
	}
	return string(runes[:maxDescriptionRunes]) + ellipsis
}

func (m *Manifest) Marshal() ([]byte, error) {
	return marshalIndent(m)
}

func marshalIndent(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// indentSchema pretty prints a raw schema without reordering its keys.
func indentSchema(raw json.RawMessage) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := json.Indent(buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
