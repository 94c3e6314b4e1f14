package toolset

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var Formats = []string{string(FormatText), string(FormatJSON), string(FormatYAML)}

type listingDoc struct {
	Agent  agentDoc   `json:"agent" yaml:"agent"`
	Total  int        `json:"total" yaml:"total"`
	Groups []groupDoc `json:"groups" yaml:"groups"`
}

type agentDoc struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type groupDoc struct {
	Category string    `json:"category" yaml:"category"`
	Tools    []toolDoc `json:"tools" yaml:"tools"`
}

type toolDoc struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"tool_type,omitempty" yaml:"tool_type,omitempty"`
}

func (l *Listing) doc() *listingDoc {
	d := &listingDoc{
		Agent:  agentDoc{ID: l.AgentID, Name: l.AgentName},
		Total:  l.Total,
		Groups: make([]groupDoc, 0, len(l.Groups)),
	}
	for _, g := range l.Groups {
		gd := groupDoc{Category: g.Category.String()}
		for _, t := range g.Tools {
			gd.Tools = append(gd.Tools, toolDoc{ID: t.ID, Name: t.Name, Type: t.ToolType})
		}
		d.Groups = append(d.Groups, gd)
	}
	return d
}

// Render writes the listing in the given format. Colors in text output
// follow fatih/color's terminal detection.
func (l *Listing) Render(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(l.doc())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l.doc()); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return l.renderText(w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func (l *Listing) renderText(w io.Writer) error {
	bold := color.New(color.Bold)
	heading := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)

	var err error
	printf := func(c *color.Color, format string, args ...any) {
		if err != nil {
			return
		}
		if c == nil {
			_, err = fmt.Fprintf(w, format, args...)
			return
		}
		_, err = c.Fprintf(w, format, args...)
	}

	printf(nil, "\n")
	printf(bold, "Agent: %s (%s)\n", l.AgentName, l.AgentID)
	printf(nil, "Total tools: %d\n\n", l.Total)

	for _, g := range l.Groups {
		printf(heading, "%s:\n", g.Category)
		for _, t := range g.Tools {
			switch g.Category {
			case CategoryCustom:
				printf(nil, "   • %s\n", t.Name)
				printf(faint, "     ID: %s\n", t.ID)
			case CategoryOther:
				toolType := t.ToolType
				if toolType == "" {
					toolType = "unknown"
				}
				printf(nil, "   • %s (%s)\n", t.Name, toolType)
			default:
				printf(nil, "   • %s\n", t.Name)
			}
		}
		printf(nil, "\n")
	}
	return err
}
