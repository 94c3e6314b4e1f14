package toolset

import (
	"strings"

	"github.com/kazz187/lettatool/internal/letta"
)

type Category int

const (
	CategoryCustom Category = iota
	CategoryCore
	CategoryMemory
	CategoryOther
)

var categoryTitles = map[Category]string{
	CategoryCustom: "Custom Tools",
	CategoryCore:   "Letta Core Tools",
	CategoryMemory: "Memory Tools",
	CategoryOther:  "Other Tools",
}

func (c Category) String() string {
	return categoryTitles[c]
}

// Categories in display order.
var Categories = []Category{CategoryCustom, CategoryCore, CategoryMemory, CategoryOther}

// Classify buckets a tool_type. The order of checks matters: a type that
// mentions both letta_core and memory is listed as core. Keep it.
func Classify(toolType string) Category {
	switch {
	case toolType == "custom":
		return CategoryCustom
	case strings.Contains(toolType, "letta_core"):
		return CategoryCore
	case strings.Contains(toolType, "memory"):
		return CategoryMemory
	default:
		return CategoryOther
	}
}

// Group is the set of tools that fell into one category.
type Group struct {
	Category Category
	Tools    []letta.ToolRef
}

// Listing is the grouped view of an agent's tools.
type Listing struct {
	AgentID   string
	AgentName string
	Total     int
	Groups    []Group
}

// NewListing groups tools by category. Empty categories are left out and
// tools keep their server order inside a group.
func NewListing(agentID string, agent *letta.Agent) *Listing {
	byCat := make(map[Category][]letta.ToolRef)
	for _, t := range agent.Tools {
		c := Classify(t.ToolType)
		byCat[c] = append(byCat[c], t)
	}
	l := &Listing{
		AgentID:   agentID,
		AgentName: agent.Name,
		Total:     len(agent.Tools),
	}
	for _, c := range Categories {
		if tools := byCat[c]; len(tools) > 0 {
			l.Groups = append(l.Groups, Group{Category: c, Tools: tools})
		}
	}
	return l
}

// Group returns the tools in category c.
func (l *Listing) Group(c Category) []letta.ToolRef {
	for _, g := range l.Groups {
		if g.Category == c {
			return g.Tools
		}
	}
	return nil
}
