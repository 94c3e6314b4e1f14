package toolset

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders the change as a unified diff with one tool ID per line.
func (r *Result) Diff(agentID string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        lines(r.Before),
		B:        lines(r.After),
		FromFile: agentID + " (current)",
		ToFile:   agentID + " (proposed)",
		Context:  3,
	})
}

func lines(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id + "\n"
	}
	return out
}
