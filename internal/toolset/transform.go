package toolset

import "slices"

// Transform computes the next tool-ID list from the current one. It must not
// modify its input. changed=false means the agent is left untouched.
type Transform func(current []string) (next []string, changed bool)

// AttachTransform appends id unless it is already attached.
func AttachTransform(id string) Transform {
	return func(current []string) ([]string, bool) {
		if slices.Contains(current, id) {
			return current, false
		}
		return append(slices.Clone(current), id), true
	}
}

// DetachTransform drops every occurrence of id and keeps the rest in order.
func DetachTransform(id string) Transform {
	return func(current []string) ([]string, bool) {
		if !slices.Contains(current, id) {
			return current, false
		}
		next := make([]string, 0, len(current))
		for _, tid := range current {
			if tid != id {
				next = append(next, tid)
			}
		}
		return next, true
	}
}

// ReplaceTransform substitutes oldID with newID in place. When oldID is not
// attached it falls back to attaching newID. newID ends up in the list once,
// at its first position after substitution.
func ReplaceTransform(oldID, newID string) Transform {
	return func(current []string) ([]string, bool) {
		if !slices.Contains(current, oldID) {
			return AttachTransform(newID)(current)
		}
		next := make([]string, 0, len(current))
		seen := false
		for _, tid := range current {
			if tid == oldID || tid == newID {
				if seen {
					continue
				}
				seen = true
				tid = newID
			}
			next = append(next, tid)
		}
		return next, true
	}
}
