package domain

import "sort"

// Selection is a set of node ids. Order is irrelevant.
type Selection map[string]struct{}

// NewSelection creates a selection holding ids.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Selection) Add(id string)      { s[id] = struct{}{} }
func (s Selection) Remove(id string)   { delete(s, id) }
func (s Selection) Has(id string) bool { _, ok := s[id]; return ok }

// IDs returns the selected ids sorted, for deterministic iteration.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
