package block

import (
	"errors"
	"fmt"
)

// ErrUnknownIdentity is returned when a selection names an identity that is
// not part of the current ingested set.
var ErrUnknownIdentity = errors.New("block: unknown identity")

// Set holds the current ingested record set and the operator's selection over
// it. Replacing the records is wholesale: a new import discards the previous
// set and any selection (last writer wins).
type Set struct {
	records    []Block
	identities []string
	selected   map[string]bool
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{selected: make(map[string]bool)}
}

// Replace swaps in a freshly ingested record set, clearing any prior
// selection. It returns the identities that occur more than once in the new
// set; duplicates are accepted (selection then addresses the first
// occurrence) but callers should surface them to the operator.
func (s *Set) Replace(records []Block) (duplicates []string) {
	s.records = records
	s.identities = make([]string, len(records))
	s.selected = make(map[string]bool)

	seen := make(map[string]int, len(records))
	for i, b := range records {
		id := Identity(b, i)
		s.identities[i] = id
		seen[id]++
		if seen[id] == 2 {
			duplicates = append(duplicates, id)
		}
	}
	return duplicates
}

// Records returns the ingested records in original row order.
func (s *Set) Records() []Block { return s.records }

// Len returns the number of ingested records.
func (s *Set) Len() int { return len(s.records) }

// Identities returns the display keys of the ingested set, index-aligned with
// Records.
func (s *Set) Identities() []string { return s.identities }

// Select adds an identity to the selection. The identity must belong to the
// current ingested set.
func (s *Set) Select(id string) error {
	if !s.contains(id) {
		return fmt.Errorf("%w: %q", ErrUnknownIdentity, id)
	}
	s.selected[id] = true
	return nil
}

// Deselect removes an identity from the selection. Removing an unselected
// identity is a no-op.
func (s *Set) Deselect(id string) {
	delete(s.selected, id)
}

// SelectAll selects every record in the set.
func (s *Set) SelectAll() {
	for _, id := range s.identities {
		s.selected[id] = true
	}
}

// IsSelected reports whether the identity is currently selected.
func (s *Set) IsSelected(id string) bool { return s.selected[id] }

// Selected returns the selected identities in ingested-set order.
func (s *Set) Selected() []string {
	out := make([]string, 0, len(s.selected))
	emitted := make(map[string]bool, len(s.selected))
	for _, id := range s.identities {
		if s.selected[id] && !emitted[id] {
			out = append(out, id)
			emitted[id] = true
		}
	}
	return out
}

func (s *Set) contains(id string) bool {
	for _, have := range s.identities {
		if have == id {
			return true
		}
	}
	return false
}
