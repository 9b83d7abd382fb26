package scanner

import (
	"sync"

	"github.com/lcalzada-xor/axss/pkg/models"
)

// FindingSet deduplicates findings by (url, method, parameter) and keeps
// them in the order they were confirmed. It is safe for concurrent use.
type FindingSet struct {
	mu    sync.Mutex
	seen  map[models.FindingKey]struct{}
	items []models.Finding
}

// NewFindingSet returns an empty set.
func NewFindingSet() *FindingSet {
	return &FindingSet{seen: make(map[models.FindingKey]struct{})}
}

// Add stores f unless a finding with the same key exists. It reports
// whether f was new.
func (s *FindingSet) Add(f models.Finding) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := f.Key()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, f)
	return true
}

// Len returns the number of unique findings.
func (s *FindingSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// List returns a copy of the findings in confirmation order.
func (s *FindingSet) List() []models.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Finding, len(s.items))
	copy(out, s.items)
	return out
}
