package membership

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []*Membership
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(ctx context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	copied := *m
	s.rows = append(s.rows, &copied)
	return nil
}

func (s *MemoryStore) ActiveForSubject(ctx context.Context, subjectID string, asOf time.Time) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Membership
	for _, row := range s.rows {
		if row.SubjectID != subjectID || row.Status != StatusActive || !row.EndsAt.After(asOf) {
			continue
		}
		if best == nil || row.EndsAt.After(best.EndsAt) {
			best = row
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (s *MemoryStore) ListForSubject(ctx context.Context, subjectID string) ([]*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var memberships []*Membership
	for _, row := range s.rows {
		if row.SubjectID == subjectID {
			copied := *row
			memberships = append(memberships, &copied)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].CreatedAt.After(memberships[j].CreatedAt)
	})
	return memberships, nil
}
