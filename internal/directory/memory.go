package directory

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in process memory. It backs tests and the
// degraded mode entered when no datastore DSN is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		now:      time.Now,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, subjectID string, fields Fields) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	account, ok := s.accounts[subjectID]
	if !ok {
		account = &Account{
			SubjectID: subjectID,
			Role:      RoleUser,
			CreatedAt: now,
		}
		s.accounts[subjectID] = account
	}
	if fields.Email != nil {
		email := *fields.Email
		account.Email = &email
	}
	if fields.PasswordHash != nil {
		hash := *fields.PasswordHash
		account.PasswordHash = &hash
	}
	if fields.DisplayName != nil {
		account.DisplayName = *fields.DisplayName
	}
	if fields.Role != nil {
		account.Role = *fields.Role
	}
	if fields.LastLoginAt != nil {
		login := fields.LastLoginAt.UTC()
		account.LastLoginAt = &login
	}
	account.UpdatedAt = now

	copied := *account
	return &copied, nil
}

func (s *MemoryStore) Get(ctx context.Context, subjectID string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[subjectID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.Email != nil && *account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetRole(ctx context.Context, subjectID string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[subjectID]
	if !ok {
		return ErrNotFound
	}
	account.Role = role
	account.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]*Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].SubjectID < accounts[j].SubjectID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}
