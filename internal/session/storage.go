package session

import (
	"context"
	"sync"
	"time"
)

// Record is the persisted shape of a session: the user summary plus the
// bearer credential, exactly what a browser keeps in durable storage.
type Record struct {
	User       persistedUser `json:"user"`
	Credential string        `json:"credential"`
}

type persistedUser struct {
	ID            string  `json:"id"`
	FullName      string  `json:"fullName"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	WalletBalance float64 `json:"walletBalance"`
}

// Storage persists sessions so a reload (or portal restart) restores
// them. Load returns nil when no record exists.
type Storage interface {
	Load(ctx context.Context, key string) (*Record, error)
	Save(ctx context.Context, key string, rec *Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage is an in-process Storage used in tests and as a
// fallback when Redis is not configured.
type MemoryStorage struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]Record)}
}

func (m *MemoryStorage) Load(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, rec *Record, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = *rec
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}
