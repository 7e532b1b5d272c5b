package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/infra/observability"
)

// Manager owns the resident session stores, one per signed-in client,
// keyed by the hashed credential. Stores are created on login, revived
// from Storage on first sight of a credential, and evicted when the
// session ends.
type Manager struct {
	storage Storage
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(storage Storage, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		storage: storage,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		stores:  make(map[string]*Store),
	}
}

// Login creates (or replaces) the session for credential and returns
// its store.
func (m *Manager) Login(ctx context.Context, user *domain.UserSummary, credential string) (*Store, error) {
	key := Key(credential)

	m.mu.Lock()
	store, ok := m.stores[key]
	if !ok {
		store = New(ctx, key, m.storage, m.ttl, m.logger)
		m.stores[key] = store
		m.watch(key, store)
		if m.metrics != nil {
			m.metrics.SessionOpened()
		}
	}
	m.mu.Unlock()

	if err := store.Login(ctx, user, credential); err != nil {
		return store, err
	}
	return store, nil
}

// Resolve returns the live session store for credential, reviving a
// persisted one if needed. When no valid session exists the credential
// is expired as far as the portal is concerned.
func (m *Manager) Resolve(ctx context.Context, credential string) (*Store, error) {
	key := Key(credential)

	m.mu.Lock()
	store, ok := m.stores[key]
	if !ok {
		store = New(ctx, key, m.storage, m.ttl, m.logger)
		if !store.LoggedIn() {
			store.Close()
			m.mu.Unlock()
			return nil, &domain.ErrSessionExpired{}
		}
		m.stores[key] = store
		m.watch(key, store)
		if m.metrics != nil {
			m.metrics.SessionOpened()
		}
	}
	m.mu.Unlock()

	if !store.LoggedIn() {
		return nil, &domain.ErrSessionExpired{}
	}
	return store, nil
}

// watch evicts the store once its session clears, whether by logout or
// expiry. Caller holds m.mu.
func (m *Manager) watch(key string, store *Store) {
	store.Subscribe(func(st State) {
		if st.LoggedIn() {
			return
		}
		m.mu.Lock()
		if m.stores[key] == store {
			delete(m.stores, key)
			if m.metrics != nil {
				m.metrics.SessionClosed()
			}
		}
		m.mu.Unlock()
		store.Close()
	})
}

// Close stops every resident store's expiry timer. Persisted sessions
// survive for the next process.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, store := range m.stores {
		store.Close()
		delete(m.stores, key)
	}
}
