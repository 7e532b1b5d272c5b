// Package profile caches the signed-in user's profile, coupled to the
// session lifecycle: the profile appears when a credential does and is
// cleared the moment the session ends.
package profile

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/port"
	"github.com/freshpress/portal-bff-go/internal/session"
)

// Store holds the cached profile for one session. It subscribes to the
// session store so the coupling invariant needs no caller discipline:
// profile non-nil implies a live credential, and a cleared credential
// clears the profile in the same dispatch.
type Store struct {
	api      port.ProfileAPI
	sessions *session.Store
	notifier port.Notifier
	logger   *zap.Logger
	dispose  func()

	mu      sync.Mutex
	profile *domain.Profile
	lastErr error
	loading bool
}

// NewStore builds the profile store and, when the session already
// carries a credential, performs the initial fetch before returning.
func NewStore(ctx context.Context, api port.ProfileAPI, sess *session.Store, notifier port.Notifier, logger *zap.Logger) *Store {
	s := &Store{
		api:      api,
		sessions: sess,
		notifier: notifier,
		logger:   logger,
	}
	s.dispose = sess.Subscribe(func(st session.State) {
		if st.LoggedIn() {
			if err := s.Refresh(context.Background()); err != nil {
				logger.Warn("profile fetch after login failed", zap.Error(err))
			}
			return
		}
		s.reset()
	})
	if sess.LoggedIn() {
		if err := s.Refresh(ctx); err != nil {
			logger.Warn("initial profile fetch failed", zap.Error(err))
		}
	}
	return s
}

// Refresh re-fetches the profile for the current credential. A missing
// credential clears the cache instead of calling out. An expired
// credential reported by the backend tears the session down.
func (s *Store) Refresh(ctx context.Context) error {
	cred := s.sessions.Credential()
	if cred == "" {
		s.reset()
		return nil
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	p, err := s.api.GetProfile(ctx, cred)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		var expired *domain.ErrSessionExpired
		if errors.As(err, &expired) {
			s.sessions.Logout(ctx)
		}
		return err
	}
	s.profile = p
	s.lastErr = nil
	s.mu.Unlock()

	// Keep the session's user summary (and its stale wallet snapshot)
	// in step with the authoritative profile.
	s.sessions.RefreshUser(ctx, &domain.UserSummary{
		ID:            p.ID,
		FullName:      p.FullName,
		Email:         p.Email,
		Role:          p.Role,
		WalletBalance: p.WalletBalance,
	})
	return nil
}

// Update submits profile changes and refreshes the cache from the
// returned profile. The error is recorded and returned so callers can
// surface it; the previously cached profile stays intact on failure.
func (s *Store) Update(ctx context.Context, upd *domain.ProfileUpdate) (*domain.Profile, error) {
	cred := s.sessions.Credential()
	if cred == "" {
		return nil, &domain.ErrUnauthorized{Message: "not signed in"}
	}

	p, err := s.api.UpdateProfile(ctx, cred, upd)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		if s.notifier != nil {
			s.notifier.Error("Profile update failed")
		}
		var expired *domain.ErrSessionExpired
		if errors.As(err, &expired) {
			s.sessions.Logout(ctx)
		}
		return nil, err
	}

	s.mu.Lock()
	s.profile = p
	s.lastErr = nil
	s.mu.Unlock()
	if s.notifier != nil {
		s.notifier.Success("Profile updated")
	}
	return p, nil
}

// Profile returns the cached profile, nil when none is loaded.
func (s *Store) Profile() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// WalletBalance reports the cached balance. The second return is false
// when no profile is loaded, in which case guards that depend on the
// balance should stand aside.
func (s *Store) WalletBalance() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return 0, false
	}
	return s.profile.WalletBalance, true
}

// Err returns the error recorded by the last failed fetch or update,
// nil after a success.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) reset() {
	s.mu.Lock()
	s.profile = nil
	s.lastErr = nil
	s.loading = false
	s.mu.Unlock()
}

// Close detaches the store from the session.
func (s *Store) Close() {
	if s.dispose != nil {
		s.dispose()
	}
}
