package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
)

// State is a snapshot of a session. User is non-nil exactly when
// Credential is non-empty; the two always change together.
type State struct {
	User       *domain.UserSummary
	Credential string
}

func (s State) LoggedIn() bool { return s.Credential != "" }

// Store holds one client's session in memory, persists it through a
// Storage, and expires it when the credential's embedded lifetime runs
// out. All methods are safe for concurrent use.
type Store struct {
	key     string
	storage Storage
	ttl     time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	user    *domain.UserSummary
	cred    string
	timer   *time.Timer
	subs    map[int]func(State)
	nextSub int
	closed  bool
}

// Key derives the storage key for a credential. The raw token never
// appears in Redis keys or logs.
func Key(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return "session:" + hex.EncodeToString(sum[:])
}

// New constructs a Store and restores any persisted session for key.
// A restored credential whose embedded expiry has already passed, or
// that cannot be decoded at all, is treated as expired and cleared
// before New returns. Restore failures are logged, not surfaced: a
// broken record just means the client logs in again.
func New(ctx context.Context, key string, storage Storage, ttl time.Duration, logger *zap.Logger) *Store {
	s := &Store{
		key:     key,
		storage: storage,
		ttl:     ttl,
		logger:  logger,
		subs:    make(map[int]func(State)),
	}

	rec, err := storage.Load(ctx, key)
	if err != nil {
		logger.Warn("session restore failed", zap.Error(err))
		return s
	}
	if rec == nil || rec.Credential == "" {
		return s
	}

	exp, err := credentialExpiry(rec.Credential)
	if err != nil || !exp.After(time.Now()) {
		// Expired or undecodable sessions are cleared synchronously so
		// callers never observe a stale credential.
		if derr := storage.Delete(ctx, key); derr != nil {
			logger.Warn("expired session cleanup failed", zap.Error(derr))
		}
		return s
	}

	s.user = restoredUser(rec.User)
	s.cred = rec.Credential
	s.timer = time.AfterFunc(time.Until(exp), s.expire)
	return s
}

func restoredUser(p persistedUser) *domain.UserSummary {
	return &domain.UserSummary{
		ID:            p.ID,
		FullName:      p.FullName,
		Email:         p.Email,
		Role:          domain.Role(p.Role),
		WalletBalance: p.WalletBalance,
	}
}

// credentialExpiry decodes the expiry claim without verifying the
// signature. The backend signed the token; the portal only needs to
// know when to drop it.
func credentialExpiry(credential string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, jwt.ErrTokenInvalidClaims
	}
	return exp.Time, nil
}

// Login stores the user and credential, persists them, and schedules
// expiry. It does not validate the credential beyond decoding its
// lifetime; the backend already vouched for it.
func (s *Store) Login(ctx context.Context, user *domain.UserSummary, credential string) error {
	s.mu.Lock()
	s.stopTimerLocked()
	s.user = user
	s.cred = credential
	if exp, err := credentialExpiry(credential); err == nil && exp.After(time.Now()) {
		s.timer = time.AfterFunc(time.Until(exp), s.expire)
	}
	rec := &Record{
		User: persistedUser{
			ID:            user.ID,
			FullName:      user.FullName,
			Email:         user.Email,
			Role:          string(user.Role),
			WalletBalance: user.WalletBalance,
		},
		Credential: credential,
	}
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()

	if err := s.storage.Save(ctx, s.key, rec, s.ttl); err != nil {
		s.logger.Warn("session persist failed", zap.Error(err))
		return err
	}
	return nil
}

// Logout clears the session and its persisted record. Calling it when
// already logged out is a no-op.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	if s.cred == "" {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.user = nil
	s.cred = ""
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.Warn("session delete failed", zap.Error(err))
	}
}

// expire runs when the credential's lifetime elapses.
func (s *Store) expire() {
	s.logger.Info("session credential expired")
	s.Logout(context.Background())
}

// Credential returns the current bearer credential, empty when logged
// out. Callers must read it at call time rather than capturing it.
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// User returns a copy of the signed-in user, nil when logged out.
func (s *Store) User() *domain.UserSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Credential: s.cred}
}

func (s *Store) LoggedIn() bool { return s.Credential() != "" }

// RefreshUser replaces the cached user summary without touching the
// credential, keeping the persisted record in step.
func (s *Store) RefreshUser(ctx context.Context, user *domain.UserSummary) {
	s.mu.Lock()
	if s.cred == "" {
		s.mu.Unlock()
		return
	}
	s.user = user
	rec := &Record{
		User: persistedUser{
			ID:            user.ID,
			FullName:      user.FullName,
			Email:         user.Email,
			Role:          string(user.Role),
			WalletBalance: user.WalletBalance,
		},
		Credential: s.cred,
	}
	s.mu.Unlock()

	if err := s.storage.Save(ctx, s.key, rec, s.ttl); err != nil {
		s.logger.Warn("session persist failed", zap.Error(err))
	}
}

// Subscribe registers fn to run on every session change. The returned
// disposer removes the subscription; calling it twice is harmless.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// notifyLocked snapshots the subscribers and current state under the
// lock and returns a closure that dispatches them. The caller invokes
// it after unlocking so handlers may call back into the store.
func (s *Store) notifyLocked() func() {
	state := State{User: s.user, Credential: s.cred}
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(state)
		}
	}
}

// Close stops the expiry timer without clearing the persisted session.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
