// Package session holds the signed-in user and access token, persists them
// to device storage and notifies observers of every change.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aula-lms/internal/domain"
	"aula-lms/internal/observability"
	"aula-lms/internal/storage"
)

var ErrMalformedLoginResponse = errors.New("login response is missing token or user")

// Authenticator exchanges credentials for a token and user
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
}

// State is a snapshot delivered to subscribers.
type State struct {
	Session domain.Session
	Loading bool
}

func (s State) IsAuthenticated() bool { return s.Session.IsAuthenticated() }
func (s State) IsAdmin() bool         { return s.Session.IsAdmin() }
func (s State) IsStudent() bool       { return s.Session.IsStudent() }

// Manager is the single source of truth for authentication on the client.
// Build one per process with NewManager, call Init once, Close on shutdown.
type Manager struct {
	store storage.Store
	auth  Authenticator
	now   func() time.Time

	mu      sync.RWMutex
	session domain.Session
	loading bool
	closed  bool
	subs    map[int]chan State
	nextSub int

	ready     chan struct{}
	readyOnce sync.Once
}

func NewManager(store storage.Store, auth Authenticator) *Manager {
	return &Manager{
		store:   store,
		auth:    auth,
		now:     time.Now,
		loading: true,
		subs:    make(map[int]chan State),
		ready:   make(chan struct{}),
	}
}

// Init hydrates the session from storage. Missing, malformed or expired
// data leaves the session empty; Init never fails.
func (m *Manager) Init(ctx context.Context) {
	logger := observability.FromContext(ctx)

	sess := m.hydrate(ctx)

	m.mu.Lock()
	m.session = sess
	m.loading = false
	m.publishLocked()
	m.mu.Unlock()

	m.readyOnce.Do(func() { close(m.ready) })

	if sess.IsAuthenticated() {
		logger.Info("session restored", "user_id", sess.User.ID)
	} else {
		logger.Debug("no stored session")
	}
}

func (m *Manager) hydrate(ctx context.Context) domain.Session {
	logger := observability.FromContext(ctx)

	token, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to read stored token", "error", err)
		}
		return domain.Session{}
	}

	raw, err := m.store.Get(ctx, storage.KeyUser)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to read stored user", "error", err)
		}
		return domain.Session{}
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logger.Warn("discarding malformed stored user", "error", err)
		return domain.Session{}
	}
	// "null" and "{}" decode cleanly but carry no user
	if user.ID == "" {
		logger.Warn("discarding stored user without an id")
		return domain.Session{}
	}

	if tokenExpired(token, m.now()) {
		logger.Info("discarding expired stored token")
		if err := m.store.Delete(ctx, storage.KeyToken, storage.KeyUser); err != nil {
			logger.Warn("failed to clear expired session", "error", err)
		}
		return domain.Session{}
	}

	return domain.Session{User: &user, Token: token}
}

// tokenExpired reports whether token is a JWT whose exp claim is in the past.
// Opaque tokens and tokens without exp are left to the backend to judge.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Ready is closed once Init has completed
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Token returns the current access token or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}

// Login posts credentials and, on success, stores the session in memory and
// on the device. Backend errors are returned unchanged.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	resp, err := m.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.AccessToken == "" || resp.User == nil {
		return nil, ErrMalformedLoginResponse
	}

	user := *resp.User
	m.persist(ctx, resp.AccessToken, &user)

	m.mu.Lock()
	m.session = domain.Session{User: &user, Token: resp.AccessToken}
	m.publishLocked()
	m.mu.Unlock()

	observability.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return &user, nil
}

// SetUser replaces the stored user after a profile change. It is a no-op
// when nobody is signed in.
func (m *Manager) SetUser(ctx context.Context, user *domain.User) {
	if user == nil {
		return
	}

	m.mu.Lock()
	if !m.session.IsAuthenticated() {
		m.mu.Unlock()
		return
	}
	u := *user
	m.session.User = &u
	token := m.session.Token
	m.publishLocked()
	m.mu.Unlock()

	m.persist(ctx, token, &u)
}

// Logout clears the session from memory and storage. It always succeeds;
// storage failures are logged.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	wasAuthenticated := m.session.IsAuthenticated()
	m.session = domain.Session{}
	m.publishLocked()
	m.mu.Unlock()

	if err := m.store.Delete(ctx, storage.KeyToken, storage.KeyUser); err != nil {
		observability.FromContext(ctx).Warn("failed to clear stored session", "error", err)
	}

	if wasAuthenticated {
		observability.FromContext(ctx).Info("user logged out")
	}
}

func (m *Manager) persist(ctx context.Context, token string, user *domain.User) {
	logger := observability.FromContext(ctx)

	data, err := json.Marshal(user)
	if err != nil {
		logger.Error("failed to encode user", "error", err)
		return
	}
	if err := m.store.Set(ctx, storage.KeyToken, token); err != nil {
		logger.Warn("failed to persist token", "error", err)
		return
	}
	if err := m.store.Set(ctx, storage.KeyUser, string(data)); err != nil {
		logger.Warn("failed to persist user", "error", err)
	}
}

// Subscribe returns a channel carrying the latest state after every change.
// A slow reader only ever sees the newest state. The current state is
// delivered immediately. Call the returned func to unsubscribe.
func (m *Manager) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.snapshotLocked()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
			m.mu.Unlock()
		})
	}
}

// Close ends every subscription. The manager stays readable.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
}

func (m *Manager) snapshotLocked() State {
	sess := m.session
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return State{Session: sess, Loading: m.loading}
}

func (m *Manager) publishLocked() {
	st := m.snapshotLocked()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
