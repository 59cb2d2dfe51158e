package http

import (
	"context"
	"sync"
	"time"

	"github.com/almahra/cart-engine/internal/cart/cache"
	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
	cartsync "github.com/almahra/cart-engine/internal/cart/sync"
	"github.com/almahra/cart-engine/pkg/logger"
)

const (
	// sessionTTL is how long an untouched session is kept before its
	// synchronizer is shut down and the session released. Cart state
	// survives eviction through the snapshot cache.
	sessionTTL = 30 * time.Minute

	sweepInterval = 5 * time.Minute
)

// Session binds one cart store to one synchronizer. Authenticated sessions
// are keyed by user id, guest sessions by a generated session id; both share
// the same durable cache.
type Session struct {
	Store  *store.Store
	Syncer *cartsync.Synchronizer

	mu     sync.Mutex
	token  string
	folded bool

	lastSeen time.Time // guarded by the manager's lock
}

// Token returns the session's current bearer token
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticate records the session's bearer token and, on first call, folds
// the remote cart into the local store. A failed fold is logged; the session
// still mirrors subsequent mutations.
func (s *Session) Authenticate(ctx context.Context, token string) {
	s.mu.Lock()
	s.token = token
	first := !s.folded
	s.folded = true
	s.mu.Unlock()

	if !first || s.Syncer == nil {
		return
	}

	if err := s.Syncer.Login(ctx, s.Store); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("session", s.Store.Key()).
			Msg("Login cart fold failed")
	}
}

// Logout returns the session's synchronizer to the unauthenticated state.
// Local cart state is left untouched.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.folded = false
	s.mu.Unlock()
	if s.Syncer != nil {
		s.Syncer.Logout()
	}
}

// AdoptGuest folds a guest session's items into this session with ordinary
// add transitions and empties the guest cart. Authenticated sessions mirror
// the adopted items to the remote cart like any other add. Safe to call on
// every request carrying both credentials: an adopted guest cart is empty.
func (s *Session) AdoptGuest(ctx context.Context, guest *Session) {
	if guest == nil || guest == s {
		return
	}

	items := guest.Store.Items()
	if len(items) == 0 {
		return
	}

	for _, item := range items {
		// carry the captured unit price, not the catalog price
		product := item.Product
		product.Price = item.UnitPrice
		s.Store.Dispatch(ctx, domain.AddItem{
			Product:  product,
			Variant:  item.Variant,
			Quantity: item.Quantity,
		})
	}
	guest.Store.Dispatch(ctx, domain.ClearCart{})

	logger.Info(ctx).
		Str("guest", guest.Store.Key()).
		Str("session", s.Store.Key()).
		Int("items", len(items)).
		Msg("Guest cart folded into session")
}

// SessionManager hands out per-session cart stores wired to the durable
// cache and a remote synchronizer.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	snap      cache.Snapshotter
	remoteURL string
	policy    cartsync.FoldPolicy

	done      chan struct{}
	closeOnce sync.Once
}

// NewSessionManager creates a session manager. remoteURL may be empty, in
// which case sessions get no remote synchronizer and stay local-only.
// Sessions idle past sessionTTL are evicted by a background sweep.
func NewSessionManager(snap cache.Snapshotter, remoteURL string, policy cartsync.FoldPolicy) *SessionManager {
	m := &SessionManager{
		sessions:  make(map[string]*Session),
		snap:      snap,
		remoteURL: remoteURL,
		policy:    policy,
		done:      make(chan struct{}),
	}
	go m.janitor()
	return m
}

// janitor periodically evicts idle sessions until Close
func (m *SessionManager) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

// evictIdle releases sessions untouched for sessionTTL, shutting down their
// synchronizers. A returning session rehydrates from its snapshot.
func (m *SessionManager) evictIdle(now time.Time) {
	m.mu.Lock()
	var evicted []*Session
	for key, sess := range m.sessions {
		if now.Sub(sess.lastSeen) > sessionTTL {
			delete(m.sessions, key)
			evicted = append(evicted, sess)
			logger.Logger.Debug().
				Str("session", key).
				Msg("Idle cart session evicted")
		}
	}
	m.mu.Unlock()

	for _, sess := range evicted {
		if sess.Syncer != nil {
			sess.Syncer.Close()
		}
	}
}

// Get returns the session for the key, creating it on first use
func (m *SessionManager) Get(ctx context.Context, key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[key]; ok {
		sess.lastSeen = time.Now()
		return sess
	}

	sess := &Session{lastSeen: time.Now()}

	var mirror store.Mirror
	if m.remoteURL != "" {
		client := cartsync.NewClient(m.remoteURL, sess.Token)
		sess.Syncer = cartsync.NewSynchronizer(client, m.policy)
		mirror = sess.Syncer
	}

	sess.Store = store.New(ctx, key, m.snap, mirror)
	m.sessions[key] = sess

	logger.Debug(ctx).
		Str("session", key).
		Msg("Cart session created")

	return sess
}

// Lookup returns the session for the key if one is live, without creating it
func (m *SessionManager) Lookup(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[key]
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the janitor and shuts down every session's synchronizer,
// draining queued remote ops
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		if sess.Syncer != nil {
			sess.Syncer.Close()
		}
	}
}
