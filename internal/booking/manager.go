package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
)

type roomGetter interface {
	GetByID(ctx context.Context, id int64) (*room.Room, error)
}

// Config holds the dependencies of a Manager.
type Config struct {
	Remote        Remote
	Rooms         roomGetter
	Recorder      Recorder
	Metrics       Metrics
	Logger        *slog.Logger
	BookingSource string
	// TTL is how long a session may stay idle before it is dropped.
	TTL time.Duration
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager holds the open sessions. Idle sessions are evicted lazily when
// the registry is accessed.
type Manager struct {
	deps  deps
	rooms roomGetter
	ttl   time.Duration
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(cfg Config) *Manager {
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps: deps{
			remote:   cfg.Remote,
			recorder: cfg.Recorder,
			metrics:  cfg.Metrics,
			logger:   cfg.Logger,
			source:   cfg.BookingSource,
		},
		rooms:    cfg.Rooms,
		ttl:      cfg.TTL,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*entry),
	}
}

// Open loads the room and starts a new session for it.
func (m *Manager) Open(ctx context.Context, roomID int64, lang string) (*Session, error) {
	r, err := m.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	s := newSession(m.ctx, uuid.New().String(), r, ParseLanguage(lang), m.deps)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked()
	m.sessions[s.id] = &entry{session: s, lastSeen: m.now()}
	m.deps.metrics.SessionOpened()

	s.logger.Info("Booking session opened", "language", s.lang)
	return s, nil
}

// Get returns an open session and marks it as active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.now()
	return e.session, nil
}

// Close discards a session and its draft. A session with a submission in
// flight cannot be closed until it settles.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if e.session.isSubmitting() {
		m.mu.Unlock()
		return ErrSubmitInFlight
	}
	delete(m.sessions, id)
	m.deps.metrics.SessionClosed()
	m.mu.Unlock()

	e.session.close()
	e.session.logger.Info("Booking session closed")
	return nil
}

// Len reports the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown cancels the fetches of every session.
func (m *Manager) Shutdown() {
	m.cancel()
}

// evictLocked drops sessions idle for longer than the TTL. A session with a
// submission in flight is kept until it settles.
func (m *Manager) evictLocked() {
	cutoff := m.now().Add(-m.ttl)
	for id, e := range m.sessions {
		if !e.lastSeen.Before(cutoff) {
			continue
		}
		if e.session.isSubmitting() {
			continue
		}
		delete(m.sessions, id)
		m.deps.metrics.SessionClosed()
		e.session.close()
		e.session.logger.Info("Booking session expired")
	}
}
