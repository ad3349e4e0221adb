package session

import (
	"context"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjacksim/internal/game"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

// Config configures a Store.
type Config struct {
	TTL    time.Duration
	Seed   int64 // zero seeds from the clock
	Clock  quartz.Clock
	Logger *log.Logger
}

// Store keeps sessions in memory and expires idle ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl    time.Duration
	clock  quartz.Clock
	logger *log.Logger
	seeds  *rand.Rand
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Seed == 0 {
		cfg.Seed = cfg.Clock.Now().UnixNano()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      cfg.TTL,
		clock:    cfg.Clock,
		logger:   cfg.Logger.WithPrefix("sessions"),
		seeds:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Create starts a session playing under rules.
func (st *Store) Create(rules game.Rules) (*Session, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	rng := rand.New(rand.NewSource(st.seeds.Int63()))
	s := newSession(rng, rules, st.clock)
	st.sessions[s.ID] = s
	st.logger.Debug("Created session", "id", s.ID, "sessions", len(st.sessions))
	return s, nil
}

func (st *Store) expired(s *Session, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed) > st.ttl
}

// Get returns a live session. Expired sessions are removed and reported as
// not found.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if st.expired(s, st.clock.Now()) {
		st.remove(id)
		return nil, ErrNotFound
	}
	return s, nil
}

func (st *Store) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	if !st.remove(id) {
		return ErrNotFound
	}
	return nil
}

// List returns live sessions, most recently created first.
func (st *Store) List() []Info {
	st.mu.RLock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.RUnlock()

	now := st.clock.Now()
	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		if st.expired(s, now) {
			continue
		}
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Created.Equal(infos[j].Created) {
			return infos[i].Created.After(infos[j].Created)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Len returns the number of stored sessions, expired ones included.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes expired sessions and returns how many it removed.
func (st *Store) Sweep() int {
	now := st.clock.Now()

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		st.logger.Debug("Swept expired sessions", "removed", removed, "remaining", len(st.sessions))
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (st *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := st.clock.NewTicker(interval, "sessions", "sweep")
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
