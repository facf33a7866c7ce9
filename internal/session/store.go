package session

import (
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"lixi-studio/internal/envelope"
)

var ErrGenerationInFlight = errors.New("generation already in progress for this side")

// Session is one user's design workspace. Values handed out by the store are
// copies; mutate through Update.
type Session struct {
	ID           string
	State        envelope.State
	Error        string
	Generating   map[envelope.Side]bool
	LastActivity time.Time
}

func (s Session) IsGenerating(side envelope.Side) bool {
	return s.Generating[side]
}

type Options struct {
	Catalog         *envelope.Catalog
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

type Store struct {
	mu      sync.Mutex
	items   *cache.Cache
	catalog *envelope.Catalog
	ttl     time.Duration
}

func NewStore(opts Options) *Store {
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	cat := opts.Catalog
	if cat == nil {
		cat = envelope.DefaultCatalog()
	}

	return &Store{
		items:   cache.New(ttl, cleanup),
		catalog: cat,
		ttl:     ttl,
	}
}

func (s *Store) Catalog() *envelope.Catalog { return s.catalog }

func (s *Store) Len() int { return s.items.ItemCount() }

// Snapshot returns a copy of the session, creating it on first access.
func (s *Store) Snapshot(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copySession(s.touchLocked(id))
}

// Update applies fn to the live state under the store lock and returns the
// resulting snapshot.
func (s *Store) Update(id string, fn func(*envelope.State)) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touchLocked(id)
	if fn != nil {
		fn(&sess.State)
	}
	return copySession(sess)
}

// BeginGeneration marks side as in flight. The returned release func clears
// the mark and is safe to call more than once.
func (s *Store) BeginGeneration(id string, side envelope.Side) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touchLocked(id)
	if sess.Generating[side] {
		return nil, ErrGenerationInFlight
	}
	sess.Generating[side] = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if cur, ok := s.getLocked(id); ok {
				delete(cur.Generating, side)
			}
		})
	}
	return release, nil
}

func (s *Store) SetError(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchLocked(id).Error = msg
}

// Reset replaces the state with defaults. In-flight marks survive so a
// running call still guards its side.
func (s *Store) Reset(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touchLocked(id)
	sess.State = envelope.NewState(s.catalog)
	sess.Error = ""
	return copySession(sess)
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Delete(id)
}

func (s *Store) getLocked(id string) (*Session, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	return sess, ok
}

// touchLocked returns the live session and pushes its expiry forward.
func (s *Store) touchLocked(id string) *Session {
	sess, ok := s.getLocked(id)
	if !ok {
		sess = &Session{
			ID:         id,
			State:      envelope.NewState(s.catalog),
			Generating: make(map[envelope.Side]bool),
		}
	}
	sess.LastActivity = time.Now()
	s.items.Set(id, sess, s.ttl)
	return sess
}

func copySession(sess *Session) Session {
	out := Session{
		ID:           sess.ID,
		State:        sess.State.Clone(),
		Error:        sess.Error,
		Generating:   make(map[envelope.Side]bool, len(sess.Generating)),
		LastActivity: sess.LastActivity,
	}
	for side, v := range sess.Generating {
		out.Generating[side] = v
	}
	return out
}
