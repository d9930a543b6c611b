// Package session keeps the per-session state the captioning pipeline routes
// on: the configured language pair and the set of transcripts already seen.
package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// Pair is the two languages configured for a session. It is unordered for
// routing purposes: a detected language maps to the other member.
type Pair struct {
	First  string `json:"language1"`
	Second string `json:"language2"`
}

// state is the mutable state of one session. Concurrent chunks of the same
// session share the same *state.
type state struct {
	mu         sync.Mutex
	pair       *Pair
	seen       map[string]struct{}
	lastActive time.Time
}

func (s *state) touch(now time.Time) {
	s.lastActive = now
}

// Store is the process-wide table of active sessions. The zero value is not
// usable; construct with NewStore.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*state),
		now:      time.Now,
	}
}

// get returns the session state for id, creating it if missing. Creation is
// atomic: concurrent callers for the same id always share one state.
func (s *Store) get(id string) *state {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[id]; ok {
		return st
	}
	st = &state{seen: make(map[string]struct{}), lastActive: s.now()}
	s.sessions[id] = st
	return st
}

// lookup returns the session state for id without creating it.
func (s *Store) lookup(id string) (*state, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	return st, ok
}

// UpsertPair sets the language pair of a session, creating the session if
// needed. The duplicate set is left untouched.
func (s *Store) UpsertPair(id, lang1, lang2 string) {
	st := s.get(id)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pair = &Pair{First: lang1, Second: lang2}
	st.touch(s.now())
}

// Init configures the language pair of a session and resets its duplicate
// set, as requested by an "init session" message.
func (s *Store) Init(id, lang1, lang2 string) {
	st := s.get(id)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pair = &Pair{First: lang1, Second: lang2}
	st.seen = make(map[string]struct{})
	st.touch(s.now())
}

// Pair returns the configured language pair of a session.
func (s *Store) Pair(id string) (Pair, bool) {
	st, ok := s.lookup(id)
	if !ok {
		return Pair{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.pair == nil {
		return Pair{}, false
	}
	return *st.pair, true
}

// Clear forgets a session entirely: its pair and its duplicate set.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle removes sessions whose last activity is older than idle and
// returns how many were removed.
func (s *Store) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, st := range s.sessions {
		st.mu.Lock()
		stale := st.lastActive.Before(cutoff)
		st.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

const minJanitorInterval = time.Second

// janitorInterval defaults a non-positive interval to idle/2 and never
// returns less than minJanitorInterval.
func janitorInterval(idle, interval time.Duration) time.Duration {
	if interval <= 0 {
		interval = idle / 2
	}
	return max(interval, minJanitorInterval)
}

// RunJanitor evicts idle sessions every interval until ctx is done.
// A non-positive idle disables eviction and returns immediately.
func (s *Store) RunJanitor(ctx context.Context, idle, interval time.Duration, logger *log.Logger) {
	if idle <= 0 {
		return
	}

	ticker := time.NewTicker(janitorInterval(idle, interval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(idle); n > 0 && logger != nil {
				logger.Printf("session: evicted %d idle sessions (%d remaining)", n, s.Len())
			}
		}
	}
}

// Normalize returns the form of a transcript used for duplicate detection:
// lower-cased with surrounding whitespace trimmed.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// CheckAndRecord reports whether text was already seen in the session. On
// first occurrence it records the normalized text and returns false. The
// check and the insert happen under one lock, so two overlapping chunks with
// the same transcript cannot both pass.
func (s *Store) CheckAndRecord(id, text string) bool {
	key := Normalize(text)
	st := s.get(id)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.touch(s.now())

	if _, dup := st.seen[key]; dup {
		return true
	}
	st.seen[key] = struct{}{}
	return false
}
