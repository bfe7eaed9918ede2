package session

import (
	"sync"
	"time"
)

// Store persists sessions between requests.
type Store interface {
	// Load returns the session for an id, or false when absent or
	// expired.
	Load(id string) (*Session, bool)

	// Save persists a session.
	Save(s *Session)

	// Delete removes a session.
	Delete(id string)
}

// MemoryStore is an in-process session store with TTL expiry and a
// background sweep.
type MemoryStore struct {
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*Session

	sweep    *time.Ticker
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store expiring sessions idle for longer
// than ttl, sweeping expired entries every ttl/4.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	st := &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		sweep:    time.NewTicker(ttl / 4),
		stopped:  make(chan struct{}),
	}
	go st.sweepLoop()
	return st
}

// Load implements Store.
func (st *MemoryStore) Load(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(s.LastSeen) > st.ttl {
		st.Delete(id)
		return nil, false
	}
	return s, true
}

// Save implements Store.
func (st *MemoryStore) Save(s *Session) {
	s.LastSeen = time.Now()
	s.isNew = false
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

// Delete implements Store.
func (st *MemoryStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *MemoryStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close stops the background sweep.
func (st *MemoryStore) Close() {
	st.stopOnce.Do(func() {
		st.sweep.Stop()
		close(st.stopped)
	})
}

func (st *MemoryStore) sweepLoop() {
	for {
		select {
		case <-st.stopped:
			return
		case <-st.sweep.C:
			cutoff := time.Now().Add(-st.ttl)
			st.mu.Lock()
			for id, s := range st.sessions {
				if s.LastSeen.Before(cutoff) {
					delete(st.sessions, id)
				}
			}
			st.mu.Unlock()
		}
	}
}
