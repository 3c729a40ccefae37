package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/cache"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
)

// ErrNotFound is returned for an unknown or expired session id
var ErrNotFound = errors.New("session not found")

// Store keeps sessions keyed by id and drops them after an idle period
type Store struct {
	sessions *cache.MemoryCache
	executor Executor
	idleTTL  time.Duration
}

// NewStore creates a session store. Sessions untouched for idleTTL expire.
func NewStore(executor Executor, idleTTL time.Duration, maxSessions int) *Store {
	sweep := idleTTL / 2
	if sweep > time.Minute {
		sweep = time.Minute
	}
	return &Store{
		sessions: cache.NewMemoryCache(maxSessions, sweep),
		executor: executor,
		idleTTL:  idleTTL,
	}
}

// Create opens a new idle session for def
func (st *Store) Create(def *reports.Definition) *Session {
	s := New(uuid.NewString(), def, st.executor)
	st.sessions.Set(s.ID, s, st.idleTTL)
	return s
}

// Get returns the session and restarts its idle timer
func (st *Store) Get(id string) (*Session, error) {
	v, ok := st.sessions.Touch(id)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*Session), nil
}

// Delete removes a session
func (st *Store) Delete(id string) {
	st.sessions.Delete(id)
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	return st.sessions.Size()
}

// Close stops the expiry sweep
func (st *Store) Close() {
	st.sessions.Close()
}
