package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mindtek/leadchat/domain"
)

// MemoryStore implements Store with an in-process map. It exists for tests
// and single-node deployments without a database; semantics match
// SQLiteStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
	}
}

// GetSession retrieves a session by ID, or nil if it does not exist.
func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := cloneSession(session)
	return &cp, nil
}

// SaveSession upserts a session by its ID.
func (s *MemoryStore) SaveSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneSession(session)
	s.sessions[session.SessionID] = &cp
	return nil
}

// DeleteSession removes a session. Absence of the record is not an error.
func (s *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// ListSessions returns all sessions ordered by creation time, newest first.
func (s *MemoryStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, cloneSession(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// CountSessions returns the number of stored sessions.
func (s *MemoryStore) CountSessions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions), nil
}

// AttachProfile stores an analysis result on an existing session.
func (s *MemoryStore) AttachProfile(ctx context.Context, sessionID string, profile *domain.CustomerProfile, analyzedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	p := *profile
	at := analyzedAt
	session.Analysis = &p
	session.AnalyzedAt = &at
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// cloneSession copies a session so callers cannot mutate stored state.
func cloneSession(session *domain.Session) domain.Session {
	cp := *session
	cp.Messages = append([]domain.Message(nil), session.Messages...)
	if session.Analysis != nil {
		p := *session.Analysis
		cp.Analysis = &p
	}
	if session.AnalyzedAt != nil {
		at := *session.AnalyzedAt
		cp.AnalyzedAt = &at
	}
	return cp
}
