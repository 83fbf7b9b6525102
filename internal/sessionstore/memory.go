package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/persistence"
)

const (
	defaultTTL        = 2 * time.Hour
	defaultMaxEntries = 1024
)

// MemoryStore is a process-local session store. Sessions are kept as encoded
// JSON so callers never share slices with the store.
type MemoryStore struct {
	mu         sync.Mutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStore returns a MemoryStore. ttl applies to sessions saved without
// an expiry; once maxEntries is reached the entry closest to expiry is evicted.
func NewMemoryStore(ttl time.Duration, maxEntries int, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]memoryEntry),
	}
}

// Save stores or replaces a session.
func (s *MemoryStore) Save(ctx context.Context, session application.AssignmentSession) error {
	if session.ID == "" {
		return fmt.Errorf("session id is required: %w", persistence.ErrConstraintViolation)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	expiresAt := session.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	if _, exists := s.entries[session.ID]; !exists && len(s.entries) >= s.maxEntries {
		s.evictOneLocked()
	}
	s.entries[session.ID] = memoryEntry{payload: payload, expiresAt: expiresAt}
	return nil
}

// Load returns a session or persistence.ErrNotFound when it is unknown or expired.
func (s *MemoryStore) Load(ctx context.Context, id string) (application.AssignmentSession, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return application.AssignmentSession{}, persistence.ErrNotFound
	}

	var session application.AssignmentSession
	if err := json.Unmarshal(entry.payload, &session); err != nil {
		return application.AssignmentSession{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) cleanupLocked() {
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func (s *MemoryStore) evictOneLocked() {
	var (
		victim string
		oldest time.Time
	)
	for key, entry := range s.entries {
		if victim == "" || entry.expiresAt.Before(oldest) {
			victim, oldest = key, entry.expiresAt
		}
	}
	if victim != "" {
		delete(s.entries, victim)
	}
}

var _ application.SessionStore = (*MemoryStore)(nil)
