package repo

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	perr "voiceform/internal/platform/errors"
	"voiceform/internal/services/questionnaire/domain"
)

// DefaultMemoryCapacity bounds the in-memory store; oldest sessions are
// evicted first once full
const DefaultMemoryCapacity = 10000

// Memory is an in-process session store with per-entry TTL.
// Meant for development and tests; production deployments use the
// Postgres-backed store
type Memory struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, []byte]
}

var _ domain.StorePort = (*Memory)(nil)

// NewMemory constructs a Memory store. capacity <= 0 uses DefaultMemoryCapacity
func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		cache: expirable.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

// Create implements domain.StorePort
func (m *Memory) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cache.Get(s.SessionID); ok {
		return perr.DuplicateKeyf("session %s already exists", s.SessionID)
	}
	s.Version = 1
	return m.set(s)
}

// Get implements domain.StorePort
func (m *Memory) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload, ok := m.cache.Get(sessionID)
	if !ok {
		return nil, perr.NotFoundf("session %s not found", sessionID)
	}
	var s domain.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "unmarshal session")
	}
	return &s, nil
}

// Put implements domain.StorePort. Re-adding resets the entry TTL, which
// gives the rolling expiry the contract asks for
func (m *Memory) Put(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload, ok := m.cache.Get(s.SessionID)
	if !ok {
		return perr.NotFoundf("session %s not found", s.SessionID)
	}
	var cur domain.Session
	if err := json.Unmarshal(payload, &cur); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "unmarshal session")
	}
	if cur.Version != s.Version {
		return perr.Conflictf("session %s modified concurrently", s.SessionID)
	}
	s.Version++
	return m.set(s)
}

// Delete implements domain.StorePort; deleting a missing session is not an error
func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Remove(sessionID)
	return nil
}

// Exists implements domain.StorePort
func (m *Memory) Exists(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.cache.Get(sessionID)
	return ok, nil
}

// Extend implements domain.StorePort
func (m *Memory) Extend(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload, ok := m.cache.Get(sessionID)
	if !ok {
		return perr.NotFoundf("session %s not found", sessionID)
	}
	m.cache.Add(sessionID, payload)
	return nil
}

// set serializes and stores under the caller-held lock
func (m *Memory) set(s *domain.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "marshal session")
	}
	m.cache.Add(s.SessionID, payload)
	return nil
}
