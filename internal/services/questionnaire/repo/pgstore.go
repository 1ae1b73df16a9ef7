package repo

import (
	"context"
	"time"

	"voiceform/internal/modkit/repokit"
	"voiceform/internal/services/questionnaire/domain"
)

// PGStore adapts the Postgres repository to domain.StorePort
type PGStore struct {
	tx     repokit.TxRunner
	binder repokit.Binder[Storage]
}

var _ domain.StorePort = (*PGStore)(nil)

// NewPGStore constructs a Postgres-backed session store with the given TTL
func NewPGStore(tx repokit.TxRunner, ttl time.Duration) *PGStore {
	return &PGStore{tx: tx, binder: NewPG(ttl)}
}

// Create implements domain.StorePort
func (p *PGStore) Create(ctx context.Context, s *domain.Session) error {
	return p.binder.Bind(p.tx).Create(ctx, s)
}

// Get implements domain.StorePort
func (p *PGStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return p.binder.Bind(p.tx).Get(ctx, sessionID)
}

// Put implements domain.StorePort
func (p *PGStore) Put(ctx context.Context, s *domain.Session) error {
	return p.binder.Bind(p.tx).Put(ctx, s)
}

// Delete implements domain.StorePort
func (p *PGStore) Delete(ctx context.Context, sessionID string) error {
	return p.binder.Bind(p.tx).Delete(ctx, sessionID)
}

// Exists implements domain.StorePort
func (p *PGStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	return p.binder.Bind(p.tx).Exists(ctx, sessionID)
}

// Extend implements domain.StorePort
func (p *PGStore) Extend(ctx context.Context, sessionID string) error {
	return p.binder.Bind(p.tx).Extend(ctx, sessionID)
}
