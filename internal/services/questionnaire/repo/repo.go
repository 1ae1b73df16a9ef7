// Package repo provides session storage implementations for the questionnaire
package repo

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	stderrs "errors"
	"time"

	"voiceform/internal/modkit/repokit"
	perr "voiceform/internal/platform/errors"
	"voiceform/internal/services/questionnaire/domain"
)

type binder struct{ ttl time.Duration }

// NewPG constructs a repo binder for Postgres with a rolling session TTL
func NewPG(ttl time.Duration) repokit.Binder[Storage] { return binder{ttl: ttl} }

// Bind implements repokit.Binder
func (b binder) Bind(q repokit.Queryer) Storage { return &pg{q: q, ttl: b.ttl} }

// Storage defines the session repository
type Storage interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Extend(ctx context.Context, sessionID string) error
}

type pg struct {
	q   repokit.Queryer
	ttl time.Duration
}

// Sessions live in a single jsonb payload column; version is the
// compare-and-swap token guarding concurrent writers.
//
//	CREATE TABLE sessions (
//	    session_id uuid PRIMARY KEY,
//	    payload    jsonb NOT NULL,
//	    status     text NOT NULL,
//	    version    bigint NOT NULL DEFAULT 1,
//	    created_at timestamptz NOT NULL DEFAULT now(),
//	    updated_at timestamptz NOT NULL DEFAULT now(),
//	    expires_at timestamptz NOT NULL
//	);

// Create implements Storage
func (s *pg) Create(ctx context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "marshal session")
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO sessions (session_id, payload, status, version, expires_at)
		VALUES ($1, $2, $3, 1, now() + make_interval(secs => $4))
	`, sess.SessionID, payload, string(sess.Status), s.interval())
	if err != nil {
		return perr.FromPostgresf(err, "create session %s", sess.SessionID)
	}
	sess.Version = 1
	return nil
}

// Get implements Storage; expired rows are treated as not found
func (s *pg) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	var (
		payload []byte
		version int64
	)
	err := s.q.QueryRow(ctx, `
		SELECT payload, version
		FROM sessions
		WHERE session_id = $1 AND expires_at > now()
	`, sessionID).Scan(&payload, &version)
	if err != nil {
		if stderrs.Is(err, stdsql.ErrNoRows) {
			return nil, perr.NotFoundf("session %s not found", sessionID)
		}
		return nil, perr.FromPostgresf(err, "get session %s", sessionID)
	}

	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "unmarshal session")
	}
	sess.Version = version
	return &sess, nil
}

// Put implements Storage. The write refreshes the TTL and only lands when
// the caller's version matches the stored one; a mismatch means another
// writer got there first
func (s *pg) Put(ctx context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "marshal session")
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE sessions
		SET payload = $2,
			status = $3,
			version = version + 1,
			updated_at = now(),
			expires_at = now() + make_interval(secs => $4)
		WHERE session_id = $1 AND version = $5 AND expires_at > now()
	`, sess.SessionID, payload, string(sess.Status), s.interval(), sess.Version)
	if err != nil {
		return perr.FromPostgresf(err, "put session %s", sess.SessionID)
	}
	if tag.RowsAffected() == 0 {
		ok, eerr := s.Exists(ctx, sess.SessionID)
		if eerr == nil && !ok {
			return perr.NotFoundf("session %s not found", sess.SessionID)
		}
		return perr.Conflictf("session %s modified concurrently", sess.SessionID)
	}
	sess.Version++
	return nil
}

// Delete implements Storage; deleting a missing session is not an error
func (s *pg) Delete(ctx context.Context, sessionID string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return perr.FromPostgresf(err, "delete session %s", sessionID)
	}
	return nil
}

// Exists implements Storage
func (s *pg) Exists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := s.q.QueryRow(ctx, `
		SELECT 1 FROM sessions WHERE session_id = $1 AND expires_at > now()
	`, sessionID).Scan(&one)
	if err != nil {
		if stderrs.Is(err, stdsql.ErrNoRows) {
			return false, nil
		}
		return false, perr.FromPostgresf(err, "exists session %s", sessionID)
	}
	return true, nil
}

// Extend implements Storage; pushes the TTL forward without touching the payload
func (s *pg) Extend(ctx context.Context, sessionID string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE sessions
		SET expires_at = now() + make_interval(secs => $2)
		WHERE session_id = $1 AND expires_at > now()
	`, sessionID, s.interval())
	if err != nil {
		return perr.FromPostgresf(err, "extend session %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("session %s not found", sessionID)
	}
	return nil
}

func (s *pg) interval() float64 {
	return s.ttl.Seconds()
}
