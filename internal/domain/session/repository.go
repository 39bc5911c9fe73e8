package session

import (
	"context"
	"errors"
	"time"
)

// ErrTransitionNotRecorded reports that a session write succeeded but
// its audit row could not be appended. The audit log is best-effort; a
// logging failure must not fail the save, so callers treat this as a
// degraded success.
var ErrTransitionNotRecorded = errors.New("state transition not recorded")

// Repository defines persistence for application sessions. Implementations
// return (nil, nil) when a row is not found.
type Repository interface {
	// Upsert writes the session alone, without an audit row. Used for
	// bookkeeping rewrites that do not represent a step transition.
	Upsert(ctx context.Context, s *Session) error
	// UpsertWithTransition writes the session and appends the audit row
	// inside one per-record atomicity boundary. When only the audit row
	// fails, the session is written anyway and the error wraps
	// ErrTransitionNotRecorded.
	UpsertWithTransition(ctx context.Context, s *Session, t *StateTransition) error
	GetBySessionID(ctx context.Context, sessionID string) (*Session, error)
	GetByUserIdentifier(ctx context.Context, userIdentifier string, channel *Channel) (*Session, error)
	// ListIdle returns live sessions on the channel whose last update is
	// older than idleBefore, oldest first.
	ListIdle(ctx context.Context, channel Channel, idleBefore time.Time, limit int) ([]*Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// TransitionRepository persists the append-only step audit log.
type TransitionRepository interface {
	Create(ctx context.Context, t *StateTransition) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*StateTransition, error)
}

// ReferenceCodeRepository maps resume codes to sessions.
type ReferenceCodeRepository interface {
	// Upsert replaces any existing code for the same session.
	Upsert(ctx context.Context, c *ReferenceCode) error
	GetByCode(ctx context.Context, code string) (*ReferenceCode, error)
	GetBySessionID(ctx context.Context, sessionID string) (*ReferenceCode, error)
	ExtendExpiry(ctx context.Context, code string, expiresAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
