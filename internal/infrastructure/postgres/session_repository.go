package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// SessionRepository implements session.Repository over Postgres. The
// form_data and metadata documents are stored whole as JSONB; every
// write replaces the full document.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, session_id, channel, user_identifier, current_step,
	form_data, metadata, reference_code, reference_code_expires_at,
	expires_at, created_at, updated_at`

// Upsert writes the session keyed by session_id, replacing the stored
// documents whole, and fills in ID/CreatedAt/UpdatedAt from the row.
func (r *SessionRepository) Upsert(ctx context.Context, s *session.Session) error {
	return r.upsert(ctx, r.pool, s)
}

// UpsertWithTransition writes the session and appends its audit row in
// one transaction. The save is the authoritative action: when only the
// transition insert fails, the session is rewritten alone and the error
// wraps session.ErrTransitionNotRecorded.
func (r *SessionRepository) UpsertWithTransition(ctx context.Context, s *session.Session, t *session.StateTransition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.upsert(ctx, tx, s); err != nil {
		return err
	}
	if t != nil {
		if err := insertTransition(ctx, tx, t); err != nil {
			_ = tx.Rollback(ctx)
			if upErr := r.upsert(ctx, r.pool, s); upErr != nil {
				return upErr
			}
			return fmt.Errorf("%w: %v", session.ErrTransitionNotRecorded, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *SessionRepository) upsert(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, s *session.Session) error {
	formData, err := json.Marshal(s.FormData)
	if err != nil {
		return fmt.Errorf("failed to encode form_data: %w", err)
	}
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	now := time.Now().UTC()
	row := q.QueryRow(ctx, `
		INSERT INTO application_sessions
		(session_id, channel, user_identifier, current_step, form_data, metadata,
		 reference_code, reference_code_expires_at, expires_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
		ON CONFLICT (session_id) DO UPDATE SET
			channel = EXCLUDED.channel,
			user_identifier = EXCLUDED.user_identifier,
			current_step = EXCLUDED.current_step,
			form_data = EXCLUDED.form_data,
			metadata = EXCLUDED.metadata,
			reference_code = EXCLUDED.reference_code,
			reference_code_expires_at = EXCLUDED.reference_code_expires_at,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, s.SessionID, s.Channel, s.UserIdentifier, s.CurrentStep, formData, metadata,
		s.ReferenceCode, s.ReferenceCodeExpires, s.ExpiresAt, now)
	return row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM application_sessions WHERE session_id=$1
	`, sessionID)
	return scanSession(row)
}

func (r *SessionRepository) GetByUserIdentifier(ctx context.Context, userIdentifier string, channel *session.Channel) (*session.Session, error) {
	var row pgx.Row
	if channel != nil {
		row = r.pool.QueryRow(ctx, `
			SELECT `+sessionColumns+`
			FROM application_sessions
			WHERE user_identifier=$1 AND channel=$2 AND expires_at > $3
			ORDER BY updated_at DESC LIMIT 1
		`, userIdentifier, *channel, time.Now().UTC())
	} else {
		row = r.pool.QueryRow(ctx, `
			SELECT `+sessionColumns+`
			FROM application_sessions
			WHERE user_identifier=$1 AND expires_at > $2
			ORDER BY updated_at DESC LIMIT 1
		`, userIdentifier, time.Now().UTC())
	}
	return scanSession(row)
}

func (r *SessionRepository) ListIdle(ctx context.Context, channel session.Channel, idleBefore time.Time, limit int) ([]*session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM application_sessions
		WHERE channel=$1 AND updated_at < $2 AND expires_at > $3
		  AND current_step NOT IN ('completed', 'idle_continue')
		ORDER BY updated_at ASC LIMIT $4
	`, channel, idleBefore, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM application_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(res.RowsAffected()), nil
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var formData, metadata []byte
	if err := row.Scan(&s.ID, &s.SessionID, &s.Channel, &s.UserIdentifier, &s.CurrentStep,
		&formData, &metadata, &s.ReferenceCode, &s.ReferenceCodeExpires,
		&s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &s.FormData); err != nil {
			return nil, fmt.Errorf("failed to decode form_data: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &s, nil
}
