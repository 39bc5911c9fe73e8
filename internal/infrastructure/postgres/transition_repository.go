package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// TransitionRepository implements session.TransitionRepository. Rows are
// append-only; there is no update or delete path.
type TransitionRepository struct {
	pool *pgxpool.Pool
}

func NewTransitionRepository(pool *pgxpool.Pool) *TransitionRepository {
	return &TransitionRepository{pool: pool}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTransition(ctx context.Context, q execer, t *session.StateTransition) error {
	_, err := q.Exec(ctx, `
		INSERT INTO state_transitions
		(transition_id, session_id, from_step, to_step, channel, trigger_payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, t.TransitionID, t.SessionID, t.FromStep, t.ToStep, t.Channel, []byte(t.Trigger), t.CreatedAt)
	return err
}

func (r *TransitionRepository) Create(ctx context.Context, t *session.StateTransition) error {
	return insertTransition(ctx, r.pool, t)
}

func (r *TransitionRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*session.StateTransition, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, transition_id, session_id, from_step, to_step, channel, trigger_payload, created_at
		FROM state_transitions
		WHERE session_id=$1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*session.StateTransition
	for rows.Next() {
		var t session.StateTransition
		var trigger []byte
		if err := rows.Scan(&t.ID, &t.TransitionID, &t.SessionID, &t.FromStep, &t.ToStep, &t.Channel, &trigger, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Trigger = trigger
		out = append(out, &t)
	}
	return out, rows.Err()
}
