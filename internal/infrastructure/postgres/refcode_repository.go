package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// ReferenceCodeRepository implements session.ReferenceCodeRepository.
type ReferenceCodeRepository struct {
	pool *pgxpool.Pool
}

func NewReferenceCodeRepository(pool *pgxpool.Pool) *ReferenceCodeRepository {
	return &ReferenceCodeRepository{pool: pool}
}

// Upsert stores the code for a session. One active code per session: an
// existing row for the same session is replaced.
func (r *ReferenceCodeRepository) Upsert(ctx context.Context, c *session.ReferenceCode) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reference_codes (code, session_id, expires_at, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id) DO UPDATE SET
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at
		RETURNING id
	`, c.Code, c.SessionID, c.ExpiresAt, time.Now().UTC())
	return row.Scan(&c.ID)
}

func (r *ReferenceCodeRepository) GetByCode(ctx context.Context, code string) (*session.ReferenceCode, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, code, session_id, expires_at, created_at
		FROM reference_codes WHERE code=$1
	`, session.NormalizeCode(code))
	return scanReferenceCode(row)
}

func (r *ReferenceCodeRepository) GetBySessionID(ctx context.Context, sessionID string) (*session.ReferenceCode, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, code, session_id, expires_at, created_at
		FROM reference_codes WHERE session_id=$1
	`, sessionID)
	return scanReferenceCode(row)
}

func (r *ReferenceCodeRepository) ExtendExpiry(ctx context.Context, code string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reference_codes SET expires_at=$1 WHERE code=$2
	`, expiresAt, session.NormalizeCode(code))
	return err
}

func (r *ReferenceCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM reference_codes WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(res.RowsAffected()), nil
}

func scanReferenceCode(row pgx.Row) (*session.ReferenceCode, error) {
	var c session.ReferenceCode
	if err := row.Scan(&c.ID, &c.Code, &c.SessionID, &c.ExpiresAt, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
