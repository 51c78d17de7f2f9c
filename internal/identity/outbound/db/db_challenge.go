package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/mfacore/internal/identity/entity"
)

func (s *DB) CreateChallengeCode(ctx context.Context, c entity.ChallengeCode) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChallengeCode")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO identity_mfa_challenge_codes
		(id, user_id, code_hash, method, purpose, enrollment_version, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.UserID, c.CodeHash, int16(c.Method), int16(c.Purpose), c.EnrollmentVersion, c.ExpiresAt, c.CreatedAt)
	err = s.mapError(err)
	return err
}

// ConsumeChallengeCode marks one acceptable code used and stamps the
// enrollment's last_used_at in one transaction.
func (s *DB) ConsumeChallengeCode(ctx context.Context, in entity.ConsumeCode) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeCode")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if err = consumeCode(ctx, tx, in); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `UPDATE identity_mfa_enrollments
		SET last_used_at = $2, updated_at = NOW() WHERE user_id = $1`, in.UserID, in.Now); err != nil {
		err = s.mapError(err)
		return err
	}

	err = s.mapError(tx.Commit(ctx))
	return err
}

// consumeCode flips exactly one unused, unexpired matching code issued for
// the given enrollment version. Rows locked by a concurrent consumer are
// skipped, so two racing submissions of the same code cannot both succeed.
func consumeCode(ctx context.Context, tx pgx.Tx, in entity.ConsumeCode) error {
	var id int64
	err := tx.QueryRow(ctx, `
		UPDATE identity_mfa_challenge_codes SET is_used = TRUE, used_at = $5
		WHERE id = (
			SELECT id FROM identity_mfa_challenge_codes
			WHERE user_id = $1 AND method = $2 AND purpose = $3 AND code_hash = $4
				AND enrollment_version = $6 AND NOT is_used AND expires_at > $5
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND NOT is_used
		RETURNING id`,
		in.UserID, int16(in.Method), int16(in.Purpose), in.CodeHash, in.Now, in.EnrollmentVersion,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrInvalidCode
	}
	return err
}
