package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
)

const enrollmentColumns = `id, user_id, method, secret, phone_number, email,
	is_verified, is_enabled, version, last_used_at, created_at, updated_at`

func (s *DB) GetEnrollment(ctx context.Context, userID int64) (_ *entity.Enrollment, err error) {
	ctx, span := s.startSpan(ctx, "GetEnrollment")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `SELECT `+enrollmentColumns+`
		FROM identity_mfa_enrollments WHERE user_id = $1`, userID)

	var (
		e      entity.Enrollment
		method int16
	)
	if err = row.Scan(&e.ID, &e.UserID, &method, &e.Secret, &e.PhoneNumber, &e.Email,
		&e.IsVerified, &e.IsEnabled, &e.Version, &e.LastUsedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	e.Method = entity.MFAMethod(method)

	return &e, nil
}

// SaveEnrollment inserts the enrollment or replaces the user's current one,
// resetting it to unverified and bumping its version, which retires every
// code issued for the previous setup. An enabled enrollment is never
// replaced: goerror.ErrConflict.
func (s *DB) SaveEnrollment(ctx context.Context, e entity.Enrollment) (err error) {
	ctx, span := s.startSpan(ctx, "SaveEnrollment")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, `
		INSERT INTO identity_mfa_enrollments (id, user_id, method, secret, phone_number, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			method = EXCLUDED.method,
			secret = EXCLUDED.secret,
			phone_number = EXCLUDED.phone_number,
			email = EXCLUDED.email,
			is_verified = FALSE,
			is_enabled = FALSE,
			version = identity_mfa_enrollments.version + 1,
			last_used_at = NULL,
			updated_at = NOW()
		WHERE identity_mfa_enrollments.is_enabled = FALSE
		RETURNING id`,
		e.ID, e.UserID, int16(e.Method), e.Secret, e.PhoneNumber, e.Email,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = goerror.ErrConflict
		return err
	}

	err = s.mapError(err)
	return err
}

func (s *DB) UpdateLastUsedAt(ctx context.Context, userID int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateLastUsedAt")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE identity_mfa_enrollments
		SET last_used_at = $2, updated_at = NOW() WHERE user_id = $1`, userID, at)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
	}
	return err
}

// EnableEnrollment marks the enrollment verified and enabled and, for
// out-of-band methods, consumes the code in the same transaction. version is
// the enrollment version the code was checked against.
func (s *DB) EnableEnrollment(ctx context.Context, userID, version int64, consume *entity.ConsumeCode, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "EnableEnrollment")
	defer func() { s.endSpan(span, err) }()

	err = s.switchEnrollment(ctx, `UPDATE identity_mfa_enrollments
		SET is_verified = TRUE, is_enabled = TRUE, last_used_at = $2, updated_at = NOW()
		WHERE user_id = $1 AND version = $3 AND is_enabled = FALSE`, userID, version, consume, at)
	return err
}

// DisableEnrollment clears is_enabled and keeps the rest of the record.
func (s *DB) DisableEnrollment(ctx context.Context, userID, version int64, consume *entity.ConsumeCode, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "DisableEnrollment")
	defer func() { s.endSpan(span, err) }()

	err = s.switchEnrollment(ctx, `UPDATE identity_mfa_enrollments
		SET is_enabled = FALSE, last_used_at = $2, updated_at = NOW()
		WHERE user_id = $1 AND version = $3 AND is_enabled = TRUE`, userID, version, consume, at)
	return err
}

// switchEnrollment runs a guarded state update. An enrollment set up again
// since the code was checked, or a code that cannot be consumed, is
// entity.ErrInvalidCode; any other guard failure is goerror.ErrConflict.
func (s *DB) switchEnrollment(ctx context.Context, query string, userID, version int64, consume *entity.ConsumeCode, at time.Time) error {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, query, userID, at, version)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		var current int64
		err := tx.QueryRow(ctx, `SELECT version FROM identity_mfa_enrollments WHERE user_id = $1`, userID).Scan(&current)
		if err == nil && current != version {
			return entity.ErrInvalidCode
		}
		return goerror.ErrConflict
	}

	if consume != nil {
		if err := consumeCode(ctx, tx, *consume); err != nil {
			return err
		}
	}

	return s.mapError(tx.Commit(ctx))
}
