package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farewellhq/event-pass-api/internal/models"
)

// VerificationRepository enforces single-use pass semantics. Every check
// hits the database; verification state is never cached in memory.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository constructs a VerificationRepository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Verify runs the check-then-set for one scanned pass inside a single
// transaction. The consume step is a conditional upsert guarded by
// verification_count = 0: under concurrent scans of the same pass the
// second writer blocks on the row lock, re-evaluates the guard against
// the committed row, and matches nothing. Exactly one scan ever flips
// the count to 1.
//
// Returns sql.ErrNoRows when the student does not exist or has no
// issued pass.
func (r *VerificationRepository) Verify(ctx context.Context, passID, studentID string) (*models.VerifyOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin verification tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var student models.Student
	const studentQuery = `SELECT id, name, email, roll_number, class_section
        FROM students WHERE id = $1 AND pass_generated = true`
	if err := tx.GetContext(ctx, &student, studentQuery, studentID); err != nil {
		return nil, err
	}

	const consume = `INSERT INTO pass_verifications (pass_id, student_id, verification_count, last_verified_at)
        VALUES ($1, $2, 1, NOW())
        ON CONFLICT (pass_id, student_id) DO UPDATE
        SET verification_count = 1, last_verified_at = NOW(), updated_at = NOW()
        WHERE pass_verifications.verification_count = 0
        RETURNING verification_count, last_verified_at`

	var committed struct {
		Count int       `db:"verification_count"`
		At    time.Time `db:"last_verified_at"`
	}
	err = tx.GetContext(ctx, &committed, consume, passID, studentID)
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit verification: %w", err)
		}
		return &models.VerifyOutcome{
			Accepted:       true,
			Student:        student.Public(),
			Count:          committed.Count,
			LastVerifiedAt: committed.At,
		}, nil

	case errors.Is(err, sql.ErrNoRows):
		// The guard matched nothing: the pass is already consumed.
		// Surface the original timestamp for the door staff.
		var prior models.PassVerification
		const priorQuery = `SELECT verification_count, last_verified_at
            FROM pass_verifications WHERE pass_id = $1 AND student_id = $2`
		if err := tx.GetContext(ctx, &prior, priorQuery, passID, studentID); err != nil {
			return nil, fmt.Errorf("load consumed verification: %w", err)
		}
		outcome := &models.VerifyOutcome{
			Accepted: false,
			Student:  student.Public(),
			Count:    prior.VerificationCount,
		}
		if prior.LastVerifiedAt != nil {
			outcome.LastVerifiedAt = *prior.LastVerifiedAt
		}
		return outcome, nil

	default:
		return nil, fmt.Errorf("record verification: %w", err)
	}
}
