package models

import "time"

// PassVerification tracks usage of a single pass for a single student.
// verification_count only ever moves from 0 to 1: a pass is consumed at
// most once and the row is never deleted by this service.
type PassVerification struct {
	ID                int64      `db:"id" json:"-"`
	PassID            string     `db:"pass_id" json:"pass_id"`
	StudentID         string     `db:"student_id" json:"student_id"`
	VerificationCount int        `db:"verification_count" json:"verification_count"`
	LastVerifiedAt    *time.Time `db:"last_verified_at" json:"last_verified_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"-"`
	UpdatedAt         time.Time  `db:"updated_at" json:"-"`
}

// VerifyOutcome is the durable result of one scan attempt. On an
// accepted scan LastVerifiedAt is the commit timestamp; on a rejected
// scan it is the timestamp of the original successful verification.
type VerifyOutcome struct {
	Accepted       bool
	Student        StudentPublic
	Count          int
	LastVerifiedAt time.Time
}

// PassHistory records one issuance attempt per student.
type PassHistory struct {
	ID          int64      `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	GeneratedAt time.Time  `db:"generated_at" json:"generated_at"`
	EmailSentAt *time.Time `db:"email_sent_at" json:"email_sent_at,omitempty"`
	EmailStatus *string    `db:"email_status" json:"email_status,omitempty"`
}
