package models

import "time"

// Student is a row in the event roster. The (email, roll_number) pair is
// unique across the directory; pass_generated implies qr_payload is set.
type Student struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	RollNumber      string     `db:"roll_number" json:"roll_number"`
	ClassSection    *string    `db:"class_section" json:"class_section,omitempty"`
	PassGenerated   bool       `db:"pass_generated" json:"pass_generated"`
	PassGeneratedAt *time.Time `db:"pass_generated_at" json:"pass_generated_at,omitempty"`
	QRPayload       *string    `db:"qr_payload" json:"qr_payload,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// CandidateStudent is an uploaded roster row pending duplicate-check and
// issuance. It is not persisted until a pass is issued for it.
type CandidateStudent struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	RollNumber   string `json:"roll_number"`
	ClassSection string `json:"class_section,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Issued    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentPublic carries the display fields shown to door staff.
type StudentPublic struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	RollNumber   string  `json:"roll_number"`
	ClassSection *string `json:"class_section,omitempty"`
}

// Public projects the operator-visible fields of a student.
func (s Student) Public() StudentPublic {
	return StudentPublic{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		RollNumber:   s.RollNumber,
		ClassSection: s.ClassSection,
	}
}
