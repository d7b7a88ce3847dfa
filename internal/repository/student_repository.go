package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/farewellhq/event-pass-api/internal/models"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// failure, e.g. two batch rows racing for the same email or roll number.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// StudentRepository manages persistence for the event roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, name, email, roll_number, class_section, pass_generated, pass_generated_at, qr_payload, created_at, updated_at"

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(roll_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Issued != nil {
		conditions = append(conditions, fmt.Sprintf("pass_generated = $%d", len(args)+1))
		args = append(args, *filter.Issued)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":        "name",
		"roll_number": "roll_number",
		"created_at":  "created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// All returns the full directory snapshot used for duplicate classification.
func (r *StudentRepository) All(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY created_at DESC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	return students, nil
}

// FindByIdentity fetches a student matching either identity field.
func (r *StudentRepository) FindByIdentity(ctx context.Context, email, rollNumber string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE email = $1 OR roll_number = $2 LIMIT 1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email, rollNumber); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new roster row. The email and roll_number uniqueness
// constraints are the last line of defence against duplicate identities.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, name, email, roll_number, class_section, pass_generated, created_at, updated_at)
        VALUES (:id, :name, :email, :roll_number, :class_section, :pass_generated, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// CreateHistory records an issuance attempt before the email goes out.
func (r *StudentRepository) CreateHistory(ctx context.Context, studentID string) (int64, error) {
	const query = `INSERT INTO pass_history (student_id, generated_at) VALUES ($1, NOW()) RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, studentID); err != nil {
		return 0, fmt.Errorf("create pass history: %w", err)
	}
	return id, nil
}

// MarkIssued persists the issued pass after the email delivery succeeded.
// The student flip and the history update commit together so a crash
// between them cannot leave a pass marked sent but not issued.
func (r *StudentRepository) MarkIssued(ctx context.Context, studentID string, historyID int64, payload string, issuedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issuance tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const studentQuery = `UPDATE students
        SET pass_generated = true, pass_generated_at = $2, qr_payload = $3, updated_at = $2
        WHERE id = $1`
	if _, err := tx.ExecContext(ctx, studentQuery, studentID, issuedAt, payload); err != nil {
		return fmt.Errorf("mark student issued: %w", err)
	}

	const historyQuery = `UPDATE pass_history SET email_sent_at = $2, email_status = 'sent' WHERE id = $1`
	if _, err := tx.ExecContext(ctx, historyQuery, historyID, issuedAt); err != nil {
		return fmt.Errorf("mark history sent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit issuance: %w", err)
	}
	return nil
}
