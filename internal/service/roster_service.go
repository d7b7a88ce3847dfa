package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/farewellhq/event-pass-api/internal/models"
	"github.com/farewellhq/event-pass-api/internal/repository"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
)

type rosterRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	All(ctx context.Context) ([]models.Student, error)
	FindByIdentity(ctx context.Context, email, rollNumber string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// DuplicateReason names which identity field collided.
type DuplicateReason string

const (
	DuplicateEmail DuplicateReason = "email"
	DuplicateRoll  DuplicateReason = "roll_number"
	DuplicateBoth  DuplicateReason = "both"
)

// DuplicateRecord reports one rejected upload row together with the
// directory row it collides with, for operator review.
type DuplicateRecord struct {
	Candidate    models.CandidateStudent `json:"candidate"`
	Reason       DuplicateReason         `json:"reason"`
	ConflictWith models.StudentPublic    `json:"conflict_with"`
}

// ClassificationResult partitions an upload batch against the directory.
type ClassificationResult struct {
	Unique     []models.CandidateStudent `json:"unique"`
	Duplicates []DuplicateRecord         `json:"duplicates"`
}

// CreateStudentRequest holds payload for manual roster registration.
type CreateStudentRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	RollNumber   string `json:"roll_number" validate:"required"`
	ClassSection string `json:"class_section"`
}

// RosterService handles directory use-cases: listing, manual
// registration and duplicate classification of uploaded batches.
type RosterService struct {
	repo      rosterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(repo rosterRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *RosterService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Create registers a single student manually, without issuing a pass.
func (s *RosterService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	email := normalizeEmail(req.Email)
	roll := strings.TrimSpace(req.RollNumber)

	if _, err := s.repo.FindByIdentity(ctx, email, roll); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student with this email or roll number already exists")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check identity")
	}

	student := &models.Student{
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		RollNumber: roll,
	}
	if section := strings.TrimSpace(req.ClassSection); section != "" {
		student.ClassSection = &section
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student with this email or roll number already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Classify partitions an upload batch against the current directory
// snapshot. The result is advisory: the caller may still force-issue
// duplicates.
func (s *RosterService) Classify(ctx context.Context, candidates []models.CandidateStudent) (*ClassificationResult, error) {
	if len(candidates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no students provided")
	}
	directory, err := s.repo.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load directory")
	}
	unique, duplicates := Classify(candidates, directory)
	s.logger.Info("classified upload batch",
		zap.Int("total", len(candidates)),
		zap.Int("unique", len(unique)),
		zap.Int("duplicates", len(duplicates)),
	)
	return &ClassificationResult{Unique: unique, Duplicates: duplicates}, nil
}

// Classify partitions candidates into unique rows and duplicates using
// normalized email and roll-number indices over the directory snapshot.
// Candidates are compared against the snapshot only, not against each
// other; original input order and casing are preserved. When a
// candidate collides on both fields against two different rows, the
// email match is the reported conflict.
func Classify(candidates []models.CandidateStudent, directory []models.Student) ([]models.CandidateStudent, []DuplicateRecord) {
	emailIndex := make(map[string]models.Student, len(directory))
	rollIndex := make(map[string]models.Student, len(directory))
	for _, student := range directory {
		emailIndex[normalizeEmail(student.Email)] = student
		rollIndex[normalizeKey(student.RollNumber)] = student
	}

	unique := make([]models.CandidateStudent, 0, len(candidates))
	duplicates := make([]DuplicateRecord, 0)

	for _, candidate := range candidates {
		emailHit, emailExists := emailIndex[normalizeEmail(candidate.Email)]
		rollHit, rollExists := rollIndex[normalizeKey(candidate.RollNumber)]

		if !emailExists && !rollExists {
			unique = append(unique, candidate)
			continue
		}

		reason := DuplicateBoth
		conflict := emailHit
		switch {
		case emailExists && !rollExists:
			reason = DuplicateEmail
		case !emailExists && rollExists:
			reason = DuplicateRoll
			conflict = rollHit
		}
		duplicates = append(duplicates, DuplicateRecord{
			Candidate:    candidate,
			Reason:       reason,
			ConflictWith: conflict.Public(),
		})
	}

	return unique, duplicates
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
