package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farewellhq/event-pass-api/internal/models"
	"github.com/farewellhq/event-pass-api/internal/repository"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
	"github.com/farewellhq/event-pass-api/pkg/mailer"
	"github.com/farewellhq/event-pass-api/pkg/qr"
)

// Item statuses reported per batch entry.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

type issuanceRepository interface {
	FindByIdentity(ctx context.Context, email, rollNumber string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	CreateHistory(ctx context.Context, studentID string) (int64, error)
	MarkIssued(ctx context.Context, studentID string, historyID int64, payload string, issuedAt time.Time) error
}

// PassSender delivers a rendered pass to its recipient.
type PassSender interface {
	SendPass(ctx context.Context, pass mailer.PassEmail) error
}

type passRenderer interface {
	Render(p qr.PassPayload) ([]byte, error)
}

type issuanceMetrics interface {
	CountIssuance(status string)
}

// ItemResult is the per-student outcome of a batch issuance run.
type ItemResult struct {
	Email   string `json:"email"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BatchSummary aggregates a run. Skipped students count as successful:
// their pass already exists, which is the state the operator asked for.
type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BatchResult is the full report returned to the operator.
type BatchResult struct {
	Summary BatchSummary `json:"summary"`
	Results []ItemResult `json:"results"`
}

// IssuanceService generates passes for a batch of students: resolve or
// create the roster row, render the QR, email it, and only then record
// the pass as issued. A student whose email bounces stays unissued and
// can be retried on the next run.
type IssuanceService struct {
	repo     issuanceRepository
	renderer passRenderer
	sender   PassSender
	metrics  issuanceMetrics
	logger   *zap.Logger
}

// NewIssuanceService constructs an IssuanceService.
func NewIssuanceService(repo issuanceRepository, renderer passRenderer, sender PassSender, metrics issuanceMetrics, logger *zap.Logger) *IssuanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssuanceService{repo: repo, renderer: renderer, sender: sender, metrics: metrics, logger: logger}
}

// GeneratePasses processes the batch sequentially in input order. Each
// item is independent; one failure never aborts the run.
func (s *IssuanceService) GeneratePasses(ctx context.Context, candidates []models.CandidateStudent) (*BatchResult, error) {
	if len(candidates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no students provided")
	}

	result := &BatchResult{
		Summary: BatchSummary{Total: len(candidates)},
		Results: make([]ItemResult, 0, len(candidates)),
	}

	for _, candidate := range candidates {
		item := s.issueOne(ctx, candidate)
		result.Results = append(result.Results, item)
		if item.Status == StatusFailed {
			result.Summary.Failed++
		} else {
			result.Summary.Successful++
		}
		if s.metrics != nil {
			s.metrics.CountIssuance(item.Status)
		}
	}

	s.logger.Info("pass generation batch finished",
		zap.Int("total", result.Summary.Total),
		zap.Int("successful", result.Summary.Successful),
		zap.Int("failed", result.Summary.Failed),
	)
	return result, nil
}

func (s *IssuanceService) issueOne(ctx context.Context, candidate models.CandidateStudent) ItemResult {
	email := normalizeEmail(candidate.Email)
	name := strings.TrimSpace(candidate.Name)
	roll := strings.TrimSpace(candidate.RollNumber)

	if name == "" || email == "" || roll == "" {
		return ItemResult{Email: email, Status: StatusFailed, Message: "name, email and roll number are required"}
	}

	student, err := s.resolveStudent(ctx, candidate, email, roll)
	if err != nil {
		s.logger.Warn("failed to resolve student", zap.String("email", email), zap.Error(err))
		return ItemResult{Email: email, Status: StatusFailed, Message: "failed to resolve student record"}
	}

	if student.PassGenerated {
		return ItemResult{Email: email, Status: StatusSkipped, Message: "pass already generated"}
	}

	payload := qr.PassPayload{
		ID:         uuid.NewString(),
		StudentID:  student.ID,
		Name:       student.Name,
		Email:      student.Email,
		RollNumber: student.RollNumber,
	}
	encoded, err := payload.Encode()
	if err != nil {
		s.logger.Error("failed to encode pass payload", zap.String("student_id", student.ID), zap.Error(err))
		return ItemResult{Email: email, Status: StatusFailed, Message: "failed to build pass"}
	}
	image, err := s.renderer.Render(payload)
	if err != nil {
		s.logger.Error("failed to render qr image", zap.String("student_id", student.ID), zap.Error(err))
		return ItemResult{Email: email, Status: StatusFailed, Message: "failed to render pass"}
	}

	historyID, err := s.repo.CreateHistory(ctx, student.ID)
	if err != nil {
		s.logger.Error("failed to record issuance attempt", zap.String("student_id", student.ID), zap.Error(err))
		return ItemResult{Email: email, Status: StatusFailed, Message: "failed to record issuance"}
	}

	section := ""
	if student.ClassSection != nil {
		section = *student.ClassSection
	}
	err = s.sender.SendPass(ctx, mailer.PassEmail{
		Name:         student.Name,
		Email:        student.Email,
		RollNumber:   student.RollNumber,
		ClassSection: section,
		QRImage:      image,
	})
	if err != nil {
		s.logger.Warn("failed to deliver pass email", zap.String("student_id", student.ID), zap.Error(err))
		return ItemResult{Email: email, Status: StatusFailed, Message: "failed to send pass email"}
	}

	if err := s.repo.MarkIssued(ctx, student.ID, historyID, encoded, time.Now().UTC()); err != nil {
		// The email is already out. Report the failure so the operator
		// re-runs the batch; the student stays unissued and gets a
		// fresh pass, which supersedes this one at the door.
		s.logger.Error("failed to mark pass issued", zap.String("student_id", student.ID), zap.Error(err))
		return ItemResult{Email: email, Status: StatusFailed, Message: "pass sent but not recorded, retry required"}
	}

	return ItemResult{Email: email, Status: StatusSuccess}
}

// resolveStudent finds the roster row for a candidate by email or roll
// number, creating it when missing. A unique-violation on create means
// another row in this same batch won the insert; re-read and use it.
func (s *IssuanceService) resolveStudent(ctx context.Context, candidate models.CandidateStudent, email, roll string) (*models.Student, error) {
	student, err := s.repo.FindByIdentity(ctx, email, roll)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	created := &models.Student{
		Name:       strings.TrimSpace(candidate.Name),
		Email:      email,
		RollNumber: roll,
	}
	if section := strings.TrimSpace(candidate.ClassSection); section != "" {
		created.ClassSection = &section
	}
	err = s.repo.Create(ctx, created)
	if err == nil {
		return created, nil
	}
	if repository.IsUniqueViolation(err) {
		return s.repo.FindByIdentity(ctx, email, roll)
	}
	return nil, err
}
