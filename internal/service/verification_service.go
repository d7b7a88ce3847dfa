package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/farewellhq/event-pass-api/internal/models"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
)

type verificationRepository interface {
	Verify(ctx context.Context, passID, studentID string) (*models.VerifyOutcome, error)
}

type verificationMetrics interface {
	CountVerification(result string)
	ObserveDBQuery(operation string, duration time.Duration)
}

// VerificationDetail mirrors the durable verification row for the
// scanner response. The key names are part of the scanner wire
// contract and must not change.
type VerificationDetail struct {
	Count          int       `json:"count"`
	LastVerifiedAt time.Time `json:"lastVerifiedAt"`
}

// VerifyResult is the scanner-facing outcome of one scan.
type VerifyResult struct {
	Message      string
	Student      models.StudentPublic
	Verification VerificationDetail
}

// VerificationService validates scanned passes against the store. Every
// check runs a fresh transaction; nothing is cached between scans.
type VerificationService struct {
	repo      verificationRepository
	metrics   verificationMetrics
	logger    *zap.Logger
	txTimeout time.Duration
}

// NewVerificationService constructs a VerificationService. txTimeout
// bounds the verification transaction; zero means 5 seconds.
func NewVerificationService(repo verificationRepository, metrics verificationMetrics, logger *zap.Logger, txTimeout time.Duration) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &VerificationService{repo: repo, metrics: metrics, logger: logger, txTimeout: txTimeout}
}

// VerifyPass checks a scanned (passID, studentID) pair and consumes the
// pass when it is still unused. Rejections fail closed: an unknown
// student, a missing pass or any store error all deny entry.
func (s *VerificationService) VerifyPass(ctx context.Context, passID, studentID string) (*VerifyResult, error) {
	if passID == "" || studentID == "" {
		s.count("invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "passId and studentId are required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := s.repo.Verify(ctx, passID, studentID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("verify_pass", time.Since(start))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.count("invalid")
			return nil, appErrors.Clone(appErrors.ErrInvalidPass, "")
		}
		s.count("error")
		s.logger.Error("verification transaction failed",
			zap.String("pass_id", passID),
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "verification failed")
	}

	if !outcome.Accepted {
		s.count("already_used")
		s.logger.Info("pass already used",
			zap.String("pass_id", passID),
			zap.String("student_id", studentID),
			zap.Time("last_verified_at", outcome.LastVerifiedAt),
		)
		return &VerifyResult{
			Message:      fmt.Sprintf("Pass already used at %s", outcome.LastVerifiedAt.Format(time.RFC3339)),
			Student:      outcome.Student,
			Verification: VerificationDetail{Count: outcome.Count, LastVerifiedAt: outcome.LastVerifiedAt},
		}, appErrors.Clone(appErrors.ErrPassUsed, "")
	}

	s.count("accepted")
	s.logger.Info("pass verified",
		zap.String("pass_id", passID),
		zap.String("student_id", studentID),
	)
	return &VerifyResult{
		Message:      "Pass verified successfully",
		Student:      outcome.Student,
		Verification: VerificationDetail{Count: outcome.Count, LastVerifiedAt: outcome.LastVerifiedAt},
	}, nil
}

func (s *VerificationService) count(result string) {
	if s.metrics != nil {
		s.metrics.CountVerification(result)
	}
}
