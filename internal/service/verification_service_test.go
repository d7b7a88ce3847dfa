package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/farewellhq/event-pass-api/internal/models"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
)

type mockVerificationRepo struct {
	outcome    *models.VerifyOutcome
	err        error
	calls      int
	sawTimeout bool
}

func (m *mockVerificationRepo) Verify(ctx context.Context, _, _ string) (*models.VerifyOutcome, error) {
	m.calls++
	if _, ok := ctx.Deadline(); ok {
		m.sawTimeout = true
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func TestVerifyPassAccepted(t *testing.T) {
	verifiedAt := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	repo := &mockVerificationRepo{outcome: &models.VerifyOutcome{
		Accepted:       true,
		Student:        models.StudentPublic{ID: "s1", Name: "Asha Rao", Email: "asha@example.com", RollNumber: "R-001"},
		Count:          1,
		LastVerifiedAt: verifiedAt,
	}}
	metrics := &recordingMetrics{}
	svc := NewVerificationService(repo, metrics, zap.NewNop(), time.Second)

	result, err := svc.VerifyPass(context.Background(), "pass-1", "s1")
	require.NoError(t, err)

	assert.Equal(t, "Pass verified successfully", result.Message)
	assert.Equal(t, "Asha Rao", result.Student.Name)
	assert.Equal(t, 1, result.Verification.Count)
	assert.Equal(t, verifiedAt, result.Verification.LastVerifiedAt)
	assert.True(t, repo.sawTimeout)
	assert.Equal(t, 1, metrics.verifications["accepted"])
}

func TestVerifyPassAlreadyUsed(t *testing.T) {
	firstScan := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	repo := &mockVerificationRepo{outcome: &models.VerifyOutcome{
		Accepted:       false,
		Student:        models.StudentPublic{ID: "s1", Name: "Asha Rao", Email: "asha@example.com", RollNumber: "R-001"},
		Count:          1,
		LastVerifiedAt: firstScan,
	}}
	metrics := &recordingMetrics{}
	svc := NewVerificationService(repo, metrics, zap.NewNop(), time.Second)

	result, err := svc.VerifyPass(context.Background(), "pass-1", "s1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPassUsed.Code, appErr.Code)

	// The door staff still get the original timestamp and identity.
	require.NotNil(t, result)
	assert.Contains(t, result.Message, "2026-03-14T18:00:00Z")
	assert.Equal(t, "Asha Rao", result.Student.Name)
	assert.Equal(t, 1, metrics.verifications["already_used"])
}

func TestVerifyPassInvalid(t *testing.T) {
	repo := &mockVerificationRepo{err: sql.ErrNoRows}
	metrics := &recordingMetrics{}
	svc := NewVerificationService(repo, metrics, zap.NewNop(), time.Second)

	result, err := svc.VerifyPass(context.Background(), "pass-1", "unknown")
	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidPass.Code, appErr.Code)
	assert.Equal(t, 1, metrics.verifications["invalid"])
}

func TestVerifyPassStoreErrorFailsClosed(t *testing.T) {
	repo := &mockVerificationRepo{err: errors.New("connection reset")}
	metrics := &recordingMetrics{}
	svc := NewVerificationService(repo, metrics, zap.NewNop(), time.Second)

	result, err := svc.VerifyPass(context.Background(), "pass-1", "s1")
	require.Error(t, err)
	assert.Nil(t, result)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, 1, metrics.verifications["error"])
}

func TestVerifyPassRequiresIdentifiers(t *testing.T) {
	repo := &mockVerificationRepo{}
	svc := NewVerificationService(repo, nil, zap.NewNop(), time.Second)

	_, err := svc.VerifyPass(context.Background(), "", "s1")
	require.Error(t, err)
	assert.Equal(t, 0, repo.calls)

	_, err = svc.VerifyPass(context.Background(), "pass-1", "")
	require.Error(t, err)
	assert.Equal(t, 0, repo.calls)
}
