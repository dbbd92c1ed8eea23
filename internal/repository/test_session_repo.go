package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// TestSessionRepository defines data operations for test sessions.
type TestSessionRepository interface {
	Create(ctx context.Context, session *models.TestSession) error
	GetByID(ctx context.Context, id uint) (models.TestSession, error)
	FindActiveForPair(ctx context.Context, candidateID, assessmentID uint) (models.TestSession, error)
	FindActiveByToken(ctx context.Context, token string) (models.TestSession, error)
	Close(ctx context.Context, id uint, endedAt time.Time) (bool, error)
}

type testSessionRepository struct {
	db *gorm.DB
}

// NewTestSessionRepository instantiates the repository.
func NewTestSessionRepository(db *gorm.DB) TestSessionRepository {
	return &testSessionRepository{db: db}
}

func (r *testSessionRepository) Create(ctx context.Context, session *models.TestSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *testSessionRepository) GetByID(ctx context.Context, id uint) (models.TestSession, error) {
	var session models.TestSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return models.TestSession{}, err
	}
	return session, nil
}

func (r *testSessionRepository) FindActiveForPair(ctx context.Context, candidateID, assessmentID uint) (models.TestSession, error) {
	var session models.TestSession
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND assessment_id = ? AND status = ?", candidateID, assessmentID, models.TestSessionStatusInProgress).
		First(&session).Error
	if err != nil {
		return models.TestSession{}, err
	}
	return session, nil
}

func (r *testSessionRepository) FindActiveByToken(ctx context.Context, token string) (models.TestSession, error) {
	var session models.TestSession
	err := r.db.WithContext(ctx).
		Where("session_token = ? AND status = ?", token, models.TestSessionStatusInProgress).
		First(&session).Error
	if err != nil {
		return models.TestSession{}, err
	}
	return session, nil
}

// Close completes an in-progress session and releases its pair slot. It reports false when the
// session was already closed.
func (r *testSessionRepository) Close(ctx context.Context, id uint, endedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TestSession{}).
		Where("id = ? AND status = ?", id, models.TestSessionStatusInProgress).
		Updates(map[string]interface{}{
			"status":     models.TestSessionStatusCompleted,
			"ended_at":   endedAt,
			"active_key": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
