package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// SubmissionRepository defines data operations for candidate answers.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	FindAnswer(ctx context.Context, candidateID, assessmentID, questionID uint) (models.Submission, error)
	ListForCandidate(ctx context.Context, assessmentID, candidateID uint) ([]models.Submission, error)
	ListPending(ctx context.Context, assessmentID, candidateID uint) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).Preload("Question")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) FindAnswer(ctx context.Context, candidateID, assessmentID, questionID uint) (models.Submission, error) {
	var submission models.Submission
	err := r.baseQuery(ctx).
		Where("candidate_id = ? AND assessment_id = ? AND question_id = ?", candidateID, assessmentID, questionID).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ListForCandidate(ctx context.Context, assessmentID, candidateID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Where("assessment_id = ? AND candidate_id = ?", assessmentID, candidateID).
		Order("question_id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) ListPending(ctx context.Context, assessmentID, candidateID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Where("assessment_id = ? AND candidate_id = ? AND status = ?", assessmentID, candidateID, models.SubmissionStatusPending).
		Order("question_id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Question").Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Question").Save(submission).Error
}
