package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// AssessmentRepository defines data operations for assessments, questions and their links.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	GetQuestionLink(ctx context.Context, assessmentID, questionID uint) (models.AssessmentQuestion, error)
	LinkQuestion(ctx context.Context, link *models.AssessmentQuestion) (models.Assessment, error)
	UnlinkQuestion(ctx context.Context, assessmentID, questionID uint) (models.Assessment, error)
	RecomputeTotals(ctx context.Context, assessmentID uint) (models.Assessment, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates the repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *assessmentRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	return loadAssessment(r.db.WithContext(ctx), id)
}

func (r *assessmentRepository) GetQuestionLink(ctx context.Context, assessmentID, questionID uint) (models.AssessmentQuestion, error) {
	var link models.AssessmentQuestion
	err := r.db.WithContext(ctx).
		Preload("Question").
		Where("assessment_id = ? AND question_id = ?", assessmentID, questionID).
		First(&link).Error
	if err != nil {
		return models.AssessmentQuestion{}, err
	}
	return link, nil
}

func (r *assessmentRepository) LinkQuestion(ctx context.Context, link *models.AssessmentQuestion) (models.Assessment, error) {
	var updated models.Assessment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Assessment{}, link.AssessmentID).Error; err != nil {
			return err
		}
		if err := tx.First(&models.Question{}, link.QuestionID).Error; err != nil {
			return err
		}
		if err := tx.Omit("Question").Create(link).Error; err != nil {
			return err
		}

		var err error
		updated, err = recomputeTotals(tx, link.AssessmentID)
		return err
	})
	return updated, err
}

func (r *assessmentRepository) UnlinkQuestion(ctx context.Context, assessmentID, questionID uint) (models.Assessment, error) {
	var updated models.Assessment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("assessment_id = ? AND question_id = ?", assessmentID, questionID).
			Delete(&models.AssessmentQuestion{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var err error
		updated, err = recomputeTotals(tx, assessmentID)
		return err
	})
	return updated, err
}

func (r *assessmentRepository) RecomputeTotals(ctx context.Context, assessmentID uint) (models.Assessment, error) {
	var updated models.Assessment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = recomputeTotals(tx, assessmentID)
		return err
	})
	return updated, err
}

// recomputeTotals rewrites duration and total points from the current links. It must run inside
// the transaction that changed the links.
func recomputeTotals(tx *gorm.DB, assessmentID uint) (models.Assessment, error) {
	assessment, err := loadAssessment(tx, assessmentID)
	if err != nil {
		return models.Assessment{}, err
	}

	duration := 0
	points := 0.0
	for _, link := range assessment.Questions {
		duration += link.Question.TimeLimit
		points += link.EffectiveMaxScore()
	}

	if err := tx.Model(&models.Assessment{}).
		Where("id = ?", assessmentID).
		Updates(map[string]interface{}{"duration": duration, "total_points": points}).Error; err != nil {
		return models.Assessment{}, err
	}

	assessment.Duration = duration
	assessment.TotalPoints = points
	return assessment, nil
}

func loadAssessment(db *gorm.DB, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	err := db.
		Preload("Questions", func(q *gorm.DB) *gorm.DB {
			return q.Order("order_index ASC, id ASC")
		}).
		Preload("Questions.Question").
		First(&assessment, id).Error
	if err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}
