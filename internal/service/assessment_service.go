package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/repository"
)

// AssessmentService maintains question links and the totals derived from them.
type AssessmentService interface {
	Get(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	LinkQuestion(ctx context.Context, assessmentID uint, payload dto.LinkQuestionRequest) (dto.AssessmentResponse, error)
	UnlinkQuestion(ctx context.Context, assessmentID, questionID uint) (dto.AssessmentResponse, error)
	RecomputeDuration(ctx context.Context, assessmentID uint) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	repo      repository.AssessmentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssessmentService constructs an AssessmentService instance.
func NewAssessmentService(repo repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Get(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.AssessmentResponse{}, lookupError(err, ErrAssessmentNotFound)
	}
	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) LinkQuestion(ctx context.Context, assessmentID uint, payload dto.LinkQuestionRequest) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	link := models.AssessmentQuestion{
		AssessmentID:   assessmentID,
		QuestionID:     payload.QuestionID,
		OrderIndex:     payload.OrderIndex,
		PointsOverride: payload.PointsOverride,
	}

	assessment, err := s.repo.LinkQuestion(ctx, &link)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return dto.AssessmentResponse{}, ErrQuestionAlreadyLinked
		case errors.Is(err, gorm.ErrRecordNotFound):
			if _, lookupErr := s.repo.GetByID(ctx, assessmentID); lookupErr != nil {
				return dto.AssessmentResponse{}, lookupError(lookupErr, ErrAssessmentNotFound)
			}
			return dto.AssessmentResponse{}, ErrQuestionNotFound
		default:
			return dto.AssessmentResponse{}, storageError(err)
		}
	}

	s.logger.Info().
		Uint("assessment_id", assessmentID).
		Uint("question_id", payload.QuestionID).
		Int("duration", assessment.Duration).
		Msg("question linked")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) UnlinkQuestion(ctx context.Context, assessmentID, questionID uint) (dto.AssessmentResponse, error) {
	assessment, err := s.repo.UnlinkQuestion(ctx, assessmentID, questionID)
	if err != nil {
		return dto.AssessmentResponse{}, lookupError(err, ErrQuestionNotInAssessment)
	}

	s.logger.Info().
		Uint("assessment_id", assessmentID).
		Uint("question_id", questionID).
		Int("duration", assessment.Duration).
		Msg("question unlinked")

	return dto.NewAssessmentResponse(assessment), nil
}

// RecomputeDuration rewrites the derived duration and total points, repairing rows edited outside
// this service.
func (s *assessmentService) RecomputeDuration(ctx context.Context, assessmentID uint) (dto.AssessmentResponse, error) {
	assessment, err := s.repo.RecomputeTotals(ctx, assessmentID)
	if err != nil {
		return dto.AssessmentResponse{}, lookupError(err, ErrAssessmentNotFound)
	}
	return dto.NewAssessmentResponse(assessment), nil
}
