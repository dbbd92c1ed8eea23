package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
)

func TestAssessmentServiceLinkAndUnlink(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	svc := NewAssessmentService(f.assessments, validator.New(), zerolog.Nop())

	extra := models.Question{Title: "SQL", Prompt: "Write a join", MaxScore: 20, TimeLimit: 15}
	require.NoError(t, f.assessments.CreateQuestion(ctx, &extra))

	override := 40.0
	linked, err := svc.LinkQuestion(ctx, f.assessment.ID, dto.LinkQuestionRequest{QuestionID: extra.ID, OrderIndex: 2, PointsOverride: &override})
	require.NoError(t, err)
	require.Equal(t, 45, linked.Duration)
	require.Equal(t, 150.0, linked.TotalPoints)
	require.Len(t, linked.Questions, 3)
	require.Equal(t, 40.0, linked.Questions[2].Points)

	_, err = svc.LinkQuestion(ctx, f.assessment.ID, dto.LinkQuestionRequest{QuestionID: extra.ID, OrderIndex: 3})
	require.ErrorIs(t, err, ErrQuestionAlreadyLinked)

	_, err = svc.LinkQuestion(ctx, f.assessment.ID, dto.LinkQuestionRequest{QuestionID: extra.ID + 100})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = svc.LinkQuestion(ctx, f.assessment.ID+100, dto.LinkQuestionRequest{QuestionID: extra.ID})
	require.ErrorIs(t, err, ErrAssessmentNotFound)

	unlinked, err := svc.UnlinkQuestion(ctx, f.assessment.ID, f.questions[0].ID)
	require.NoError(t, err)
	require.Equal(t, 35, unlinked.Duration)

	_, err = svc.UnlinkQuestion(ctx, f.assessment.ID, f.questions[0].ID)
	require.ErrorIs(t, err, ErrQuestionNotInAssessment)
}

func TestAssessmentServiceRecomputeDurationRepairsDrift(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	svc := NewAssessmentService(f.assessments, validator.New(), zerolog.Nop())

	require.NoError(t, f.db.Model(&models.Assessment{}).Where("id = ?", f.assessment.ID).Update("duration", 999).Error)

	repaired, err := svc.RecomputeDuration(ctx, f.assessment.ID)
	require.NoError(t, err)
	require.Equal(t, 30, repaired.Duration)

	fetched, err := svc.Get(ctx, f.assessment.ID)
	require.NoError(t, err)
	require.Equal(t, 30, fetched.Duration)

	_, err = svc.RecomputeDuration(ctx, f.assessment.ID+100)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}
