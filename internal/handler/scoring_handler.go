package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/scoring"
	"github.com/noah-isme/codeassess-api/internal/service"
	"github.com/noah-isme/codeassess-api/internal/utils"
)

// ScoringHandler grades answers outside of a test session.
type ScoringHandler struct {
	scorer    service.Scorer
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewScoringHandler builds a scoring handler instance.
func NewScoringHandler(scorer service.Scorer, validate *validator.Validate, logger zerolog.Logger) *ScoringHandler {
	return &ScoringHandler{
		scorer:    scorer,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "scoring_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ScoringHandler) Register(router fiber.Router) {
	router.Post("/answer", h.scoreAnswer)
	router.Post("/batch", h.scoreBatch)
}

func (h *ScoringHandler) scoreAnswer(c *fiber.Ctx) error {
	var payload dto.ScoreAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.invalid(c, err)
	}

	scored := h.scorer.ScoreAnswer(c.UserContext(), judgeRequest(payload))
	return utils.SendSuccess(c, "answer scored", h.scoreResponse(scored))
}

func (h *ScoringHandler) scoreBatch(c *fiber.Ctx) error {
	var payload dto.ScoreBatchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.invalid(c, err)
	}

	requests := make([]scoring.JudgeRequest, 0, len(payload.Items))
	for _, item := range payload.Items {
		requests = append(requests, judgeRequest(item))
	}

	scored := h.scorer.ScoreBatch(c.UserContext(), requests)
	responses := make([]dto.ScoreResponse, 0, len(scored))
	sources := make(map[string]int)
	for _, item := range scored {
		responses = append(responses, h.scoreResponse(item))
		sources[item.Source]++
	}

	return utils.OK(c, responses, "batch scored", fiber.Map{"items": len(responses), "sources": sources})
}

func (h *ScoringHandler) invalid(c *fiber.Ctx, err error) error {
	if ok, resp := validationFailure(c, err); ok {
		return resp
	}
	return utils.SendError(c, fiber.StatusBadRequest, err.Error())
}

func judgeRequest(payload dto.ScoreAnswerRequest) scoring.JudgeRequest {
	return scoring.JudgeRequest{
		QuestionTitle: payload.QuestionTitle,
		Question:      payload.Question,
		Language:      payload.Language,
		Answer:        payload.Answer,
		MaxScore:      payload.MaxScore,
	}
}

func (h *ScoringHandler) scoreResponse(scored scoring.Scored) dto.ScoreResponse {
	feedback := strings.TrimSpace(h.sanitizer.Sanitize(scored.Feedback))
	if feedback == "" {
		feedback = scoring.DefaultFeedback
	}
	return dto.ScoreResponse{
		Score:    scored.Score,
		Feedback: feedback,
		Source:   scored.Source,
	}
}
