package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/codeassess-api/internal/service"
	"github.com/noah-isme/codeassess-api/internal/utils"
)

// ResultHandler serves aggregated assessment results.
type ResultHandler struct {
	service service.ResultService
	logger  zerolog.Logger
}

// NewResultHandler builds a result handler instance.
func NewResultHandler(service service.ResultService, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		service: service,
		logger:  logger.With().Str("component", "result_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ResultHandler) Register(router fiber.Router) {
	router.Get("/:id/results", h.results)
}

// results returns the caller's own results. Recruiters may read any candidate via ?candidate_id.
func (h *ResultHandler) results(c *fiber.Ctx) error {
	candidateID := userIDFromContext(c)
	if candidateID == 0 {
		return unauthenticated(c)
	}

	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	requested, err := parseQueryUint(c, "candidate_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if requested != nil && *requested != candidateID {
		if !isRecruiter(c) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		candidateID = *requested
	}

	result, err := h.service.ComputeResults(c.UserContext(), assessmentID, candidateID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrStorageUnavailable):
			requestLogger(h.logger, c).Error().Err(err).Msg("storage unavailable")
			return utils.SendError(c, fiber.StatusServiceUnavailable, "service temporarily unavailable")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "results computed", result)
}
