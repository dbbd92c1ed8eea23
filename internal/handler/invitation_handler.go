package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/service"
	"github.com/noah-isme/codeassess-api/internal/utils"
)

// InvitationHandler lets recruiters invite candidates.
type InvitationHandler struct {
	service service.InvitationService
	logger  zerolog.Logger
}

// NewInvitationHandler builds an invitation handler instance.
func NewInvitationHandler(service service.InvitationService, logger zerolog.Logger) *InvitationHandler {
	return &InvitationHandler{
		service: service,
		logger:  logger.With().Str("component", "invitation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *InvitationHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Post("/:id/expire", h.expire)
}

func (h *InvitationHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateInvitationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	invitation, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "invitation created", invitation)
}

func (h *InvitationHandler) expire(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	applied, err := h.service.Expire(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "invitation expired", fiber.Map{"id": id, "applied": applied})
}

func (h *InvitationHandler) handleError(c *fiber.Ctx, err error) error {
	if ok, resp := validationFailure(c, err); ok {
		return resp
	}

	switch {
	case errors.Is(err, service.ErrDuplicateInvitation):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidExpiry):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAssessmentNotFound), errors.Is(err, service.ErrInvitationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		requestLogger(h.logger, c).Error().Err(err).Msg("storage unavailable")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
