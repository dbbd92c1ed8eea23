package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/handler"
	"github.com/noah-isme/codeassess-api/internal/service"
)

func newSessionApp(sessions *stubSessionService, answers *stubSubmissionService, userID uint) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/sessions", withIdentity(userID, "candidate"))
	handler.NewSessionHandler(sessions, answers, validator.New(), zerolog.Nop()).Register(group)
	return app
}

func TestSessionHandler_StartUsesAuthenticatedCandidate(t *testing.T) {
	sessions := &stubSessionService{started: dto.SessionResponse{ID: 3, SessionToken: "abc", Status: "in_progress"}}
	app := newSessionApp(sessions, &stubSubmissionService{}, 7)

	resp := sendJSON(t, app, http.MethodPost, "/api/v1/sessions", dto.StartSessionRequest{AssessmentID: 11})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool                `json:"success"`
		Data    dto.SessionResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "abc", body.Data.SessionToken)
	require.Equal(t, uint(7), sessions.startCandidate)
	require.Equal(t, uint(11), sessions.startAssessment)
}

func TestSessionHandler_StartRequiresIdentity(t *testing.T) {
	app := newSessionApp(&stubSessionService{}, &stubSubmissionService{}, 0)

	resp := sendJSON(t, app, http.MethodPost, "/api/v1/sessions", dto.StartSessionRequest{AssessmentID: 11})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionHandler_StartValidationDetails(t *testing.T) {
	app := newSessionApp(&stubSessionService{}, &stubSubmissionService{}, 7)

	resp := sendJSON(t, app, http.MethodPost, "/api/v1/sessions", map[string]interface{}{})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Details map[string]string `json:"details"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "required", body.Details["AssessmentID"])
}

func TestSessionHandler_StartErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrSessionAlreadyActive, fiber.StatusConflict},
		{service.ErrNotInvited, fiber.StatusForbidden},
		{service.ErrInvitationExpired, fiber.StatusGone},
		{fmt.Errorf("%w: disk full", service.ErrStorageUnavailable), fiber.StatusServiceUnavailable},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := newSessionApp(&stubSessionService{err: tc.err}, &stubSubmissionService{}, 7)
			resp := sendJSON(t, app, http.MethodPost, "/api/v1/sessions", dto.StartSessionRequest{AssessmentID: 11})
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestSessionHandler_EndForwardsTokenAndCandidate(t *testing.T) {
	sessions := &stubSessionService{ended: dto.EndSessionResponse{Finalized: true}}
	app := newSessionApp(sessions, &stubSubmissionService{}, 7)

	token := "0123456789abcdef0123456789abcdef"
	resp := sendJSON(t, app, http.MethodPost, "/api/v1/sessions/5/end", dto.EndSessionRequest{SessionToken: token})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(5), sessions.endSession)
	require.Equal(t, token, sessions.endToken)
	require.Equal(t, uint(7), sessions.endCandidate)
}

func TestSessionHandler_EndUnknownSession(t *testing.T) {
	app := newSessionApp(&stubSessionService{err: service.ErrSessionNotFound}, &stubSubmissionService{}, 7)

	resp := sendJSON(t, app, http.MethodPost, "/api/v1/sessions/5/end", dto.EndSessionRequest{SessionToken: "0123456789abcdef0123"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = sendJSON(t, app, http.MethodPost, "/api/v1/sessions/abc/end", dto.EndSessionRequest{SessionToken: "0123456789abcdef0123"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_SubmitAnswer(t *testing.T) {
	score := 4.5
	answers := &stubSubmissionService{response: dto.SubmissionResponse{ID: 9, Score: &score, Status: "completed"}}
	app := newSessionApp(&stubSessionService{}, answers, 7)

	resp := sendJSON(t, app, http.MethodPost, "/api/v1/sessions/tok-123/submissions", dto.SubmitAnswerRequest{QuestionID: 2, Answer: "print(1)"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "tok-123", answers.token)
	require.Equal(t, uint(7), answers.candidate)
	require.Equal(t, uint(2), answers.payload.QuestionID)

	answers.err = service.ErrSessionTimeUp
	resp = sendJSON(t, app, http.MethodPost, "/api/v1/sessions/tok-123/submissions", dto.SubmitAnswerRequest{QuestionID: 2, Answer: "print(1)"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	answers.err = service.ErrQuestionNotInAssessment
	resp = sendJSON(t, app, http.MethodPost, "/api/v1/sessions/tok-123/submissions", dto.SubmitAnswerRequest{QuestionID: 2, Answer: "print(1)"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
