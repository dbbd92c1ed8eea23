package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/scoring"
)

type stubSessionService struct {
	startCandidate  uint
	startAssessment uint
	endSession      uint
	endToken        string
	endCandidate    uint
	started         dto.SessionResponse
	ended           dto.EndSessionResponse
	err             error
}

func (s *stubSessionService) Start(_ context.Context, candidateID, assessmentID uint) (dto.SessionResponse, error) {
	s.startCandidate = candidateID
	s.startAssessment = assessmentID
	return s.started, s.err
}

func (s *stubSessionService) End(_ context.Context, sessionID uint, token string, candidateID uint) (dto.EndSessionResponse, error) {
	s.endSession = sessionID
	s.endToken = token
	s.endCandidate = candidateID
	return s.ended, s.err
}

type stubSubmissionService struct {
	token     string
	candidate uint
	payload   dto.SubmitAnswerRequest
	rescored  uint
	response  dto.SubmissionResponse
	err       error
}

func (s *stubSubmissionService) SubmitAnswer(_ context.Context, sessionToken string, candidateID uint, payload dto.SubmitAnswerRequest) (dto.SubmissionResponse, error) {
	s.token = sessionToken
	s.candidate = candidateID
	s.payload = payload
	return s.response, s.err
}

func (s *stubSubmissionService) Rescore(_ context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	s.rescored = submissionID
	return s.response, s.err
}

type stubResultService struct {
	assessmentID uint
	candidateID  uint
	result       dto.AssessmentResult
	err          error
}

func (s *stubResultService) ComputeResults(_ context.Context, assessmentID, candidateID uint) (dto.AssessmentResult, error) {
	s.assessmentID = assessmentID
	s.candidateID = candidateID
	return s.result, s.err
}

type stubScorer struct {
	batches int
}

func (s *stubScorer) ScoreAnswer(_ context.Context, req scoring.JudgeRequest) scoring.Scored {
	if req.Answer == "" {
		return scoring.Scored{ScoreResult: scoring.FallbackScore(req.Answer, req.MaxScore), Source: "fallback"}
	}
	return scoring.Scored{
		ScoreResult: scoring.ScoreResult{Score: req.MaxScore / 2, Feedback: "<script>x()</script>Readable solution"},
		Source:      "ai",
	}
}

func (s *stubScorer) ScoreBatch(ctx context.Context, reqs []scoring.JudgeRequest) []scoring.Scored {
	s.batches++
	results := make([]scoring.Scored, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, s.ScoreAnswer(ctx, req))
	}
	return results
}

func withIdentity(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID > 0 {
			c.Locals("user_id", userID)
		}
		if role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	}
}

func sendJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
