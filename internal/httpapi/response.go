package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/plan"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/store"
	"github.com/abhisek/mathtutor/internal/tutor"
)

// Error codes carried in the error envelope.
const (
	CodeMissingFields      = "missing_fields"
	CodeInvalidDate        = "invalid_date"
	CodeUnknownTopic       = "unknown_topic"
	CodeInsertFailed       = "insert_failed"
	CodeVerificationFailed = "verification_failed"
	CodeRateLimited        = "rate_limited"
	CodeAIUnavailable      = "ai_unavailable"
	CodeNotFound           = "not_found"
	CodeQuizNotPassed      = "quiz_not_passed"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// fail maps err onto a status and code. Server side failures are logged
// and their detail is kept out of the response.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)

	var rl *llm.ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			"path", c.FullPath(),
			"session_id", sessionID(c),
			"code", code,
			"error", err,
		)
		if code == CodeInternal {
			err = errors.New("internal error")
		}
	}
	respondError(c, status, code, err)
}

func classify(err error) (int, string) {
	switch plan.KindOf(err) {
	case plan.KindMissingFields:
		return http.StatusBadRequest, CodeMissingFields
	case plan.KindInvalidDate:
		return http.StatusBadRequest, CodeInvalidDate
	case plan.KindUnknownTopic:
		return http.StatusBadRequest, CodeUnknownTopic
	case plan.KindInsertFailed:
		return http.StatusInternalServerError, CodeInsertFailed
	case plan.KindVerificationFailed:
		return http.StatusInternalServerError, CodeVerificationFailed
	}

	var (
		rateLimit   *llm.ErrRateLimit
		unavailable *llm.ErrProviderUnavailable
		invalid     *llm.ErrInvalidResponse
		tooLong     *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, tutor.ErrRateLimited), errors.As(err, &rateLimit):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, tutor.ErrInvalidRequest), errors.Is(err, mistakes.ErrInvalidRecord):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, progress.ErrQuizNotPassed):
		return http.StatusConflict, CodeQuizNotPassed
	case errors.Is(err, store.ErrNotFound), errors.Is(err, tutor.ErrNoGraph):
		return http.StatusNotFound, CodeNotFound
	case errors.As(err, &unavailable), errors.As(err, &invalid), errors.As(err, &tooLong),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, CodeAIUnavailable
	}
	return http.StatusInternalServerError, CodeInternal
}

func badRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, CodeBadRequest, err)
}
