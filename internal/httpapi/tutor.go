package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/graph"
	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/sse"
	"github.com/abhisek/mathtutor/internal/store"
	"github.com/abhisek/mathtutor/internal/tutor"
)

var errNoTutor = &llm.ErrProviderUnavailable{Err: errors.New("no AI provider configured")}

func (s *Server) requireTutor(c *gin.Context) bool {
	if s.tutor == nil {
		respondError(c, http.StatusServiceUnavailable, CodeAIUnavailable, errNoTutor)
		return false
	}
	return true
}

// askStep streams the answer as server-sent events. Failures before the
// first delta get a normal JSON error; later ones an error frame.
func (s *Server) askStep(c *gin.Context) {
	if !s.requireTutor(c) {
		return
	}
	var req tutor.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}
	req.SessionID = sessionID(c)

	var enc *sse.Encoder
	open := func() {
		sse.SetHeaders(c.Writer.Header())
		c.Status(http.StatusOK)
		enc = sse.NewEncoder(c.Writer)
	}

	_, err := s.tutor.AskStep(c.Request.Context(), req, func(delta string) error {
		if enc == nil {
			open()
		}
		return enc.Delta(delta)
	})
	if err != nil {
		if enc == nil {
			s.fail(c, err)
			return
		}
		_, code := classify(err)
		msg := err.Error()
		if code == CodeInternal {
			msg = "internal error"
		}
		s.log.Warn("tutor stream failed", "session_id", req.SessionID, "code", code, "error", err)
		_ = enc.Error(code, msg)
		return
	}
	if enc == nil {
		open()
	}
	_ = enc.Done()
}

func (s *Server) graphData(c *gin.Context) {
	if !s.requireTutor(c) {
		return
	}
	var req tutor.GraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}
	req.SessionID = sessionID(c)
	png := strings.EqualFold(c.Query("format"), "png")

	data, err := s.tutor.GraphData(c.Request.Context(), req)
	switch {
	case errors.Is(err, tutor.ErrNoGraph) && !png:
		c.JSON(http.StatusOK, tutor.GraphData{Type: tutor.GraphNone})
		return
	case err != nil:
		s.fail(c, err)
		return
	}

	if !png {
		c.JSON(http.StatusOK, data)
		return
	}
	img, err := graph.RenderParabola(data, graph.DefaultOptions())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// quiz authors a quiz. Without a topic in the body the session's plan
// topic is used.
func (s *Server) quiz(c *gin.Context) {
	if !s.requireTutor(c) {
		return
	}
	var req tutor.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}
	req.SessionID = sessionID(c)

	if strings.TrimSpace(req.Topic) == "" {
		p, _, err := s.plans.Plan(c.Request.Context(), req.SessionID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.fail(c, err)
			return
		}
		if p != nil {
			req.Topic, req.Grade = p.TopicName, p.Grade
			if t, ok := curriculum.Lookup(p.TopicID); ok && len(req.Subtopics) == 0 {
				req.Subtopics = curriculum.Subtopics(t)
			}
		}
	}

	questions, err := s.tutor.GenerateQuiz(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topic": req.Topic, "questions": questions})
}
