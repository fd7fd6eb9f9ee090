package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/store"
)

type stateResponse struct {
	TaskID string                 `json:"task_id"`
	State  progress.State         `json:"state"`
	Stage  progress.Stage         `json:"stage"`
	Result *curriculum.QuizResult `json:"result,omitempty"`
}

func (s *Server) taskProgress(c *gin.Context) {
	_, task, ok := s.ownTask(c)
	if !ok {
		return
	}
	st, err := s.progress.State(c.Request.Context(), sessionID(c), task.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{TaskID: task.ID, State: st, Stage: st.Stage()})
}

// quizBody carries either graded answers or a precomputed wrong count.
// Answers are option indexes; they are graded against Questions when given
// and the topic's catalog quiz otherwise.
type quizBody struct {
	Answers   []int                     `json:"answers"`
	Questions []curriculum.QuizQuestion `json:"questions"`
	Wrong     *int                      `json:"wrong"`
}

func (s *Server) completeQuiz(c *gin.Context) {
	p, task, ok := s.ownTask(c)
	if !ok {
		return
	}
	var body quizBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}

	ctx := c.Request.Context()
	id := sessionID(c)
	var (
		wrong  int
		result *curriculum.QuizResult
	)
	switch {
	case body.Wrong != nil:
		if *body.Wrong < 0 {
			badRequest(c, errors.New("wrong must not be negative"))
			return
		}
		wrong = *body.Wrong
	case body.Answers != nil:
		quiz := body.Questions
		if len(quiz) == 0 {
			if t, ok := curriculum.Lookup(p.TopicID); ok {
				quiz = t.Quiz
			}
		}
		if len(quiz) == 0 {
			badRequest(c, errors.New("no quiz to grade answers against"))
			return
		}
		res := curriculum.GradeQuiz(quiz, body.Answers)
		result = &res
		wrong = res.Wrong
		for _, i := range res.Missed {
			s.mistakes.Record(ctx, quizMistake(id, p, quiz[i], body.Answers, i))
		}
	default:
		badRequest(c, errors.New("answers or wrong is required"))
		return
	}

	st, err := s.progress.CompleteQuiz(ctx, id, task.ID, wrong)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{TaskID: task.ID, State: st, Stage: st.Stage(), Result: result})
}

func quizMistake(sessionID string, p *store.Plan, q curriculum.QuizQuestion, answers []int, i int) mistakes.Record {
	option := func(idx int) string {
		if idx >= 0 && idx < len(q.Options) {
			return q.Options[idx]
		}
		return ""
	}
	chosen := ""
	if i < len(answers) {
		chosen = option(answers[i])
	}
	return mistakes.Record{
		SessionID:  sessionID,
		Kind:       mistakes.KindQuiz,
		Problem:    q.Question,
		TopicID:    p.TopicID,
		TopicLabel: p.TopicName,
		Detail: mistakes.Detail{
			ChosenAnswer:  chosen,
			CorrectAnswer: option(q.Answer),
		},
	}
}

func (s *Server) completeExercise(c *gin.Context) {
	_, task, ok := s.ownTask(c)
	if !ok {
		return
	}
	st, err := s.progress.CompleteExercise(c.Request.Context(), sessionID(c), task.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{TaskID: task.ID, State: st, Stage: st.Stage()})
}
