package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/plan"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/session"
	"github.com/abhisek/mathtutor/internal/store"
)

func (s *Server) getSession(c *gin.Context) {
	res := sessionOf(c)
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	share := session.ShareURL(&url.URL{Scheme: scheme, Host: c.Request.Host, Path: "/"}, res.ID)
	c.JSON(http.StatusOK, gin.H{
		"session_id": res.ID,
		"source":     res.Source,
		"share_url":  share.String(),
	})
}

type topicView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Grade     string   `json:"grade"`
	Subtopics []string `json:"subtopics"`
}

func (s *Server) listTopics(c *gin.Context) {
	grade := strings.TrimSpace(c.Query("grade"))
	topics := curriculum.AllTopics()
	if grade != "" {
		topics = curriculum.TopicsForGrade(grade)
	}
	out := make([]topicView, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicView{ID: t.ID, Name: t.Name, Grade: t.Grade, Subtopics: curriculum.Subtopics(t)})
	}
	c.JSON(http.StatusOK, gin.H{"grades": curriculum.Grades(), "topics": out})
}

type createPlanBody struct {
	Grade     string `json:"grade"`
	TopicID   string `json:"topicId"`
	TopicName string `json:"topicName"`
	TestDate  string `json:"testDate"`
	Replace   bool   `json:"replace"`
}

func (s *Server) createPlan(c *gin.Context) {
	var body createPlanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}

	var testDate store.Date
	if v := strings.TrimSpace(body.TestDate); v != "" {
		d, err := store.ParseDate(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeInvalidDate, err)
			return
		}
		testDate = d
	}

	res, err := s.plans.Generate(c.Request.Context(), plan.Request{
		Grade:     body.Grade,
		TopicID:   body.TopicID,
		TopicName: body.TopicName,
		TestDate:  testDate,
		SessionID: sessionID(c),
		Replace:   body.Replace,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	status := http.StatusCreated
	if res.Existing {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

type taskView struct {
	store.Task
	QuizPassed         bool   `json:"quiz_passed"`
	ExercisesCompleted int    `json:"exercises_completed"`
	Phase              string `json:"phase"`
}

func (s *Server) getPlan(c *gin.Context) {
	ctx := c.Request.Context()
	id := sessionID(c)
	p, tasks, err := s.plans.Plan(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	rows, err := s.progress.PlanProgress(ctx, p.ID, id)
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		var row *store.Progress
		if r, ok := rows[t.ID]; ok {
			row = &r
		}
		st := progress.Derive(t, row)
		views = append(views, taskView{
			Task:               t,
			QuizPassed:         st.QuizPassed,
			ExercisesCompleted: st.ExercisesCompleted,
			Phase:              st.Phase.String(),
		})
	}

	done, total, pct := progress.Completion(tasks)
	resp := gin.H{
		"plan":    p,
		"tasks":   views,
		"buckets": progress.Partition(tasks, store.DateOf(s.now())),
		"completion": gin.H{
			"done":    done,
			"total":   total,
			"percent": pct,
		},
		"next": nil,
	}
	if next, ok := progress.Next(tasks); ok {
		resp["next"] = next
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deletePlan(c *gin.Context) {
	if err := s.plans.Delete(c.Request.Context(), sessionID(c)); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownTask finds taskID in the session's plan. Tasks of other sessions are
// reported as not found.
func (s *Server) ownTask(c *gin.Context) (*store.Plan, store.Task, bool) {
	taskID := c.Param("id")
	p, tasks, err := s.plans.Plan(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return nil, store.Task{}, false
	}
	for _, t := range tasks {
		if t.ID == taskID {
			return p, t, true
		}
	}
	respondError(c, http.StatusNotFound, CodeNotFound, fmt.Errorf("task %s not found", taskID))
	return nil, store.Task{}, false
}
