package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mathtutor/internal/cache"
	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/export"
	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/plan"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/retry"
	"github.com/abhisek/mathtutor/internal/sse"
	"github.com/abhisek/mathtutor/internal/store"
	"github.com/abhisek/mathtutor/internal/tutor"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var now = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	srv  *Server
	mock *llm.MockProvider
}

func newHarness(t *testing.T, withTutor bool) *harness {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := func() time.Time { return now }
	fast := retry.Policy{Attempts: 2, Delay: time.Millisecond}

	h := &harness{mock: llm.NewMockProvider()}
	deps := Deps{
		Plans:        plan.NewService(st.PlanRepo(), plan.WithClock(clock), plan.WithRetry(fast)),
		Progress:     progress.NewTracker(st.PlanRepo(), st.ProgressRepo(), nil).WithClock(clock).WithRetry(fast),
		Mistakes:     mistakes.NewRecorder(st.MistakeRepo(), nil).WithClock(clock),
		Now:          clock,
		NewSessionID: func() string { return "minted" },
	}
	if withTutor {
		cfg := tutor.DefaultConfig()
		cfg.RatePerMinute = 0
		deps.Tutor = tutor.New(h.mock, cfg, cache.NewMemory(), nil)
	}
	h.srv = New(deps)
	return h
}

func (h *harness) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(data))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if session != "" {
		r.Header.Set(HeaderSession, session)
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[ErrorEnvelope](t, w).Error.Code
}

func (h *harness) createPlan(t *testing.T, session string) plan.Result {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/plan", session, gin.H{
		"grade": "9", "topicId": "9-quadratics", "testDate": "2026-03-16",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[plan.Result](t, w)
}

type planResponse struct {
	Plan    store.Plan       `json:"plan"`
	Tasks   []taskView       `json:"tasks"`
	Buckets progress.Buckets `json:"buckets"`
	Next    *store.Task      `json:"next"`
}

func (h *harness) firstTask(t *testing.T, session string) string {
	t.Helper()
	w := h.do(t, http.MethodGet, "/api/plan", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[planResponse](t, w)
	require.NotEmpty(t, resp.Tasks)
	return resp.Tasks[0].ID
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)
	w := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSession(t *testing.T) {
	h := newHarness(t, false)

	t.Run("minted", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/api/session", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[map[string]string](t, w)
		assert.Equal(t, "minted", body["session_id"])
		assert.Equal(t, "new", body["source"])
		assert.Equal(t, "http://example.com/?session=minted", body["share_url"])
		assert.Equal(t, "minted", w.Header().Get(HeaderSession))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.Equal(t, "minted", cookies[0].Value)
	})

	t.Run("header", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/api/session", "abc", nil)
		body := decode[map[string]string](t, w)
		assert.Equal(t, "abc", body["session_id"])
		assert.Equal(t, "ephemeral", body["source"])
	})

	t.Run("query", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/api/session?session=shared", "", nil)
		body := decode[map[string]string](t, w)
		assert.Equal(t, "shared", body["session_id"])
		assert.Equal(t, "query", body["source"])
	})

	t.Run("cookie wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/session?session=shared", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
		r.Header.Set(HeaderSession, "from-header")
		w := httptest.NewRecorder()
		h.srv.Handler().ServeHTTP(w, r)
		body := decode[map[string]string](t, w)
		assert.Equal(t, "from-cookie", body["session_id"])
		assert.Equal(t, "durable", body["source"])
	})
}

func TestTopics(t *testing.T) {
	h := newHarness(t, false)
	w := h.do(t, http.MethodGet, "/api/topics?grade=9", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Topics []topicView `json:"topics"`
	}](t, w)
	var found *topicView
	for i := range body.Topics {
		assert.Equal(t, "9", body.Topics[i].Grade)
		if body.Topics[i].ID == "9-quadratics" {
			found = &body.Topics[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "Quadratic Equations", found.Name)
	assert.Len(t, found.Subtopics, 4)
}

func TestCreatePlan(t *testing.T) {
	h := newHarness(t, false)

	res := h.createPlan(t, "s1")
	assert.Equal(t, 5, res.TaskCount)
	assert.Equal(t, plan.SourceLocal, res.Source)
	assert.NotEmpty(t, res.PlanID)

	t.Run("existing plan is kept", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/api/plan", "s1", gin.H{
			"grade": "9", "topicId": "9-quadratics", "testDate": "2026-03-20",
		})
		require.Equal(t, http.StatusOK, w.Code)
		again := decode[plan.Result](t, w)
		assert.True(t, again.Existing)
		assert.Equal(t, res.PlanID, again.PlanID)
	})

	t.Run("replace", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/api/plan", "s1", gin.H{
			"grade": "9", "topicId": "9-quadratics", "testDate": "2026-03-20", "replace": true,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotEqual(t, res.PlanID, decode[plan.Result](t, w).PlanID)
	})
}

func TestCreatePlan_Errors(t *testing.T) {
	h := newHarness(t, false)
	tests := []struct {
		name string
		body gin.H
		code string
	}{
		{"missing topic", gin.H{"grade": "9", "testDate": "2026-03-16"}, CodeMissingFields},
		{"missing date", gin.H{"grade": "9", "topicId": "9-quadratics"}, CodeMissingFields},
		{"malformed date", gin.H{"grade": "9", "topicId": "9-quadratics", "testDate": "16/03/2026"}, CodeInvalidDate},
		{"date today", gin.H{"grade": "9", "topicId": "9-quadratics", "testDate": "2026-03-10"}, CodeInvalidDate},
		{"unknown topic", gin.H{"grade": "9", "topicId": "9-astrology", "testDate": "2026-03-16"}, CodeUnknownTopic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/api/plan", "s1", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestGetAndDeletePlan(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(t, http.MethodGet, "/api/plan", "s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, w))

	h.createPlan(t, "s1")
	w = h.do(t, http.MethodGet, "/api/plan", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[planResponse](t, w)
	assert.Equal(t, "Quadratic Equations", resp.Plan.TopicName)
	require.Len(t, resp.Tasks, 5)
	assert.Equal(t, "not_started", resp.Tasks[0].Phase)
	require.Len(t, resp.Buckets.Today, 1)
	assert.Equal(t, 1, resp.Buckets.Today[0].DayNumber)
	assert.Len(t, resp.Buckets.Upcoming, 4)
	require.NotNil(t, resp.Next)
	assert.Equal(t, 1, resp.Next.DayNumber)

	w = h.do(t, http.MethodDelete, "/api/plan", "s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = h.do(t, http.MethodGet, "/api/plan", "s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stateBody struct {
	TaskID string `json:"task_id"`
	State  struct {
		Phase              string `json:"phase"`
		QuizPassed         bool   `json:"quiz_passed"`
		ExercisesCompleted int    `json:"exercises_completed"`
		TaskCompleted      bool   `json:"task_completed"`
	} `json:"state"`
	Stage  string                 `json:"stage"`
	Result *curriculum.QuizResult `json:"result"`
}

func wrongAnswers(quiz []curriculum.QuizQuestion, wrong int) []int {
	out := make([]int, len(quiz))
	for i, q := range quiz {
		out[i] = q.Answer
		if i < wrong {
			out[i] = (q.Answer + 1) % len(q.Options)
		}
	}
	return out
}

func TestQuizAndExerciseFlow(t *testing.T) {
	h := newHarness(t, false)
	h.createPlan(t, "s1")
	taskID := h.firstTask(t, "s1")
	base := "/api/tasks/" + taskID

	w := h.do(t, http.MethodGet, base+"/progress", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[stateBody](t, w)
	assert.Equal(t, "not_started", st.State.Phase)
	assert.Equal(t, "theory", st.Stage)

	topic, _ := curriculum.Lookup("9-quadratics")
	w = h.do(t, http.MethodPost, base+"/quiz", "s1", gin.H{"answers": wrongAnswers(topic.Quiz, 3)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st = decode[stateBody](t, w)
	require.NotNil(t, st.Result)
	assert.Equal(t, 3, st.Result.Wrong)
	assert.False(t, st.Result.Passed)
	assert.Equal(t, "theory", st.Stage)

	// missed questions land in the mistake log
	w = h.do(t, http.MethodGet, "/api/mistakes?topic=9-quadratics", "s1", nil)
	list := decode[struct {
		Mistakes []mistakes.Record `json:"mistakes"`
	}](t, w)
	require.Len(t, list.Mistakes, 3)
	assert.Equal(t, mistakes.KindQuiz, list.Mistakes[0].Kind)
	assert.Equal(t, "Quadratic Equations", list.Mistakes[0].TopicLabel)
	assert.NotEmpty(t, list.Mistakes[0].Detail.CorrectAnswer)

	w = h.do(t, http.MethodPost, base+"/exercise", "s1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeQuizNotPassed, errorCode(t, w))

	w = h.do(t, http.MethodPost, base+"/quiz", "s1", gin.H{"wrong": 2})
	require.Equal(t, http.StatusOK, w.Code)
	st = decode[stateBody](t, w)
	assert.Equal(t, "quiz_passed", st.State.Phase)
	assert.Equal(t, "exercises", st.Stage)

	for i := 1; i <= 4; i++ {
		w = h.do(t, http.MethodPost, base+"/exercise", "s1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		st = decode[stateBody](t, w)
		assert.Equal(t, i, st.State.ExercisesCompleted)
	}
	assert.Equal(t, "complete", st.State.Phase)
	assert.True(t, st.State.TaskCompleted)

	w = h.do(t, http.MethodGet, "/api/plan", "s1", nil)
	resp := decode[planResponse](t, w)
	assert.True(t, resp.Tasks[0].IsCompleted)
	assert.Empty(t, resp.Buckets.Today)
	require.Len(t, resp.Buckets.Past.Done, 1)
	assert.Equal(t, 2, resp.Next.DayNumber)
}

func TestQuiz_BadBodies(t *testing.T) {
	h := newHarness(t, false)
	h.createPlan(t, "s1")
	base := "/api/tasks/" + h.firstTask(t, "s1")

	w := h.do(t, http.MethodPost, base+"/quiz", "s1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(t, http.MethodPost, base+"/quiz", "s1", gin.H{"wrong": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, errorCode(t, w))
}

func TestTasksAreScopedToSession(t *testing.T) {
	h := newHarness(t, false)
	h.createPlan(t, "s1")
	h.createPlan(t, "s2")
	taskID := h.firstTask(t, "s1")

	w := h.do(t, http.MethodPost, "/api/tasks/"+taskID+"/quiz", "s2", gin.H{"wrong": 0})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.do(t, http.MethodGet, "/api/tasks/"+taskID+"/progress", "nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMistakes(t *testing.T) {
	h := newHarness(t, false)

	add := func(body gin.H) *httptest.ResponseRecorder {
		return h.do(t, http.MethodPost, "/api/mistakes", "s1", body)
	}
	w := add(gin.H{"kind": "exercise", "problem": "Factor x² + 5x + 6", "topic_id": "9-quadratics", "topic_label": "Quadratic Equations",
		"detail": gin.H{"incorrect_steps": []int{1}, "step_details": []gin.H{{"step": "x² + 2x", "explanation": "simplify the sign"}}}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[mistakes.Record](t, w)
	assert.NotEmpty(t, first.ID)
	assert.True(t, first.OccurredAt.Equal(now))

	w = add(gin.H{"kind": "practice", "problem": "x² = 4", "topic_id": "9-polynomials", "detail": gin.H{"attempts": 2}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = add(gin.H{"kind": "guess", "problem": "?", "topic_id": "9-quadratics"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, errorCode(t, w))

	w = h.do(t, http.MethodGet, "/api/mistakes", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)

	w = h.do(t, http.MethodGet, "/api/mistakes?days=abc", "s1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/mistakes/stats?days=7", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[mistakes.Summary](t, w)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByKind[mistakes.KindExercise])
	require.NotNil(t, stats.Patterns.MostProblematicStep)
	assert.Equal(t, 1, *stats.Patterns.MostProblematicStep)

	// other sessions see nothing
	w = h.do(t, http.MethodGet, "/api/mistakes", "s2", nil)
	assert.Equal(t, 0, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)

	w = h.do(t, http.MethodDelete, "/api/mistakes/"+first.ID, "s2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.do(t, http.MethodDelete, "/api/mistakes/"+first.ID, "s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(t, http.MethodDelete, "/api/mistakes", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
}

func TestTutorAsk_Streams(t *testing.T) {
	h := newHarness(t, true)
	h.mock.AddResponse(llm.MockResponse{Deltas: []string{"Subtract ", "6 from both sides."}})

	w := h.do(t, http.MethodPost, "/api/tutor/ask", "s1", gin.H{
		"stepContent": "x + 6 = 10", "userQuestion": "Why subtract?", "topic": "Linear equations", "gradeLevel": "9",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream; charset=utf-8", w.Header().Get("Content-Type"))

	var deltas []string
	res, err := sse.Consume(w.Body, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, "Subtract 6 from both sides.", res.Text)
	assert.Equal(t, []string{"Subtract ", "6 from both sides."}, deltas)
}

func TestTutorAsk_Errors(t *testing.T) {
	h := newHarness(t, true)
	w := h.do(t, http.MethodPost, "/api/tutor/ask", "s1", gin.H{"stepContent": "x + 6 = 10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, errorCode(t, w))

	h.mock.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	w = h.do(t, http.MethodPost, "/api/tutor/ask", "s1", gin.H{"stepContent": "x + 6 = 10", "userQuestion": "Why?"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeAIUnavailable, errorCode(t, w))

	noTutor := newHarness(t, false)
	w = noTutor.do(t, http.MethodPost, "/api/tutor/ask", "s1", gin.H{"stepContent": "x", "userQuestion": "y"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeAIUnavailable, errorCode(t, w))
}

func graphContent(typ string, a, b, c float64) json.RawMessage {
	data, _ := json.Marshal(tutor.GraphData{Type: typ, Parameters: tutor.GraphParams{A: a, B: b, C: c, Roots: []float64{}}})
	return data
}

func TestTutorGraph(t *testing.T) {
	h := newHarness(t, true)
	h.mock.AddResponse(llm.MockResponse{Content: graphContent(tutor.GraphParabola, 1, -5, 6)})

	req := gin.H{"context": "Solve x² - 5x + 6 = 0", "topic": "Quadratic Equations", "gradeLevel": "9"}
	w := h.do(t, http.MethodPost, "/api/tutor/graph", "s1", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	g := decode[tutor.GraphData](t, w)
	assert.Equal(t, tutor.GraphParabola, g.Type)
	assert.Equal(t, []float64{2, 3}, g.Parameters.Roots)

	// cached, so the png needs no further provider call
	w = h.do(t, http.MethodPost, "/api/tutor/graph?format=png", "s1", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	assert.Equal(t, 1, h.mock.CallCount())
}

func TestTutorGraph_None(t *testing.T) {
	h := newHarness(t, true)
	h.mock.AddResponse(llm.MockResponse{Content: graphContent(tutor.GraphNone, 0, 0, 0)})

	req := gin.H{"context": "Add 2 and 3"}
	w := h.do(t, http.MethodPost, "/api/tutor/graph", "s1", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tutor.GraphNone, decode[tutor.GraphData](t, w).Type)

	w = h.do(t, http.MethodPost, "/api/tutor/graph?format=png", "s1", req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTutorQuiz_UsesPlanTopic(t *testing.T) {
	h := newHarness(t, true)
	h.createPlan(t, "s1")
	h.mock.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"questions":[
		{"question":"Roots of x² - 1 = 0?","options":["±1","1","0","none"],"answer":0,"explanation":"x² = 1"}
	]}`)})

	w := h.do(t, http.MethodPost, "/api/tutor/quiz", "s1", gin.H{"count": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Topic     string                    `json:"topic"`
		Questions []curriculum.QuizQuestion `json:"questions"`
	}](t, w)
	assert.Equal(t, "Quadratic Equations", body.Topic)
	require.Len(t, body.Questions, 1)

	prompt := h.mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "- Factoring Quadratics")
}

func TestTutorQuiz_NoTopic(t *testing.T) {
	h := newHarness(t, true)
	w := h.do(t, http.MethodPost, "/api/tutor/quiz", "s1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, h.mock.CallCount())
}

func TestExport(t *testing.T) {
	h := newHarness(t, false)
	h.createPlan(t, "s1")
	h.do(t, http.MethodPost, "/api/mistakes", "s1", gin.H{"kind": "practice", "problem": "x² = 4", "topic_id": "9-quadratics"})

	w := h.do(t, http.MethodGet, "/api/export", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="mathtutor-2026-03-10.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetTasks)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	rows, err = f.GetRows(export.SheetMistakes)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExport_WithoutPlan(t *testing.T) {
	h := newHarness(t, false)
	w := h.do(t, http.MethodGet, "/api/export", "fresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{plan.ErrMissingFields, http.StatusBadRequest, CodeMissingFields},
		{&plan.Error{Kind: plan.KindInsertFailed, Attempts: 3}, http.StatusInternalServerError, CodeInsertFailed},
		{plan.ErrVerificationFailed, http.StatusInternalServerError, CodeVerificationFailed},
		{fmt.Errorf("ask: %w", tutor.ErrRateLimited), http.StatusTooManyRequests, CodeRateLimited},
		{&llm.ErrRateLimit{RetryAfter: time.Second}, http.StatusTooManyRequests, CodeRateLimited},
		{&llm.ErrInvalidResponse{Err: errors.New("bad json")}, http.StatusBadGateway, CodeAIUnavailable},
		{context.DeadlineExceeded, http.StatusBadGateway, CodeAIUnavailable},
		{store.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{progress.ErrQuizNotPassed, http.StatusConflict, CodeQuizNotPassed},
		{mistakes.ErrInvalidRecord, http.StatusBadRequest, CodeBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	h := newHarness(t, false)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { h.srv.fail(c, errors.New("pq: password=hunter2")) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "hunter2"))
}
