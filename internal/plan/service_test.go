package plan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/retry"
	"github.com/abhisek/mathtutor/internal/store"
)

var (
	testNow    = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)
	fastPolicy = retry.Policy{Attempts: 3, Delay: time.Millisecond}
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestService(repo Repository, opts ...Option) *Service {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithRetry(fastPolicy),
	}
	return NewService(repo, append(base, opts...)...)
}

func quadraticsRequest(days int) Request {
	return Request{
		Grade:     "9",
		TopicID:   "9-quadratics",
		TestDate:  store.DateOf(testNow).AddDays(days),
		SessionID: "session-1",
	}
}

// flakyRepo wraps a real repository and injects failures.
type flakyRepo struct {
	Repository

	mu             sync.Mutex
	insertFails    int // remaining Insert failures; -1 fails forever
	taskFails      int
	hidePlans      bool
	inserts        int
	taskInserts    int
	deletedPlanIDs []string
}

var errInjected = errors.New("injected failure")

func (f *flakyRepo) Insert(ctx context.Context, p *store.Plan) error {
	f.mu.Lock()
	f.inserts++
	fail := f.insertFails != 0
	if f.insertFails > 0 {
		f.insertFails--
	}
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.Repository.Insert(ctx, p)
}

func (f *flakyRepo) InsertTasks(ctx context.Context, tasks []store.Task) error {
	f.mu.Lock()
	f.taskInserts++
	fail := f.taskFails != 0
	if f.taskFails > 0 {
		f.taskFails--
	}
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.Repository.InsertTasks(ctx, tasks)
}

func (f *flakyRepo) BySession(ctx context.Context, sessionID string) (*store.Plan, error) {
	if f.hidePlans {
		return nil, store.ErrNotFound
	}
	return f.Repository.BySession(ctx, sessionID)
}

func (f *flakyRepo) Delete(ctx context.Context, planID string) error {
	f.mu.Lock()
	f.deletedPlanIDs = append(f.deletedPlanIDs, planID)
	f.mu.Unlock()
	return f.Repository.Delete(ctx, planID)
}

func TestGenerate_QuadraticsScenario(t *testing.T) {
	s := openStore(t)
	svc := newTestService(s.PlanRepo())

	res, err := svc.Generate(context.Background(), quadraticsRequest(6))
	require.NoError(t, err)
	assert.Equal(t, 5, res.TaskCount)
	assert.Equal(t, SourceLocal, res.Source)
	assert.False(t, res.Existing)

	p, tasks, err := svc.Plan(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, res.PlanID, p.ID)
	assert.Equal(t, "Quadratic Equations", p.TopicName)
	assert.Equal(t, string(SourceLocal), p.Source)

	var days []int
	for _, tk := range tasks {
		days = append(days, tk.DayNumber)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 6}, days)
	assert.Equal(t, store.DateOf(testNow).AddDays(5), tasks[4].ScheduledDate)
}

func TestGenerate_Validation(t *testing.T) {
	s := openStore(t)
	svc := newTestService(s.PlanRepo())

	tests := []struct {
		name   string
		mutate func(*Request)
		want   error
	}{
		{"no grade", func(r *Request) { r.Grade = "" }, ErrMissingFields},
		{"no topic", func(r *Request) { r.TopicID = " " }, ErrMissingFields},
		{"no date", func(r *Request) { r.TestDate = store.Date{} }, ErrMissingFields},
		{"no session", func(r *Request) { r.SessionID = "" }, ErrMissingFields},
		{"unknown topic", func(r *Request) { r.TopicID = "9-calculus" }, ErrUnknownTopic},
		{"same day", func(r *Request) { r.TestDate = store.DateOf(testNow) }, ErrInvalidDate},
		{"past", func(r *Request) { r.TestDate = store.DateOf(testNow).AddDays(-3) }, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := quadraticsRequest(6)
			tt.mutate(&req)
			_, err := svc.Generate(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, _, err := svc.Plan(context.Background(), "session-1")
	assert.ErrorIs(t, err, store.ErrNotFound, "nothing persisted")
}

func TestGenerate_ExistingPlanShortCircuits(t *testing.T) {
	s := openStore(t)
	svc := newTestService(s.PlanRepo())
	ctx := context.Background()

	first, err := svc.Generate(ctx, quadraticsRequest(6))
	require.NoError(t, err)

	second, err := svc.Generate(ctx, quadraticsRequest(10))
	require.NoError(t, err)
	assert.True(t, second.Existing)
	assert.Equal(t, first.PlanID, second.PlanID)
	assert.Equal(t, first.TaskCount, second.TaskCount)

	plans, err := s.PlanRepo().All(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestGenerate_ReplaceDeletesOldPlan(t *testing.T) {
	s := openStore(t)
	svc := newTestService(s.PlanRepo())
	ctx := context.Background()

	first, err := svc.Generate(ctx, quadraticsRequest(6))
	require.NoError(t, err)
	oldTasks, err := s.PlanRepo().Tasks(ctx, first.PlanID)
	require.NoError(t, err)
	require.NoError(t, s.ProgressRepo().SetQuizPassed(ctx, oldTasks[0].ID, "session-1", testNow))

	req := quadraticsRequest(3)
	req.TopicID = "9-polynomials"
	req.Replace = true
	second, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.PlanID, second.PlanID)
	assert.Equal(t, 3, second.TaskCount)

	plans, err := s.PlanRepo().All(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "9-polynomials", plans[0].TopicID)

	_, err = s.PlanRepo().Task(ctx, oldTasks[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.ProgressRepo().Get(ctx, oldTasks[0].ID, "session-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenerate_RemoteFirst(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(llm.MockResponse{Content: remotePlanJSON(3, 1, 2, 6)})
	svc := newTestService(s.PlanRepo(), WithRemote(NewRemoteGenerator(mock, time.Second)))

	res, err := svc.Generate(context.Background(), quadraticsRequest(6))
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)
	assert.Equal(t, 4, res.TaskCount)

	_, tasks, err := svc.Plan(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, 6, tasks[3].DayNumber)
	assert.Equal(t, store.DateOf(testNow).AddDays(5), tasks[3].ScheduledDate)
	for _, tk := range tasks {
		assert.Equal(t, TaskTheory, tk.TaskType, "no local tasks mixed in")
	}
}

func TestGenerate_RemoteFailureIsNotRetried(t *testing.T) {
	s := openStore(t)
	outage := llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("upstream 502")}}
	mock := llm.NewMockProvider(outage, outage, outage)
	provider := llm.WithRetry(mock, llm.DefaultConfig().Retry)
	svc := newTestService(s.PlanRepo(), WithRemote(NewRemoteGenerator(provider, time.Second)))

	res, err := svc.Generate(context.Background(), quadraticsRequest(6))
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_RemoteTimeoutFallsBack(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(llm.MockResponse{Content: remotePlanJSON(1), Delay: time.Second})
	svc := newTestService(s.PlanRepo(), WithRemote(NewRemoteGenerator(mock, 20*time.Millisecond)))

	res, err := svc.Generate(context.Background(), quadraticsRequest(6))
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, 5, res.TaskCount)

	_, tasks, err := svc.Plan(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, tasks, 5)
	seen := map[int]bool{}
	for _, tk := range tasks {
		assert.False(t, seen[tk.DayNumber], "duplicate day %d", tk.DayNumber)
		seen[tk.DayNumber] = true
		assert.NotEqual(t, TaskTheory, tk.TaskType)
	}
}

func TestGenerate_PlanInsertRetries(t *testing.T) {
	s := openStore(t)
	repo := &flakyRepo{Repository: s.PlanRepo(), insertFails: 2}
	svc := newTestService(repo)

	res, err := svc.Generate(context.Background(), quadraticsRequest(6))
	require.NoError(t, err)
	assert.Equal(t, 3, repo.inserts)
	assert.Equal(t, 5, res.TaskCount)
}

func TestGenerate_PlanInsertExhausted(t *testing.T) {
	s := openStore(t)
	repo := &flakyRepo{Repository: s.PlanRepo(), insertFails: -1}
	svc := newTestService(repo)

	_, err := svc.Generate(context.Background(), quadraticsRequest(6))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.ErrorIs(t, err, errInjected)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 0, repo.taskInserts)
}

func TestGenerate_TaskInsertExhaustedCompensates(t *testing.T) {
	s := openStore(t)
	repo := &flakyRepo{Repository: s.PlanRepo(), taskFails: -1}
	svc := newTestService(repo)

	_, err := svc.Generate(context.Background(), quadraticsRequest(6))
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.Equal(t, 3, repo.taskInserts)
	require.Len(t, repo.deletedPlanIDs, 1)

	plans, err := s.PlanRepo().All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plans, "no orphaned plan")
}

func TestGenerate_VerificationFailed(t *testing.T) {
	s := openStore(t)
	repo := &flakyRepo{Repository: s.PlanRepo(), hidePlans: true}
	svc := newTestService(repo)

	_, err := svc.Generate(context.Background(), quadraticsRequest(6))
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.NotErrorIs(t, err, ErrInsertFailed)
}

func TestGenerate_ConcurrentReplaceLeavesOnePlan(t *testing.T) {
	s := openStore(t)
	svc := newTestService(s.PlanRepo())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := quadraticsRequest(6)
			req.Replace = true
			_, err := svc.Generate(context.Background(), req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	plans, err := s.PlanRepo().All(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	tasks, err := s.PlanRepo().Tasks(context.Background(), plans[0].ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 5)
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	svc := newTestService(s.PlanRepo())
	ctx := context.Background()

	_, err := svc.Generate(ctx, quadraticsRequest(6))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "session-1"))

	_, _, err = svc.Plan(ctx, "session-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidDate, KindOf(newError(KindInvalidDate, nil)))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
