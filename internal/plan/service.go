package plan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/retry"
	"github.com/abhisek/mathtutor/internal/store"
)

// Service generates, reads and deletes plans.
type Service struct {
	repo   Repository
	local  Generator
	remote Generator
	now    Clock
	policy retry.Policy
	log    *logger.Logger
	tracer trace.Tracer
	locks  *sessionLocks
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithRemote enables AI authoring with local fallback.
func WithRemote(g Generator) Option { return func(s *Service) { s.remote = g } }

// WithClock overrides time.Now.
func WithClock(c Clock) Option { return func(s *Service) { s.now = c } }

// WithRetry overrides the persistence retry policy.
func WithRetry(p retry.Policy) Option { return func(s *Service) { s.policy = p } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithIDs overrides uuid generation.
func WithIDs(f func() string) Option { return func(s *Service) { s.newID = f } }

// NewService returns a Service that persists through repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		local:  LocalGenerator{},
		now:    time.Now,
		policy: retry.DefaultPolicy(),
		log:    logger.Nop(),
		tracer: otel.Tracer("github.com/abhisek/mathtutor/internal/plan"),
		locks:  newSessionLocks(),
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generate validates req, authors the tasks and persists the plan.
func (s *Service) Generate(ctx context.Context, req Request) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "plan.Generate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.String("plan.source", string(res.Source)),
				attribute.Int("plan.task_count", res.TaskCount),
				attribute.Bool("plan.existing", res.Existing),
			)
		}
		span.End()
	}()

	in, err := s.prepare(req)
	if err != nil {
		return Result{}, err
	}
	log := s.log.With("session_id", req.SessionID, "topic_id", in.TopicID)

	release := s.locks.lock(req.SessionID)
	defer release()

	existing, err := s.repo.BySession(ctx, req.SessionID)
	switch {
	case err == nil:
		if !req.Replace {
			tasks, err := s.repo.Tasks(ctx, existing.ID)
			if err != nil {
				return Result{}, fmt.Errorf("load existing tasks: %w", err)
			}
			log.Info("plan already exists, keeping it", "plan_id", existing.ID)
			return Result{
				PlanID:    existing.ID,
				TaskCount: len(tasks),
				Source:    Source(existing.Source),
				Existing:  true,
			}, nil
		}
	case errors.Is(err, store.ErrNotFound):
		existing = nil
	default:
		return Result{}, fmt.Errorf("check existing plan: %w", err)
	}

	drafts, source := s.author(ctx, in, log)

	if existing != nil {
		if err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
			return s.repo.DeleteBySession(ctx, req.SessionID)
		}); err != nil {
			return Result{}, fmt.Errorf("delete previous plan: %w", err)
		}
	}

	p := &store.Plan{
		ID:        s.newID(),
		SessionID: req.SessionID,
		Grade:     in.Grade,
		TopicID:   in.TopicID,
		TopicName: in.TopicName,
		TestDate:  in.TestDate,
		Source:    string(source),
		CreatedAt: store.NewTime(s.now()),
	}
	if err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.repo.Insert(ctx, p)
	}); err != nil {
		return Result{}, insertFailed(err)
	}

	tasks := make([]store.Task, len(drafts))
	for i, d := range drafts {
		tasks[i] = store.Task{
			ID:            s.newID(),
			PlanID:        p.ID,
			DayNumber:     d.DayNumber,
			ScheduledDate: d.ScheduledDate,
			Title:         d.Title,
			Description:   d.Description,
			TaskType:      d.TaskType,
		}
	}
	if err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.repo.InsertTasks(ctx, tasks)
	}); err != nil {
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), p.ID); delErr != nil {
			log.Error("failed to remove plan after task insert failure", "plan_id", p.ID, "error", delErr)
		}
		return Result{}, insertFailed(err)
	}

	stored, err := s.repo.BySession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = nil
		}
		return Result{}, newError(KindVerificationFailed, err)
	}
	if stored.ID != p.ID {
		return Result{}, newError(KindVerificationFailed, fmt.Errorf("found plan %s, want %s", stored.ID, p.ID))
	}

	log.Info("plan created", "plan_id", p.ID, "tasks", len(tasks), "source", source)
	return Result{PlanID: p.ID, TaskCount: len(tasks), Source: source}, nil
}

// prepare checks the request and resolves everything generators need.
func (s *Service) prepare(req Request) (Input, error) {
	if strings.TrimSpace(req.Grade) == "" || strings.TrimSpace(req.TopicID) == "" ||
		req.TestDate.IsZero() || strings.TrimSpace(req.SessionID) == "" {
		return Input{}, newError(KindMissingFields, nil)
	}

	topic, ok := curriculum.Lookup(req.TopicID)
	if !ok {
		return Input{}, newError(KindUnknownTopic, fmt.Errorf("%q", req.TopicID))
	}
	name := strings.TrimSpace(req.TopicName)
	if name == "" {
		name = topic.Name
	}

	today := store.DateOf(s.now())
	days := today.DaysUntil(req.TestDate)
	if days < 1 {
		return Input{}, newError(KindInvalidDate, fmt.Errorf("test date %s is not after %s", req.TestDate, today))
	}

	return Input{
		Today:         today,
		DaysUntilTest: days,
		Grade:         req.Grade,
		TopicID:       topic.ID,
		TopicName:     name,
		TestDate:      req.TestDate,
		Subtopics:     curriculum.Subtopics(topic),
	}, nil
}

// author tries the remote generator and falls back to the local one. The
// two are never mixed.
func (s *Service) author(ctx context.Context, in Input, log *logger.Logger) ([]Draft, Source) {
	if s.remote != nil {
		drafts, err := s.remote.Generate(ctx, in)
		if err == nil {
			slices.SortFunc(drafts, func(a, b Draft) int { return a.DayNumber - b.DayNumber })
			return drafts, SourceRemote
		}
		log.Warn("remote plan generation failed, using local plan", "error", err)
		trace.SpanFromContext(ctx).AddEvent("remote_fallback",
			trace.WithAttributes(attribute.String("error", err.Error())))
	}

	drafts, _ := s.local.Generate(ctx, in)
	return drafts, SourceLocal
}

func insertFailed(err error) error {
	pe := newError(KindInsertFailed, err)
	var ex *retry.ExhaustedError
	if errors.As(err, &ex) {
		pe.Attempts = ex.Attempts
		pe.Err = ex.Err
	}
	return pe
}

// Plan returns the session's plan and its tasks. Reads are retried; a
// missing plan is returned as store.ErrNotFound without retrying.
func (s *Service) Plan(ctx context.Context, sessionID string) (*store.Plan, []store.Task, error) {
	p, err := retry.Value(ctx, s.policy, func(ctx context.Context) (*store.Plan, error) {
		p, err := s.repo.BySession(ctx, sessionID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, retry.Permanent(err)
		}
		return p, err
	})
	if err != nil {
		return nil, nil, err
	}

	tasks, err := s.repo.Tasks(ctx, p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load tasks: %w", err)
	}
	return p, tasks, nil
}

// Delete removes the session's plan with its tasks and progress.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	release := s.locks.lock(sessionID)
	defer release()
	return s.repo.DeleteBySession(ctx, sessionID)
}
