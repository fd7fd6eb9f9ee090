// Package reminder sends a daily digest of each learner's tasks for today.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/store"
)

// fanOut bounds concurrent per-plan work in RunOnce.
const fanOut = 4

// Digest is one session's reminder.
type Digest struct {
	SessionID     string       `json:"session_id"`
	PlanID        string       `json:"plan_id"`
	TopicName     string       `json:"topic_name"`
	Date          store.Date   `json:"date"`
	DaysUntilTest int          `json:"days_until_test"`
	Today         []store.Task `json:"today"`
	Missed        int          `json:"missed"`
	Completed     int          `json:"completed"`
	Total         int          `json:"total"`
}

// Notifier delivers digests.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

// LogNotifier writes each digest as a structured log line.
type LogNotifier struct {
	Log *logger.Logger
}

func (n LogNotifier) Notify(_ context.Context, d Digest) error {
	titles := make([]string, len(d.Today))
	for i, t := range d.Today {
		titles[i] = t.Title
	}
	n.Log.Info("study reminder",
		"session_id", d.SessionID,
		"topic", d.TopicName,
		"date", d.Date.String(),
		"tasks", titles,
		"missed", d.Missed,
		"completed", d.Completed,
		"total", d.Total,
		"days_until_test", d.DaysUntilTest,
	)
	return nil
}

// Plans is the read side of the plan store used here.
type Plans interface {
	All(ctx context.Context) ([]store.Plan, error)
	Tasks(ctx context.Context, planID string) ([]store.Task, error)
}

// Scheduler runs RunOnce every day at a fixed UTC time.
type Scheduler struct {
	plans    Plans
	notifier Notifier
	at       string
	now      func() time.Time
	log      *logger.Logger
	cron     *gocron.Scheduler
}

// New returns a Scheduler firing daily at at (HH:MM, UTC). log may be nil.
func New(plans Plans, notifier Notifier, at string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		plans:    plans,
		notifier: notifier,
		at:       at,
		now:      time.Now,
		log:      log.With("component", "reminder"),
		cron:     gocron.NewScheduler(time.UTC),
	}
}

// WithClock replaces the clock used to decide what today is.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start schedules the daily job and returns immediately.
func (s *Scheduler) Start() error {
	s.cron.SingletonModeAll()
	_, err := s.cron.Every(1).Day().At(s.at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		sent, err := s.RunOnce(ctx)
		if err != nil {
			s.log.Error("reminder run failed", "error", err)
			return
		}
		s.log.Info("reminder run complete", "sent", sent)
	})
	if err != nil {
		return fmt.Errorf("schedule reminders at %q: %w", s.at, err)
	}
	s.cron.StartAsync()
	s.log.Info("reminders scheduled", "at", s.at)
	return nil
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce sends a digest to every session with unfinished tasks today and
// returns how many were sent. Notifier failures are logged and do not stop
// the run; a storage failure does.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	plans, err := s.plans.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list plans: %w", err)
	}
	today := store.DateOf(s.now())

	var (
		mu   sync.Mutex
		sent int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for _, p := range plans {
		g.Go(func() error {
			d, ok, err := s.digest(gctx, p, today)
			if err != nil || !ok {
				return err
			}
			if err := s.notifier.Notify(gctx, d); err != nil {
				s.log.Warn("reminder not delivered", "session_id", p.SessionID, "error", err)
				return nil
			}
			mu.Lock()
			sent++
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return sent, err
}

func (s *Scheduler) digest(ctx context.Context, p store.Plan, today store.Date) (Digest, bool, error) {
	tasks, err := s.plans.Tasks(ctx, p.ID)
	if err != nil {
		return Digest{}, false, fmt.Errorf("tasks of plan %s: %w", p.ID, err)
	}
	b := progress.Partition(tasks, today)
	if len(b.Today) == 0 {
		return Digest{}, false, nil
	}
	done, total, _ := progress.Completion(tasks)
	return Digest{
		SessionID:     p.SessionID,
		PlanID:        p.ID,
		TopicName:     p.TopicName,
		Date:          today,
		DaysUntilTest: today.DaysUntil(p.TestDate),
		Today:         b.Today,
		Missed:        len(b.Past.Missed),
		Completed:     done,
		Total:         total,
	}, true, nil
}
