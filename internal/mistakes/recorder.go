package mistakes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/store"
)

// Recorder writes and reads the mistake log.
type Recorder struct {
	repo  store.MistakeRepo
	now   func() time.Time
	newID func() string
	log   *logger.Logger
}

// NewRecorder returns a Recorder. log may be nil.
func NewRecorder(repo store.MistakeRepo, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{repo: repo, now: time.Now, newID: uuid.NewString, log: log}
}

// WithClock returns a copy of r that stamps records with now.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	c := *r
	c.now = now
	return &c
}

// Add validates and stores rec, filling in its id and timestamp.
func (r *Recorder) Add(ctx context.Context, rec Record) (Record, error) {
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	rec.ID = r.newID()
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = r.now()
	}
	rec.OccurredAt = rec.OccurredAt.UTC()
	if rec.TopicLabel == "" {
		rec.TopicLabel = rec.TopicID
	}

	row, err := rec.toRow()
	if err != nil {
		return Record{}, err
	}
	if err := r.repo.Append(ctx, row); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Record stores rec and never fails the caller. Storage and validation
// errors are logged. It reports whether the record was stored.
func (r *Recorder) Record(ctx context.Context, rec Record) bool {
	if _, err := r.Add(ctx, rec); err != nil {
		r.log.Warn("failed to record mistake",
			"session_id", rec.SessionID,
			"kind", string(rec.Kind),
			"topic_id", rec.TopicID,
			"error", err,
		)
		return false
	}
	return true
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	TopicID string
	Days    int // only the trailing N days
}

// List returns a session's records, newest first.
func (r *Recorder) List(ctx context.Context, sessionID string, f Filter) ([]Record, error) {
	q := store.MistakeQuery{TopicID: f.TopicID}
	if f.Days > 0 {
		q.Since = r.now().AddDate(0, 0, -f.Days)
	}
	rows, err := r.repo.List(ctx, sessionID, q)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			r.log.Warn("skipping unreadable mistake", "id", row.ID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes one record. store.ErrNotFound is returned when the
// session has no record with that id.
func (r *Recorder) Delete(ctx context.Context, sessionID, id string) error {
	return r.repo.Delete(ctx, sessionID, id)
}

// Clear removes a session's records for one topic, or all when topicID is
// empty, and returns how many were removed.
func (r *Recorder) Clear(ctx context.Context, sessionID, topicID string) (int64, error) {
	return r.repo.Clear(ctx, sessionID, topicID)
}

// Now returns the recorder's clock reading, for analytics windows.
func (r *Recorder) Now() time.Time { return r.now() }
