package progress

import "github.com/abhisek/mathtutor/internal/store"

// Buckets splits a plan's tasks around today.
type Buckets struct {
	Today    []store.Task `json:"today"`
	Past     Past         `json:"past"`
	Upcoming []store.Task `json:"upcoming"`
}

// Past holds tasks dated before today, plus today's finished ones.
type Past struct {
	Done   []store.Task `json:"done"`
	Missed []store.Task `json:"missed"`
}

// Partition buckets tasks by scheduled date. Order within each bucket
// follows the input.
func Partition(tasks []store.Task, today store.Date) Buckets {
	var b Buckets
	for _, t := range tasks {
		switch {
		case t.ScheduledDate.After(today):
			b.Upcoming = append(b.Upcoming, t)
		case t.ScheduledDate.Equal(today) && !t.IsCompleted:
			b.Today = append(b.Today, t)
		case t.IsCompleted:
			b.Past.Done = append(b.Past.Done, t)
		default:
			b.Past.Missed = append(b.Past.Missed, t)
		}
	}
	return b
}

// Next returns the incomplete task with the lowest day number.
func Next(tasks []store.Task) (store.Task, bool) {
	var next store.Task
	found := false
	for _, t := range tasks {
		if t.IsCompleted {
			continue
		}
		if !found || t.DayNumber < next.DayNumber {
			next, found = t, true
		}
	}
	return next, found
}

// Completion returns completed and total task counts with the percentage.
func Completion(tasks []store.Task) (done, total int, pct float64) {
	total = len(tasks)
	for _, t := range tasks {
		if t.IsCompleted {
			done++
		}
	}
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	return done, total, pct
}
