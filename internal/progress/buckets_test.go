package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/mathtutor/internal/store"
)

func planTasks(today store.Date) []store.Task {
	return []store.Task{
		{ID: "d1", DayNumber: 1, ScheduledDate: today.AddDays(-2), IsCompleted: true},
		{ID: "d2", DayNumber: 2, ScheduledDate: today.AddDays(-1)},
		{ID: "d3", DayNumber: 3, ScheduledDate: today},
		{ID: "d4", DayNumber: 4, ScheduledDate: today.AddDays(1)},
		{ID: "d6", DayNumber: 6, ScheduledDate: today.AddDays(3)},
	}
}

func ids(tasks []store.Task) []string {
	var out []string
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestPartition(t *testing.T) {
	today := store.NewDate(2026, time.March, 10)
	b := Partition(planTasks(today), today)

	assert.Equal(t, []string{"d3"}, ids(b.Today))
	assert.Equal(t, []string{"d1"}, ids(b.Past.Done))
	assert.Equal(t, []string{"d2"}, ids(b.Past.Missed))
	assert.Equal(t, []string{"d4", "d6"}, ids(b.Upcoming))
}

func TestPartition_CompletedToday(t *testing.T) {
	today := store.NewDate(2026, time.March, 10)
	tasks := []store.Task{{ID: "x", ScheduledDate: today, IsCompleted: true}}

	b := Partition(tasks, today)
	assert.Empty(t, b.Today)
	assert.Equal(t, []string{"x"}, ids(b.Past.Done))
}

func TestNext(t *testing.T) {
	today := store.NewDate(2026, time.March, 10)
	tasks := planTasks(today)

	next, ok := Next(tasks)
	assert.True(t, ok)
	assert.Equal(t, "d2", next.ID, "missed tasks come first")

	for i := range tasks {
		tasks[i].IsCompleted = true
	}
	_, ok = Next(tasks)
	assert.False(t, ok)
}

func TestNext_UnorderedInput(t *testing.T) {
	tasks := []store.Task{{ID: "b", DayNumber: 5}, {ID: "a", DayNumber: 2}, {ID: "c", DayNumber: 3}}
	next, ok := Next(tasks)
	assert.True(t, ok)
	assert.Equal(t, "a", next.ID)
}

func TestCompletion(t *testing.T) {
	today := store.NewDate(2026, time.March, 10)
	done, total, pct := Completion(planTasks(today))
	assert.Equal(t, 1, done)
	assert.Equal(t, 5, total)
	assert.InDelta(t, 20.0, pct, 0.001)

	_, _, pct = Completion(nil)
	assert.Zero(t, pct)
}
