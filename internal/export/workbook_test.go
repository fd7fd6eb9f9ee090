package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/store"
)

func TestWorkbook(t *testing.T) {
	plan := &store.Plan{
		ID: "p1", Grade: "9", TopicID: "9-quadratics", TopicName: "Quadratic Equations",
		TestDate: store.NewDate(2026, time.March, 15), Source: "local",
		CreatedAt: store.NewTime(time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)),
	}
	tasks := []store.Task{
		{ID: "t1", DayNumber: 1, ScheduledDate: store.NewDate(2026, time.March, 10), Title: "Standard Form", TaskType: "theory", IsCompleted: true},
		{ID: "t2", DayNumber: 2, ScheduledDate: store.NewDate(2026, time.March, 11), Title: "Factoring", TaskType: "theory"},
	}
	prog := map[string]store.Progress{
		"t1": {TaskID: "t1", QuizPassed: true, ExercisesCompleted: 4},
		"t2": {TaskID: "t2", QuizPassed: true, ExercisesCompleted: 1},
	}
	records := []mistakes.Record{
		{Kind: mistakes.KindQuiz, Problem: "Solve x² = 9", TopicLabel: "Quadratic Equations",
			Detail: mistakes.Detail{ChosenAnswer: "3", CorrectAnswer: "±3"}, OccurredAt: time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)},
		{Kind: mistakes.KindExercise, Problem: "Factor x² + 5x + 6", TopicLabel: "Quadratic Equations",
			Detail: mistakes.Detail{IncorrectSteps: []int{0, 2}}, OccurredAt: time.Date(2026, time.March, 11, 9, 30, 0, 0, time.UTC)},
		{Kind: mistakes.KindPractice, Problem: "x² - 4 = 0", TopicLabel: "Quadratic Equations",
			Detail: mistakes.Detail{Attempts: 3}, OccurredAt: time.Date(2026, time.March, 11, 10, 0, 0, 0, time.UTC)},
	}

	f, err := Workbook(plan, tasks, prog, records)
	require.NoError(t, err)

	// round trip through bytes like the download does
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	f, err = excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPlan, SheetTasks, SheetMistakes}, f.GetSheetList())

	planRows, err := f.GetRows(SheetPlan)
	require.NoError(t, err)
	assert.Equal(t, []string{"Topic", "Quadratic Equations"}, planRows[1])
	assert.Equal(t, []string{"Test date", "2026-03-15"}, planRows[4])
	assert.Equal(t, []string{"Tasks completed", "1 of 2 (50%)"}, planRows[7])

	taskRows, err := f.GetRows(SheetTasks)
	require.NoError(t, err)
	require.Len(t, taskRows, 3)
	assert.Equal(t, []string{"Day", "Date", "Title", "Type", "Completed", "Quiz passed", "Exercises"}, taskRows[0])
	assert.Equal(t, []string{"1", "2026-03-10", "Standard Form", "theory", "yes", "yes", "4"}, taskRows[1])
	assert.Equal(t, []string{"2", "2026-03-11", "Factoring", "theory", "no", "yes", "1"}, taskRows[2])

	mistakeRows, err := f.GetRows(SheetMistakes)
	require.NoError(t, err)
	require.Len(t, mistakeRows, 4)
	assert.Equal(t, "±3", mistakeRows[1][5])
	assert.Equal(t, "1, 3", mistakeRows[2][6], "steps are shown 1-based")
	assert.Equal(t, "3", mistakeRows[3][7])
}

func TestWorkbookWithoutPlan(t *testing.T) {
	f, err := Workbook(nil, nil, nil, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPlan)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	rows, err = f.GetRows(SheetMistakes)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
