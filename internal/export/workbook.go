// Package export builds the spreadsheet a learner can download with their
// plan, progress and mistakes.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/store"
)

// Sheet names.
const (
	SheetPlan     = "Plan"
	SheetTasks    = "Tasks"
	SheetMistakes = "Mistakes"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	taskHeader    = []any{"Day", "Date", "Title", "Type", "Completed", "Quiz passed", "Exercises"}
	mistakeHeader = []any{"Date", "Kind", "Topic", "Problem", "Your answer", "Correct answer", "Flagged steps", "Attempts"}
)

// Workbook builds a workbook with Plan, Tasks and Mistakes sheets. plan may
// be nil when the session has no plan; the Plan and Tasks sheets are then
// left with headers only.
func Workbook(plan *store.Plan, tasks []store.Task, prog map[string]store.Progress, records []mistakes.Record) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	// The default sheet becomes Plan and stays active.
	f.SetSheetName("Sheet1", SheetPlan)
	for _, name := range []string{SheetTasks, SheetMistakes} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet: %w", err)
		}
	}

	w := &sheetWriter{f: f, bold: bold}
	w.plan(plan, tasks)
	w.tasks(tasks, prog)
	w.mistakes(records)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// sheetWriter keeps the first error so the row code stays linear.
type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) row(sheet string, r int, values []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, r, err)
	}
}

func (w *sheetWriter) header(sheet string, values []any, widths ...float64) {
	w.row(sheet, 1, values)
	if w.err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(values), 1)
	if err := w.f.SetCellStyle(sheet, "A1", last, w.bold); err != nil {
		w.err = err
		return
	}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.f.SetColWidth(sheet, col, col, width); err != nil {
			w.err = err
			return
		}
	}
}

func (w *sheetWriter) plan(plan *store.Plan, tasks []store.Task) {
	w.header(SheetPlan, []any{"Field", "Value"}, 18, 40)
	if plan == nil {
		return
	}
	done, total, pct := progress.Completion(tasks)
	rows := [][]any{
		{"Topic", plan.TopicName},
		{"Topic id", plan.TopicID},
		{"Grade", plan.Grade},
		{"Test date", plan.TestDate.String()},
		{"Source", plan.Source},
		{"Created", plan.CreatedAt.Format("2006-01-02 15:04")},
		{"Tasks completed", fmt.Sprintf("%d of %d (%.0f%%)", done, total, pct)},
	}
	for i, r := range rows {
		w.row(SheetPlan, i+2, r)
	}
}

func (w *sheetWriter) tasks(tasks []store.Task, prog map[string]store.Progress) {
	w.header(SheetTasks, taskHeader, 6, 12, 40, 10, 11, 12, 10)
	for i, t := range tasks {
		p := prog[t.ID]
		w.row(SheetTasks, i+2, []any{
			t.DayNumber,
			t.ScheduledDate.String(),
			t.Title,
			t.TaskType,
			yesNo(t.IsCompleted),
			yesNo(p.QuizPassed),
			p.ExercisesCompleted,
		})
	}
}

func (w *sheetWriter) mistakes(records []mistakes.Record) {
	w.header(SheetMistakes, mistakeHeader, 17, 10, 22, 40, 16, 16, 14, 9)
	for i, r := range records {
		var flagged string
		if len(r.Detail.IncorrectSteps) > 0 {
			steps := make([]string, len(r.Detail.IncorrectSteps))
			for j, s := range r.Detail.IncorrectSteps {
				steps[j] = fmt.Sprint(s + 1)
			}
			flagged = strings.Join(steps, ", ")
		}
		var attempts any
		if r.Detail.Attempts > 0 {
			attempts = r.Detail.Attempts
		}
		w.row(SheetMistakes, i+2, []any{
			r.OccurredAt.UTC().Format("2006-01-02 15:04"),
			string(r.Kind),
			r.TopicLabel,
			r.Problem,
			r.Detail.ChosenAnswer,
			r.Detail.CorrectAnswer,
			flagged,
			attempts,
		})
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
