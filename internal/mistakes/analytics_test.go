package mistakes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)

func at(daysAgo float64) time.Time {
	return now.Add(-time.Duration(daysAgo * float64(24*time.Hour)))
}

func rec(kind Kind, topic string, daysAgo float64) Record {
	return Record{Kind: kind, Problem: "p", TopicID: topic, TopicLabel: topic, OccurredAt: at(daysAgo)}
}

func TestLastNDays(t *testing.T) {
	records := []Record{rec(KindQuiz, "a", 0.5), rec(KindQuiz, "a", 3), rec(KindQuiz, "a", 7), rec(KindQuiz, "a", 7.1)}
	assert.Len(t, LastNDays(records, 7, now), 3, "the cutoff is inclusive")
	assert.Len(t, LastNDays(records, 1, now), 1)
	assert.Empty(t, LastNDays(nil, 7, now))
}

func TestImprovementRate(t *testing.T) {
	tests := []struct {
		name      string
		records   []Record
		this      int
		last      int
		wantDelta float64
	}{
		{
			name:    "no prior week is zero",
			records: []Record{rec(KindQuiz, "a", 1), rec(KindQuiz, "a", 2), rec(KindQuiz, "a", 3)},
			this:    3, last: 0, wantDelta: 0,
		},
		{
			name:    "fewer mistakes is positive",
			records: []Record{rec(KindQuiz, "a", 1), rec(KindQuiz, "a", 8), rec(KindQuiz, "a", 9), rec(KindQuiz, "a", 10), rec(KindQuiz, "a", 11)},
			this:    1, last: 4, wantDelta: 75,
		},
		{
			name:    "more mistakes is negative",
			records: []Record{rec(KindQuiz, "a", 1), rec(KindQuiz, "a", 2), rec(KindQuiz, "a", 8)},
			this:    2, last: 1, wantDelta: -100,
		},
		{
			name:    "older than two weeks ignored",
			records: []Record{rec(KindQuiz, "a", 20)},
			this:    0, last: 0, wantDelta: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := ImprovementRate(tt.records, now)
			assert.Equal(t, tt.this, imp.ThisWeek)
			assert.Equal(t, tt.last, imp.LastWeek)
			assert.InDelta(t, tt.wantDelta, imp.PercentChange, 0.0001)
		})
	}
}

func TestDaysSinceLast(t *testing.T) {
	assert.Equal(t, 0, DaysSinceLast(nil, now))
	assert.Equal(t, 2, DaysSinceLast([]Record{rec(KindQuiz, "a", 5), rec(KindQuiz, "a", 2.9)}, now))
	assert.Equal(t, 0, DaysSinceLast([]Record{rec(KindQuiz, "a", 0.2)}, now))
}

func exerciseRec(steps []int, details ...StepDetail) Record {
	r := rec(KindExercise, "9-quadratics", 1)
	r.Detail = Detail{IncorrectSteps: steps, StepDetails: details}
	return r
}

func TestExercisePatterns(t *testing.T) {
	records := []Record{
		exerciseRec([]int{0, 2},
			StepDetail{"(x + 3)(x + 4) = 0", "Factor the trinomial."},
			StepDetail{"x = -3", "Keep the sign when you Simplify."},
		),
		exerciseRec([]int{2},
			StepDetail{"2x² + 4x", "Distribute and simplify, watch the sign"},
		),
		exerciseRec(nil,
			StepDetail{"3x = 12", "Divide both sides"},
		),
		rec(KindQuiz, "9-quadratics", 1), // ignored
	}

	p := ExercisePatterns(records)
	require.Len(t, p.Keywords, 3)
	assert.Equal(t, KeywordCount{"simplify", 2}, p.Keywords[0])
	assert.Equal(t, KeywordCount{"sign", 2}, p.Keywords[1])
	assert.Equal(t, KeywordCount{"factor", 1}, p.Keywords[2], "ties keep first-seen order")

	require.NotNil(t, p.MostProblematicStep)
	assert.Equal(t, 0, *p.MostProblematicStep, "ties go to the lowest position")
	assert.Equal(t, map[int]int{0: 2, 2: 2}, p.StepCounts)
}

func TestExercisePatterns_StepFallsBackToIndex(t *testing.T) {
	p := ExercisePatterns([]Record{exerciseRec(nil, StepDetail{"a", "b"}, StepDetail{"c", "d"}, StepDetail{"e", "f"})})
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, p.StepCounts)
	require.NotNil(t, p.MostProblematicStep)
	assert.Equal(t, 0, *p.MostProblematicStep)
	assert.Empty(t, p.Keywords)
}

func TestExercisePatterns_Empty(t *testing.T) {
	p := ExercisePatterns(nil)
	assert.Nil(t, p.MostProblematicStep)
	assert.Empty(t, p.Keywords)
}

func TestDailyCounts(t *testing.T) {
	records := []Record{
		rec(KindQuiz, "a", 0),
		rec(KindExercise, "a", 0.1),
		rec(KindPractice, "a", 1),
		rec(KindPractice, "a", 1),
		rec(KindQuiz, "a", 10),
	}
	days := DailyCounts(records, 3, now)
	require.Len(t, days, 3)
	assert.Equal(t, DayCount{Date: "2026-03-18"}, days[0])
	assert.Equal(t, DayCount{Date: "2026-03-19", Practice: 2}, days[1])
	assert.Equal(t, DayCount{Date: "2026-03-20", Quiz: 1, Exercise: 1}, days[2])

	assert.Nil(t, DailyCounts(records, 0, now))
}

func TestByTopicUsesStableIDs(t *testing.T) {
	old := rec(KindQuiz, "9-quadratics", 5)
	old.TopicLabel = "Quadratics"
	renamed := rec(KindQuiz, "9-quadratics", 1)
	renamed.TopicLabel = "Quadratic Equations"
	other := rec(KindQuiz, "9-polynomials", 2)

	topics := ByTopic([]Record{old, other, renamed})
	require.Len(t, topics, 2)
	assert.Equal(t, TopicCount{TopicID: "9-quadratics", Label: "Quadratic Equations", Count: 2}, topics[0])
	assert.Equal(t, "9-polynomials", topics[1].TopicID)
}

func TestSummarize(t *testing.T) {
	records := []Record{
		rec(KindQuiz, "a", 1),
		rec(KindPractice, "b", 2),
		rec(KindPractice, "b", 9),
	}
	s := Summarize(records, 7, now)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Recent)
	assert.Equal(t, 1, s.ByKind[KindQuiz])
	assert.Equal(t, 1, s.ByKind[KindPractice])
	assert.Equal(t, 0, s.ByKind[KindExercise])
	assert.Equal(t, 1, s.DaysSinceLast)
	assert.Len(t, s.Daily, 7)
	require.NotNil(t, s.Hardest)
	assert.Equal(t, "b", s.Hardest.TopicID)

	empty := Summarize(nil, 0, now)
	assert.Equal(t, 7, empty.WindowDays)
	assert.Nil(t, empty.Hardest)
}
