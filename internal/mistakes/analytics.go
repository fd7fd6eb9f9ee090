package mistakes

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
)

const day = 24 * time.Hour

// stepKeywords are the operations searched for in flagged steps.
var stepKeywords = []string{"factor", "distribute", "simplify", "sign", "multiply", "divide", "exponent", "combine"}

// LastNDays returns records at or after now minus n days.
func LastNDays(records []Record, n int, now time.Time) []Record {
	cutoff := now.AddDate(0, 0, -n)
	var out []Record
	for _, r := range records {
		if !r.OccurredAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Improvement compares the last 7 days with the 7 before them.
type Improvement struct {
	ThisWeek int `json:"this_week"`
	LastWeek int `json:"last_week"`
	// PercentChange is positive when mistakes went down. It is 0 when
	// there were no mistakes last week.
	PercentChange float64 `json:"percent_change"`
}

// ImprovementRate computes week-over-week improvement.
func ImprovementRate(records []Record, now time.Time) Improvement {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var imp Improvement
	for _, r := range records {
		switch {
		case !r.OccurredAt.Before(weekAgo):
			imp.ThisWeek++
		case !r.OccurredAt.Before(twoWeeksAgo):
			imp.LastWeek++
		}
	}
	if imp.LastWeek > 0 {
		imp.PercentChange = -float64(imp.ThisWeek-imp.LastWeek) / float64(imp.LastWeek) * 100
	}
	return imp
}

// DaysSinceLast returns whole days since the newest record, or 0 for an
// empty log.
func DaysSinceLast(records []Record, now time.Time) int {
	if len(records) == 0 {
		return 0
	}
	latest := records[0].OccurredAt
	for _, r := range records[1:] {
		if r.OccurredAt.After(latest) {
			latest = r.OccurredAt
		}
	}
	diff := now.Sub(latest)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Floor(float64(diff) / float64(day)))
}

// KeywordCount is one keyword tally.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Patterns summarises flagged exercise steps.
type Patterns struct {
	Keywords []KeywordCount `json:"keywords"`
	// MostProblematicStep is the step position flagged most often, nil
	// when no exercise mistakes carry step details.
	MostProblematicStep *int        `json:"most_problematic_step"`
	StepCounts          map[int]int `json:"step_counts"`
}

// ExercisePatterns mines exercise records for recurring keywords and the
// most often flagged step position. Only the top 3 keywords are returned.
func ExercisePatterns(records []Record) Patterns {
	p := Patterns{StepCounts: map[int]int{}}
	counts := map[string]int{}
	var firstSeen []string

	for _, r := range records {
		if r.Kind != KindExercise {
			continue
		}
		for idx, d := range r.Detail.StepDetails {
			pos := idx
			if idx < len(r.Detail.IncorrectSteps) {
				pos = r.Detail.IncorrectSteps[idx]
			}
			p.StepCounts[pos]++

			text := strings.ToLower(d.Step + " " + d.Explanation)
			for _, kw := range stepKeywords {
				if strings.Contains(text, kw) {
					if counts[kw] == 0 {
						firstSeen = append(firstSeen, kw)
					}
					counts[kw]++
				}
			}
		}
	}

	for _, kw := range firstSeen {
		p.Keywords = append(p.Keywords, KeywordCount{Keyword: kw, Count: counts[kw]})
	}
	slices.SortStableFunc(p.Keywords, func(a, b KeywordCount) int { return cmp.Compare(b.Count, a.Count) })
	if len(p.Keywords) > 3 {
		p.Keywords = p.Keywords[:3]
	}

	best, bestCount := 0, 0
	for pos, n := range p.StepCounts {
		if n > bestCount || (n == bestCount && pos < best) {
			best, bestCount = pos, n
		}
	}
	if bestCount > 0 {
		p.MostProblematicStep = &best
	}
	return p
}

// DayCount is one day's tally per kind.
type DayCount struct {
	Date     string `json:"date"`
	Quiz     int    `json:"quiz"`
	Exercise int    `json:"exercise"`
	Practice int    `json:"practice"`
}

// DailyCounts returns per-kind counts for each of the last n UTC days,
// oldest first, including days without mistakes.
func DailyCounts(records []Record, n int, now time.Time) []DayCount {
	if n <= 0 {
		return nil
	}
	out := make([]DayCount, n)
	index := make(map[string]int, n)
	today := now.UTC()
	for i := range n {
		d := today.AddDate(0, 0, -(n - 1 - i)).Format(time.DateOnly)
		out[i].Date = d
		index[d] = i
	}

	for _, r := range LastNDays(records, n, now) {
		i, ok := index[r.OccurredAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		switch r.Kind {
		case KindQuiz:
			out[i].Quiz++
		case KindExercise:
			out[i].Exercise++
		case KindPractice:
			out[i].Practice++
		}
	}
	return out
}

// TopicCount is the number of records for one topic.
type TopicCount struct {
	TopicID string `json:"topic_id"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
}

// ByTopic tallies records per topic id, most frequent first. The label is
// taken from the newest record of each topic.
func ByTopic(records []Record) []TopicCount {
	idx := map[string]int{}
	latest := map[string]time.Time{}
	var out []TopicCount
	for _, r := range records {
		i, ok := idx[r.TopicID]
		if !ok {
			i = len(out)
			idx[r.TopicID] = i
			out = append(out, TopicCount{TopicID: r.TopicID})
		}
		out[i].Count++
		if r.OccurredAt.After(latest[r.TopicID]) || out[i].Label == "" {
			out[i].Label = r.TopicLabel
			latest[r.TopicID] = r.OccurredAt
		}
	}
	slices.SortStableFunc(out, func(a, b TopicCount) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

// Summary bundles every statistic shown on the mistakes page.
type Summary struct {
	Total         int          `json:"total"`
	Recent        int          `json:"recent"`
	WindowDays    int          `json:"window_days"`
	ByKind        map[Kind]int `json:"by_kind"`
	Improvement   Improvement  `json:"improvement"`
	DaysSinceLast int          `json:"days_since_last"`
	Patterns      Patterns     `json:"patterns"`
	Daily         []DayCount   `json:"daily"`
	Topics        []TopicCount `json:"topics"`
	Hardest       *TopicCount  `json:"hardest_topic,omitempty"`
}

// Summarize computes the Summary over records with a trailing window of
// days for the recent and daily figures.
func Summarize(records []Record, days int, now time.Time) Summary {
	if days <= 0 {
		days = 7
	}
	recent := LastNDays(records, days, now)
	s := Summary{
		Total:         len(records),
		Recent:        len(recent),
		WindowDays:    days,
		ByKind:        map[Kind]int{},
		Improvement:   ImprovementRate(records, now),
		DaysSinceLast: DaysSinceLast(records, now),
		Patterns:      ExercisePatterns(records),
		Daily:         DailyCounts(records, days, now),
		Topics:        ByTopic(records),
	}
	for _, k := range Kinds() {
		s.ByKind[k] = 0
	}
	for _, r := range recent {
		s.ByKind[r.Kind]++
	}
	if len(s.Topics) > 0 {
		hardest := s.Topics[0]
		s.Hardest = &hardest
	}
	return s
}
