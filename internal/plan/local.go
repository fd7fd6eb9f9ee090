package plan

import (
	"context"
	"fmt"
)

// minSubtopicDays is the floor on subtopic days, even for very short plans.
const minSubtopicDays = 3

// LocalGenerator spreads the topic's subtopics over the days before the
// test, one per day, and pins a final review to the day before the test.
type LocalGenerator struct{}

// Generate implements Generator. It never fails for valid input.
func (LocalGenerator) Generate(_ context.Context, in Input) ([]Draft, error) {
	return BuildLocal(in), nil
}

// UsableDays returns how many subtopic days a plan gets.
func UsableDays(subtopics, daysUntilTest int) int {
	return min(subtopics, max(minSubtopicDays, daysUntilTest-1))
}

// BuildLocal is the deterministic plan layout.
func BuildLocal(in Input) []Draft {
	usable := UsableDays(len(in.Subtopics), in.DaysUntilTest)

	drafts := make([]Draft, 0, usable+1)
	for i, sub := range in.Subtopics[:usable] {
		drafts = append(drafts, Draft{
			DayNumber:     i + 1,
			ScheduledDate: in.Today.AddDays(i),
			Title:         sub,
			Description: fmt.Sprintf("Complete theory, practice problems, and quiz on %s. "+
				"Start with understanding the concepts, then practice with examples, and test your knowledge.", sub),
			TaskType: TaskPractice,
		})
	}

	if in.DaysUntilTest > usable {
		drafts = append(drafts, Draft{
			DayNumber:     in.DaysUntilTest,
			ScheduledDate: in.TestDate.AddDays(-1),
			Title:         in.TopicName + " – Final Review",
			Description: fmt.Sprintf("Comprehensive review of all %s concepts. "+
				"Review notes, practice mixed problems, and prepare for your test.", in.TopicName),
			TaskType: TaskReview,
		})
	}
	return drafts
}
