package curriculum

import (
	"fmt"
	"strings"
)

// validateGrades performs all structural checks on the catalog.
// Returns a combined error describing all problems found, or nil if valid.
func validateGrades(grades []Grade) error {
	var errs []string

	if len(grades) == 0 {
		errs = append(errs, "catalog has no grades")
	}

	gradeIDs := make(map[string]bool, len(grades))
	topicIDs := make(map[string]bool)
	for _, g := range grades {
		if g.ID == "" {
			errs = append(errs, fmt.Sprintf("grade %q has no id", g.Name))
		}
		if gradeIDs[g.ID] {
			errs = append(errs, fmt.Sprintf("duplicate grade ID: %q", g.ID))
		}
		gradeIDs[g.ID] = true

		for _, t := range g.Topics {
			prefix := fmt.Sprintf("topic %q", t.ID)
			if t.ID == "" || t.Name == "" {
				errs = append(errs, fmt.Sprintf("grade %q: topic needs both id and name", g.ID))
			}
			if topicIDs[t.ID] {
				errs = append(errs, fmt.Sprintf("duplicate topic ID: %q", t.ID))
			}
			topicIDs[t.ID] = true

			for i, q := range t.Quiz {
				if len(q.Options) < 2 {
					errs = append(errs, fmt.Sprintf("%s question %d: needs at least 2 options", prefix, i))
				}
				if q.Answer < 0 || q.Answer >= len(q.Options) {
					errs = append(errs, fmt.Sprintf("%s question %d: answer index %d out of range", prefix, i, q.Answer))
				}
			}
			for _, p := range t.Exercises {
				if p.Answer == "" {
					errs = append(errs, fmt.Sprintf("%s exercise %q: empty answer", prefix, p.ID))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
