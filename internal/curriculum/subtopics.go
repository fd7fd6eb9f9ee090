package curriculum

import (
	"slices"
	"strings"
)

// keywordCurricula are matched in order against the lowercased topic name.
var keywordCurricula = []struct {
	keywords  []string
	subtopics []string
}{
	{[]string{"quadratic"}, []string{
		"Quadratic Equations Basics",
		"Factoring Quadratics",
		"Quadratic Formula",
		"Graphing Parabolas",
		"Word Problems with Quadratics",
		"Advanced Applications",
	}},
	{[]string{"polynomial"}, []string{
		"Polynomial Basics",
		"Adding and Subtracting Polynomials",
		"Multiplying Polynomials",
		"Factoring Polynomials",
		"Polynomial Division",
		"Advanced Polynomial Problems",
	}},
	{[]string{"pythagorean"}, []string{
		"Pythagorean Theorem Basics",
		"Finding Missing Sides",
		"Pythagorean Triples",
		"Word Problems",
		"Distance Formula",
	}},
	{[]string{"trigonometry", "trig"}, []string{
		"Basic Trigonometric Ratios",
		"Sine, Cosine, and Tangent",
		"Special Angles",
		"Solving Right Triangles",
		"Trigonometric Applications",
		"Advanced Trigonometry",
	}},
	{[]string{"function"}, []string{
		"Understanding Functions",
		"Function Notation",
		"Linear Functions",
		"Function Transformations",
		"Composite Functions",
	}},
}

// Subtopics returns the ordered subtopic titles for a topic: the explicit
// catalog list when present, else the curriculum matched from its name.
func Subtopics(t Topic) []string {
	if len(t.Subtopics) > 0 {
		return slices.Clone(t.Subtopics)
	}
	return SubtopicsForName(t.Name)
}

// SubtopicsForName derives subtopics from a topic name alone.
func SubtopicsForName(name string) []string {
	lower := strings.ToLower(name)
	for _, kc := range keywordCurricula {
		for _, kw := range kc.keywords {
			if strings.Contains(lower, kw) {
				return slices.Clone(kc.subtopics)
			}
		}
	}
	return []string{
		name + " Fundamentals",
		name + " Problem Solving",
		name + " Applications",
		"Advanced " + name,
		name + " Review",
	}
}
