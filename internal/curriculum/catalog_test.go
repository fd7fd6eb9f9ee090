package curriculum

import (
	"slices"
	"strings"
	"testing"
)

func TestLookup_Exists(t *testing.T) {
	topic, ok := Lookup("9-quadratics")
	if !ok {
		t.Fatal("9-quadratics not found")
	}
	if topic.Name != "Quadratic Equations" {
		t.Errorf("got name %q, want %q", topic.Name, "Quadratic Equations")
	}
	if topic.Grade != "9" {
		t.Errorf("got grade %q, want 9", topic.Grade)
	}
	if len(topic.Quiz) != 6 {
		t.Errorf("got %d quiz questions, want 6", len(topic.Quiz))
	}
	if len(topic.Exercises) < 4 {
		t.Errorf("got %d exercises, want at least 4", len(topic.Exercises))
	}
}

func TestLookup_NotFound(t *testing.T) {
	if _, ok := Lookup("9-calculus"); ok {
		t.Fatal("expected unknown topic to be missing")
	}
}

func TestGrades(t *testing.T) {
	grades := Grades()
	var ids []string
	for _, g := range grades {
		ids = append(ids, g.ID)
		if g.Topics != nil {
			t.Errorf("grade %q: Grades() should not carry topics", g.ID)
		}
	}
	if !slices.Equal(ids, []string{"9", "10", "11"}) {
		t.Errorf("got grades %v", ids)
	}
}

func TestTopicsForGrade(t *testing.T) {
	tests := []struct {
		grade string
		want  []string
	}{
		{"9", []string{"9-polynomials", "9-quadratics"}},
		{"10", []string{"10-pythagorean", "10-trigonometry"}},
		{"12", nil},
	}
	for _, tt := range tests {
		var got []string
		for _, topic := range TopicsForGrade(tt.grade) {
			got = append(got, topic.ID)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("TopicsForGrade(%q) = %v, want %v", tt.grade, got, tt.want)
		}
	}
}

func TestTopicsForGrade_ReturnsCopy(t *testing.T) {
	topics := TopicsForGrade("9")
	topics[0].Name = "changed"
	if again := TopicsForGrade("9"); again[0].Name == "changed" {
		t.Error("mutating the returned slice changed the catalog")
	}
}

func TestAllTopics(t *testing.T) {
	if got := len(AllTopics()); got != 6 {
		t.Errorf("got %d topics, want 6", got)
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "grades: []", "no grades"},
		{"duplicate topic", `
grades:
  - id: "9"
    topics:
      - {id: a, name: A}
      - {id: a, name: B}
`, "duplicate topic ID"},
		{"answer out of range", `
grades:
  - id: "9"
    topics:
      - id: a
        name: A
        quiz:
          - {question: q, options: ["x", "y"], answer: 5}
`, "out of range"},
		{"malformed", "grades: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalog([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
