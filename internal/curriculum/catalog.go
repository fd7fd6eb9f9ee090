// Package curriculum holds the grade/topic catalog, the subtopic breakdown
// used by plan generation and the answer checking rules.
package curriculum

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Grade is a school grade with its topics in display order.
type Grade struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

// Topic is one plannable unit of the curriculum.
type Topic struct {
	ID        string         `yaml:"id" json:"id"`
	Name      string         `yaml:"name" json:"name"`
	Grade     string         `yaml:"-" json:"grade"`
	Subtopics []string       `yaml:"subtopics" json:"subtopics,omitempty"`
	Theory    string         `yaml:"theory" json:"theory,omitempty"`
	Quiz      []QuizQuestion `yaml:"quiz" json:"quiz,omitempty"`
	Exercises []Problem      `yaml:"exercises" json:"exercises,omitempty"`
}

// QuizQuestion is a multiple-choice question. Answer indexes Options.
type QuizQuestion struct {
	Question    string   `yaml:"question" json:"question"`
	Options     []string `yaml:"options" json:"options"`
	Answer      int      `yaml:"answer" json:"answer"`
	Explanation string   `yaml:"explanation" json:"explanation,omitempty"`
}

// Problem is a free-answer exercise with a worked solution.
type Problem struct {
	ID       string         `yaml:"id" json:"id"`
	Question string         `yaml:"question" json:"question"`
	Answer   string         `yaml:"answer" json:"answer"`
	Hint     string         `yaml:"hint" json:"hint,omitempty"`
	Solution []SolutionStep `yaml:"solution" json:"solution,omitempty"`
}

// SolutionStep is one line of a worked solution.
type SolutionStep struct {
	Step        string `yaml:"step" json:"step"`
	Explanation string `yaml:"explanation" json:"explanation"`
}

type catalog struct {
	grades  []Grade
	byID    map[string]*Topic
	byGrade map[string][]Topic
}

// c is the package-level catalog, loaded from the embedded YAML at init.
var c *catalog

func init() {
	cat, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("curriculum: %v", err))
	}
	c = cat
}

func parseCatalog(data []byte) (*catalog, error) {
	var doc struct {
		Grades []Grade `yaml:"grades"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validateGrades(doc.Grades); err != nil {
		return nil, err
	}

	cat := &catalog{
		grades:  doc.Grades,
		byID:    make(map[string]*Topic),
		byGrade: make(map[string][]Topic, len(doc.Grades)),
	}
	for gi := range cat.grades {
		gr := &cat.grades[gi]
		for ti := range gr.Topics {
			gr.Topics[ti].Grade = gr.ID
			cat.byID[gr.Topics[ti].ID] = &gr.Topics[ti]
		}
		cat.byGrade[gr.ID] = gr.Topics
	}
	return cat, nil
}

// Lookup returns the topic with the given id.
func Lookup(topicID string) (Topic, bool) {
	t, ok := c.byID[topicID]
	if !ok {
		return Topic{}, false
	}
	return *t, true
}

// Grades returns all grades in catalog order, without their topics.
func Grades() []Grade {
	out := make([]Grade, len(c.grades))
	for i, g := range c.grades {
		out[i] = Grade{ID: g.ID, Name: g.Name}
	}
	return out
}

// TopicsForGrade returns the topics of a grade, or nil for an unknown grade.
func TopicsForGrade(grade string) []Topic {
	return slices.Clone(c.byGrade[grade])
}

// AllTopics returns every topic across all grades.
func AllTopics() []Topic {
	var out []Topic
	for _, g := range c.grades {
		out = append(out, g.Topics...)
	}
	return out
}
