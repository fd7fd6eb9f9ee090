package curriculum

import (
	"strings"
	"unicode"
)

// MaxQuizMistakes is the number of wrong answers a quiz tolerates and
// still counts as passed.
const MaxQuizMistakes = 2

// QuizResult is the outcome of grading one quiz attempt.
type QuizResult struct {
	Total  int   `json:"total"`
	Wrong  int   `json:"wrong"`
	Passed bool  `json:"passed"`
	Missed []int `json:"missed,omitempty"` // question indexes answered wrong
}

// GradeQuiz scores answers (option indexes, in question order) against the
// quiz. Missing answers count as wrong.
func GradeQuiz(quiz []QuizQuestion, answers []int) QuizResult {
	res := QuizResult{Total: len(quiz)}
	for i, q := range quiz {
		if i < len(answers) && answers[i] == q.Answer {
			continue
		}
		res.Wrong++
		res.Missed = append(res.Missed, i)
	}
	res.Passed = QuizPassed(res.Wrong)
	return res
}

// QuizPassed reports whether a quiz with the given number of wrong answers
// passes.
func QuizPassed(wrong int) bool {
	return wrong <= MaxQuizMistakes
}

// CheckAnswer compares a free-text answer with the expected one, ignoring
// case and all whitespace.
func CheckAnswer(p Problem, answer string) bool {
	got := NormalizeAnswer(answer)
	return got != "" && got == NormalizeAnswer(p.Answer)
}

// NormalizeAnswer lowercases s and removes every whitespace rune.
func NormalizeAnswer(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
