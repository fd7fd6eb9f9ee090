package tutor

import (
	"fmt"
	"strings"
)

const askSystemPrompt = `You are a patient math tutor helping a high school student understand one step of a worked solution. Answer the student's question about that step directly and briefly. Use plain text math such as x^2 or sqrt(x). Do not solve unrelated problems.`

func buildAskMessage(req AskRequest) string {
	var b strings.Builder

	if req.Grade != "" {
		b.WriteString(fmt.Sprintf("Grade: %s\n", req.Grade))
	}
	b.WriteString(fmt.Sprintf("Topic: %s\n", req.Topic))
	b.WriteString(fmt.Sprintf("\nStep: %s\n", req.StepContent))
	if req.StepExplanation != "" {
		b.WriteString(fmt.Sprintf("Explanation: %s\n", req.StepExplanation))
	}
	if req.StepExample != "" {
		b.WriteString(fmt.Sprintf("Example: %s\n", req.StepExample))
	}
	b.WriteString(fmt.Sprintf("\nStudent question: %s", req.Question))

	return b.String()
}

const graphSystemPrompt = `You are a mathematical graph data extractor.`

func buildGraphMessage(req GraphRequest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Based on the following context from a grade %s math lesson about %s, extract the parameters needed to draw a graph.\n\n", req.Grade, req.Topic))
	b.WriteString(fmt.Sprintf("Step: %s\n", req.StepContent))
	if req.StepExample != "" {
		b.WriteString(fmt.Sprintf("Example: %s\n", req.StepExample))
	}
	b.WriteString(fmt.Sprintf("Context: %s\n", req.Context))

	b.WriteString(`
If this involves a quadratic equation or parabola:
1. Extract coefficients a, b, c from the equation
2. Calculate or extract the discriminant
3. Calculate the roots (x-intercepts) if they exist
4. Provide a label describing the equation

If no graph can be generated, set type to "none" and fill parameters with zeros.`)

	return b.String()
}

const quizSystemPrompt = `You are an expert math educator writing short multiple-choice quizzes for high school students.`

func buildQuizMessage(req QuizRequest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", req.Topic))
	if req.Grade != "" {
		b.WriteString(fmt.Sprintf("Grade: %s\n", req.Grade))
	}
	if len(req.Subtopics) > 0 {
		b.WriteString("Cover these subtopics:\n")
		for _, s := range req.Subtopics {
			b.WriteString(fmt.Sprintf("- %s\n", s))
		}
	}

	b.WriteString(fmt.Sprintf(`
Write %d questions. Each question has exactly 4 options and exactly one correct option.
Give the zero-based index of the correct option as answer and a one-sentence explanation.
Use plain text math such as x^2.`, req.Count))

	return b.String()
}
