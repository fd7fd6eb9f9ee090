package tutor

import (
	"errors"

	"github.com/abhisek/mathtutor/internal/llm"
)

var (
	// ErrNoGraph means the context describes nothing that can be graphed.
	ErrNoGraph = errors.New("no graph data available")
	// ErrRateLimited means the session exceeded its tutoring call budget.
	ErrRateLimited = errors.New("too many tutoring requests, try again shortly")
	// ErrInvalidRequest reports missing request fields.
	ErrInvalidRequest = errors.New("invalid tutoring request")
)

// Graph types.
const (
	GraphParabola = "parabola"
	GraphNone     = "none"
)

// Turn is one earlier exchange in a step conversation.
type Turn struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

// AskRequest is a learner question about one solution step.
type AskRequest struct {
	SessionID       string `json:"-"`
	StepContent     string `json:"stepContent"`
	StepExplanation string `json:"stepExplanation"`
	StepExample     string `json:"stepExample"`
	Question        string `json:"userQuestion"`
	Topic           string `json:"topic"`
	Grade           string `json:"gradeLevel"`
	History         []Turn `json:"conversationHistory"`
}

// GraphRequest asks for the graph behind a lesson step.
type GraphRequest struct {
	SessionID   string `json:"-"`
	Context     string `json:"context"`
	Topic       string `json:"topic"`
	Grade       string `json:"gradeLevel"`
	StepContent string `json:"stepContent"`
	StepExample string `json:"stepExample"`
}

// GraphParams are the coefficients and derived values of a parabola.
type GraphParams struct {
	A            float64   `json:"a"`
	B            float64   `json:"b"`
	C            float64   `json:"c"`
	Discriminant float64   `json:"discriminant"`
	Roots        []float64 `json:"roots"`
	Label        string    `json:"label"`
}

// GraphData is what the graph endpoint returns.
type GraphData struct {
	Type       string      `json:"type"`
	Parameters GraphParams `json:"parameters"`
}

// QuizRequest asks for an AI-authored quiz.
type QuizRequest struct {
	SessionID string   `json:"-"`
	Topic     string   `json:"topic"`
	Grade     string   `json:"grade"`
	Subtopics []string `json:"subtopics,omitempty"`
	Count     int      `json:"count"`
}
