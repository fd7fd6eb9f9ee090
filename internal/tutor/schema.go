package tutor

import "github.com/abhisek/mathtutor/internal/llm"

// GraphSchema is the structured output for graph parameter extraction.
var GraphSchema = &llm.Schema{
	Name:        "graph-data",
	Description: "Parameters needed to draw the graph of a quadratic, or type none",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []any{GraphParabola, GraphNone},
			},
			"parameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a":            map[string]any{"type": "number", "description": "Coefficient of x squared"},
					"b":            map[string]any{"type": "number", "description": "Coefficient of x"},
					"c":            map[string]any{"type": "number", "description": "Constant term"},
					"discriminant": map[string]any{"type": "number", "description": "b^2 - 4ac"},
					"roots": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "number"},
						"description": "Real x-intercepts, empty when there are none",
					},
					"label": map[string]any{
						"type":        "string",
						"description": "The equation, like '3x² + 7x - 2 = 0'",
					},
				},
				"required":             []any{"a", "b", "c", "discriminant", "roots", "label"},
				"additionalProperties": false,
			},
		},
		"required":             []any{"type", "parameters"},
		"additionalProperties": false,
	},
}

// QuizSchema is the structured output for AI-authored quizzes.
var QuizSchema = &llm.Schema{
	Name:        "topic-quiz",
	Description: "Multiple-choice questions checking understanding of a topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":     "array",
							"items":    map[string]any{"type": "string"},
							"minItems": 2,
						},
						"answer": map[string]any{
							"type":        "integer",
							"description": "Zero-based index of the correct option",
						},
						"explanation": map[string]any{"type": "string"},
					},
					"required":             []any{"question", "options", "answer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
