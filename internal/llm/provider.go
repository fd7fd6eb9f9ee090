package llm

import (
	"context"
	"encoding/json"
)

// Provider is a chat model behind one vendor SDK. Tutoring features build
// a Request and get back either text or schema validated JSON.
type Provider interface {
	// Generate sends req and waits for the whole answer. When req.Schema
	// is set the provider uses its native structured output and Content
	// holds JSON that has been validated against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes one call.
type Request struct {
	System string

	// Messages is the conversation so far, oldest first. Follow-up
	// questions about a step carry the earlier turns.
	Messages []Message

	// Schema, when set, asks for JSON matching it. Streaming ignores it.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the vendor default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r can be sent to a provider.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Schema is a named JSON Schema. Name is kebab-case, e.g. "graph-data",
// and doubles as the tool or schema name vendors ask for.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is validated JSON for schema requests and raw text
	// otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
