package llm

import "context"

type contextKey int

const (
	purposeKey contextKey = iota
	sessionKey
	singleShotKey
)

// Purposes label LLM events by the feature that made the call.
const (
	PurposeAskStep   = "ask-step"
	PurposeGraphData = "graph-data"
	PurposeQuiz      = "quiz"
	PurposePlan      = "plan-gen"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithSession tags LLM calls made under ctx with the learner's session.
func WithSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionFrom returns the session set by WithSession, or "".
func SessionFrom(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey).(string)
	return v
}

// WithSingleShot marks calls under ctx as one attempt only. RetryProvider
// passes the first failure straight back, for callers with their own
// fallback.
func WithSingleShot(ctx context.Context) context.Context {
	return context.WithValue(ctx, singleShotKey, true)
}

func singleShot(ctx context.Context) bool {
	v, _ := ctx.Value(singleShotKey).(bool)
	return v
}
