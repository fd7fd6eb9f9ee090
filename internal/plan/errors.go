package plan

import (
	"errors"
	"fmt"
)

// Kind classifies plan generation failures.
type Kind string

const (
	KindMissingFields          Kind = "missing_fields"
	KindInvalidDate            Kind = "invalid_date"
	KindUnknownTopic           Kind = "unknown_topic"
	KindDuplicatePlan          Kind = "duplicate_plan"
	KindInsertFailed           Kind = "insert_failed"
	KindVerificationFailed     Kind = "verification_failed"
	KindRemoteGenerationFailed Kind = "remote_generation_failed"
)

// Error is a plan generation failure. Compare with errors.Is against the
// Err* sentinels, which match on Kind.
type Error struct {
	Kind     Kind
	Attempts int // set for KindInsertFailed
	Err      error
}

// Sentinels for errors.Is.
var (
	ErrMissingFields          = &Error{Kind: KindMissingFields}
	ErrInvalidDate            = &Error{Kind: KindInvalidDate}
	ErrUnknownTopic           = &Error{Kind: KindUnknownTopic}
	ErrDuplicatePlan          = &Error{Kind: KindDuplicatePlan}
	ErrInsertFailed           = &Error{Kind: KindInsertFailed}
	ErrVerificationFailed     = &Error{Kind: KindVerificationFailed}
	ErrRemoteGenerationFailed = &Error{Kind: KindRemoteGenerationFailed}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindMissingFields:
		msg = "missing information: grade, topic and test date are required"
	case KindInvalidDate:
		msg = "invalid date: the test date must be after today"
	case KindUnknownTopic:
		msg = "unknown topic"
	case KindDuplicatePlan:
		msg = "a plan already exists for this session"
	case KindInsertFailed:
		msg = fmt.Sprintf("failed to create learning plan after %d attempts", e.Attempts)
	case KindVerificationFailed:
		msg = "plan creation reported success but the plan could not be found"
	case KindRemoteGenerationFailed:
		msg = "remote plan generation failed"
	default:
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of a plan error, or "" for other errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
