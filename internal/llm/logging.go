package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
	log       *logger.Logger
}

// WithLogging wraps a Provider with event logging. log may be nil.
func WithLogging(p Provider, repo store.EventRepo, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{inner: p, eventRepo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	l.record(ctx, req, resp, err, start, "")
	return resp, err
}

// Stream forwards to the inner provider and records the assembled text.
func (l *LoggingProvider) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (*Response, error) {
	start := time.Now()
	var text strings.Builder
	resp, err := Stream(ctx, l.inner, req, func(delta string) error {
		text.WriteString(delta)
		return onDelta(delta)
	})
	l.record(ctx, req, resp, err, start, text.String())
	return resp, err
}

func (l *LoggingProvider) record(ctx context.Context, req Request, resp *Response, err error, start time.Time, streamed string) {
	data := store.LLMRequestEventData{
		Provider:     providerName(l.inner),
		Model:        l.inner.ModelID(),
		Purpose:      PurposeFrom(ctx),
		LatencyMs:    time.Since(start).Milliseconds(),
		Success:      err == nil,
		RequestBody:  serializeRequest(req),
		ResponseBody: streamed,
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		if data.ResponseBody == "" {
			data.ResponseBody = string(resp.Content)
		}
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	l.log.Debug("llm request",
		"purpose", data.Purpose,
		"session_id", SessionFrom(ctx),
		"model", data.Model,
		"latency_ms", data.LatencyMs,
		"success", data.Success,
	)

	// Never fail the request because logging failed.
	if l.eventRepo == nil {
		return
	}
	if logErr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		l.log.Warn("failed to log LLM request event", "error", logErr)
	}
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// providerName is the vendor name when p reports one, else its model.
func providerName(p Provider) string {
	if n, ok := p.(interface{ Name() string }); ok {
		return n.Name()
	}
	return p.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
