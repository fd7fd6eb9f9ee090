package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func openAIServer(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: "gpt-4o-mini"}
}

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-quiz",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func apiError(status int, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": kind, "message": kind},
		})
	}
}

func TestOpenAIProvider_StructuredQuiz(t *testing.T) {
	var sent map[string]any
	p := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &sent)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion(`{"questions":[{"question":"Roots of x^2-4?","options":["±2","4"],"answer":0}]}`, "stop"))
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "You write short multiple choice quizzes.",
		Messages:  []Message{{Role: RoleUser, Content: "Quadratics, grade 9"}},
		Schema:    &Schema{Name: "quiz", Description: "Quiz questions", Definition: quizDefinition()},
		MaxTokens: 512,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 || resp.Usage.TotalTokens != 65 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.Model != "gpt-4o-mini-2024-07-18" || resp.StopReason != "end" {
		t.Fatalf("unexpected response %+v", resp)
	}

	format, _ := sent["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("response_format = %v", sent["response_format"])
	}
	schema, _ := format["json_schema"].(map[string]any)
	if schema["name"] != "quiz" || schema["strict"] != true {
		t.Fatalf("json_schema = %v", schema)
	}
	if msgs, _ := sent["messages"].([]any); len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %v", sent["messages"])
	}
}

func TestOpenAIProvider_TruncatedSchemaAnswer(t *testing.T) {
	p := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion(`{"questions":[{"question":"Fac`, "length"))
	})

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "quiz"}},
		Schema:   &Schema{Name: "quiz", Definition: quizDefinition()},
	})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
	}
	if string(maxTok.Content) != `{"questions":[{"question":"Fac` {
		t.Fatalf("partial content = %s", maxTok.Content)
	}
}

func TestOpenAIProvider_InvalidSchemaAnswer(t *testing.T) {
	p := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion(`{"type":"circle"}`, "stop"))
	})

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "graph"}},
		Schema:   graphSchema(),
	})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	rl := openAIServer(t, apiError(http.StatusTooManyRequests, "rate_limit_exceeded"))
	_, err := rl.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	var rateErr *ErrRateLimit
	if !errors.As(err, &rateErr) {
		t.Fatalf("429: expected ErrRateLimit, got %T (%v)", err, err)
	}

	down := openAIServer(t, apiError(http.StatusBadGateway, "server_error"))
	_, err = down.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("502: expected ErrProviderUnavailable, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_HistoryRoles(t *testing.T) {
	msgs := buildOpenAIMessages(Request{
		System: "Explain one step at a time.",
		Messages: []Message{
			{Role: RoleUser, Content: "Why divide by 2a?"},
			{Role: RoleAssistant, Content: "It isolates x."},
			{Role: RoleUser, Content: "And the ±?"},
		},
	})
	want := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i, m := range msgs {
		if m.Role != want[i] {
			t.Errorf("message %d role = %s, want %s", i, m.Role, want[i])
		}
	}
}

func TestNewOpenAIProvider(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{}); err == nil {
		t.Fatal("expected missing key error")
	}

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini", BaseURL: "http://localhost:1/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o-mini" || p.Name() != "openai" {
		t.Fatalf("got %s/%s", p.Name(), p.ModelID())
	}
}
