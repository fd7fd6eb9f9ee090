// Package tutor wraps the AI calls made while a learner studies: questions
// about a solution step, graph extraction and quiz authoring.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/mathtutor/internal/cache"
	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/logger"
)

// maxQuizQuestions caps GenerateQuiz.
const maxQuizQuestions = 10

// Tutor makes tutoring calls against an LLM provider.
type Tutor struct {
	provider llm.Provider
	cfg      Config
	cache    cache.Cache
	limiter  *limiter
	group    singleflight.Group
	log      *logger.Logger
}

// New returns a Tutor. c and log may be nil; without a cache nothing is
// reused between calls.
func New(provider llm.Provider, cfg Config, c cache.Cache, log *logger.Logger) *Tutor {
	if log == nil {
		log = logger.Nop()
	}
	return &Tutor{
		provider: provider,
		cfg:      cfg,
		cache:    c,
		limiter:  newLimiter(cfg.RatePerMinute, cfg.Burst),
		log:      log.With("component", "tutor"),
	}
}

// AskStep streams the answer to a question about a solution step through
// onDelta and returns the whole answer.
func (t *Tutor) AskStep(ctx context.Context, req AskRequest, onDelta func(delta string) error) (string, error) {
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.StepContent) == "" {
		return "", fmt.Errorf("%w: step content and question are required", ErrInvalidRequest)
	}
	if !t.limiter.allow(req.SessionID) {
		return "", ErrRateLimited
	}

	ctx, cancel := t.withTimeout(llm.WithSession(llm.WithPurpose(ctx, llm.PurposeAskStep), req.SessionID))
	defer cancel()

	messages := make([]llm.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		if !turn.Role.Valid() {
			continue
		}
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: buildAskMessage(req)})

	var answer strings.Builder
	_, err := llm.Stream(ctx, t.provider, llm.Request{
		System:      askSystemPrompt,
		Messages:    messages,
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: t.cfg.Temperature,
	}, func(delta string) error {
		answer.WriteString(delta)
		if onDelta == nil {
			return nil
		}
		return onDelta(delta)
	})
	if err != nil {
		return answer.String(), fmt.Errorf("ask step: %w", err)
	}
	return answer.String(), nil
}

// GraphData extracts parabola parameters from a lesson step. ErrNoGraph is
// returned when there is nothing to draw.
func (t *Tutor) GraphData(ctx context.Context, req GraphRequest) (GraphData, error) {
	if strings.TrimSpace(req.Context) == "" && strings.TrimSpace(req.StepContent) == "" {
		return GraphData{}, fmt.Errorf("%w: context or step content is required", ErrInvalidRequest)
	}
	key := cache.Key("graph", req.Grade, req.Topic, req.StepContent, req.StepExample, req.Context)

	v, err := t.cached(ctx, key, req.SessionID, func(ctx context.Context) (any, error) {
		return t.extractGraph(ctx, req)
	}, func() any { return &GraphData{} })
	if err != nil {
		return GraphData{}, err
	}

	g := *(v.(*GraphData))
	if g.Type != GraphParabola {
		return GraphData{}, ErrNoGraph
	}
	return g, nil
}

func (t *Tutor) extractGraph(ctx context.Context, req GraphRequest) (*GraphData, error) {
	resp, err := t.provider.Generate(llm.WithSession(llm.WithPurpose(ctx, llm.PurposeGraphData), req.SessionID), llm.Request{
		System:    graphSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildGraphMessage(req)}},
		Schema:    GraphSchema,
		MaxTokens: t.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("graph data: %w", err)
	}

	var g GraphData
	if err := json.Unmarshal(resp.Content, &g); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("parse graph data: %w", err)}
	}
	if g.Type != GraphParabola {
		return &GraphData{Type: GraphNone}, nil
	}
	if g.Parameters.A == 0 {
		t.log.Warn("graph extraction returned a = 0", "label", g.Parameters.Label)
		return &GraphData{Type: GraphNone}, nil
	}
	g.Parameters = Normalize(g.Parameters)
	return &g, nil
}

// Normalize recomputes the discriminant and the real roots from a, b and
// c, ascending. a must not be zero.
func Normalize(p GraphParams) GraphParams {
	p.Discriminant = p.B*p.B - 4*p.A*p.C
	switch {
	case p.Discriminant > 0:
		sq := math.Sqrt(p.Discriminant)
		p.Roots = []float64{(-p.B - sq) / (2 * p.A), (-p.B + sq) / (2 * p.A)}
		sort.Float64s(p.Roots)
	case p.Discriminant == 0:
		p.Roots = []float64{-p.B / (2 * p.A)}
	default:
		p.Roots = []float64{}
	}
	for i, r := range p.Roots {
		p.Roots[i] = round(r)
	}
	if strings.TrimSpace(p.Label) == "" {
		p.Label = Label(p.A, p.B, p.C)
	}
	return p
}

// Label formats ax² + bx + c = 0.
func Label(a, b, c float64) string {
	var sb strings.Builder
	term := func(coef float64, suffix string, first bool) {
		if coef == 0 {
			return
		}
		switch {
		case first && coef < 0:
			sb.WriteString("-")
		case !first && coef < 0:
			sb.WriteString(" - ")
		case !first:
			sb.WriteString(" + ")
		}
		abs := math.Abs(coef)
		if abs != 1 || suffix == "" {
			sb.WriteString(strconv.FormatFloat(abs, 'f', -1, 64))
		}
		sb.WriteString(suffix)
	}
	term(a, "x²", true)
	term(b, "x", false)
	term(c, "", false)
	sb.WriteString(" = 0")
	return sb.String()
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// GenerateQuiz asks the provider for Count multiple-choice questions.
// Malformed questions are dropped.
func (t *Tutor) GenerateQuiz(ctx context.Context, req QuizRequest) ([]curriculum.QuizQuestion, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if req.Count <= 0 {
		req.Count = 5
	}
	req.Count = min(req.Count, maxQuizQuestions)
	key := cache.Key("quiz", req.Grade, req.Topic, strings.Join(req.Subtopics, "|"), strconv.Itoa(req.Count))

	v, err := t.cached(ctx, key, req.SessionID, func(ctx context.Context) (any, error) {
		return t.authorQuiz(ctx, req)
	}, func() any { return &[]curriculum.QuizQuestion{} })
	if err != nil {
		return nil, err
	}
	return slices.Clone(*(v.(*[]curriculum.QuizQuestion))), nil
}

type quizOutput struct {
	Questions []curriculum.QuizQuestion `json:"questions"`
}

func (t *Tutor) authorQuiz(ctx context.Context, req QuizRequest) (*[]curriculum.QuizQuestion, error) {
	resp, err := t.provider.Generate(llm.WithSession(llm.WithPurpose(ctx, llm.PurposeQuiz), req.SessionID), llm.Request{
		System:      quizSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildQuizMessage(req)}},
		Schema:      QuizSchema,
		MaxTokens:   max(t.cfg.MaxTokens, 2048),
		Temperature: t.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	var out quizOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("parse quiz: %w", err)}
	}

	questions := make([]curriculum.QuizQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 || q.Answer < 0 || q.Answer >= len(q.Options) {
			t.log.Debug("dropping malformed quiz question", "question", q.Question)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("quiz has no usable questions")}
	}
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}
	return &questions, nil
}

// cached serves key from the cache when possible. Otherwise it charges the
// session's rate limit and runs fn once per key across concurrent callers,
// storing the result. newValue returns a pointer to decode cache hits into.
func (t *Tutor) cached(ctx context.Context, key, sessionID string, fn func(context.Context) (any, error), newValue func() any) (any, error) {
	if t.cache != nil {
		v := newValue()
		ok, err := cache.GetJSON(ctx, t.cache, key, v)
		if err != nil {
			t.log.Warn("cache read failed", "key", key, "error", err)
		}
		if ok {
			return v, nil
		}
	}

	if !t.limiter.allow(sessionID) {
		return nil, ErrRateLimited
	}

	v, err, shared := t.group.Do(key, func() (any, error) {
		// Detached so one caller going away does not fail the others.
		callCtx, cancel := t.withTimeout(context.WithoutCancel(ctx))
		defer cancel()

		v, err := fn(callCtx)
		if err != nil {
			return nil, err
		}
		if t.cache != nil {
			if err := cache.SetJSON(callCtx, t.cache, key, v, t.cfg.CacheTTL); err != nil {
				t.log.Warn("cache write failed", "key", key, "error", err)
			}
		}
		return v, nil
	})
	if shared {
		t.log.Debug("shared in-flight tutoring call", "key", key)
	}
	return v, err
}

func (t *Tutor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.cfg.Timeout)
}
