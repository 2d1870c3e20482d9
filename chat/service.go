// Package chat implements the conversational turn processor: it mediates
// one user message through the completion provider and returns the updated
// conversation for persistence.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mindtek/leadchat/domain"
	"github.com/mindtek/leadchat/llm"
	"github.com/mindtek/leadchat/store"
)

// Completer is the completion provider contract consumed by the turn
// processor.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)
}

// Service processes conversational turns against a session store.
type Service struct {
	completer  Completer
	store      store.Store
	prompt     Prompt
	maxHistory int

	tracer       trace.Tracer
	turnCounter  metric.Int64Counter
	turnDuration metric.Float64Histogram

	locks sessionLocks
}

// NewService creates a turn processor.
func NewService(completer Completer, st store.Store, prompt Prompt, maxHistory int, tracer trace.Tracer, meter metric.Meter) *Service {
	turnCounter, _ := meter.Int64Counter("chat.turns",
		metric.WithDescription("Completed chat turns"))
	turnDuration, _ := meter.Float64Histogram("chat.turn.duration_ms",
		metric.WithDescription("Chat turn latency in milliseconds"))

	return &Service{
		completer:    completer,
		store:        st,
		prompt:       prompt,
		maxHistory:   maxHistory,
		tracer:       tracer,
		turnCounter:  turnCounter,
		turnDuration: turnDuration,
		locks:        sessionLocks{locks: make(map[string]*sync.Mutex)},
	}
}

// Respond runs one turn: instruction + history + user message to the
// provider, then the user message and the reply appended to the history
// with the truncation policy applied. The input history is not mutated.
func (s *Service) Respond(ctx context.Context, history []domain.Message, userMessage string) (string, []domain.Message, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", nil, domain.ErrEmptyMessage
	}

	requestID := "turn_" + uuid.New().String()[:8]
	ctx, span := s.tracer.Start(ctx, "chat.respond",
		trace.WithAttributes(attribute.String("request_id", requestID)))
	defer span.End()

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: string(domain.RoleSystem), Content: s.prompt.Instruction})
	for _, m := range history {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(domain.RoleUser), Content: userMessage})

	temperature := s.prompt.Temperature
	maxTokens := s.prompt.MaxTokens

	start := time.Now()
	resp, err := s.completer.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:       s.prompt.Model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	latency := time.Since(start)
	if err != nil {
		span.RecordError(err)
		slog.Error("completion request failed", "request_id", requestID, "error", err)
		return "", nil, err
	}

	s.turnDuration.Record(ctx, float64(latency.Milliseconds()))
	reply := resp.ReplyText()

	now := time.Now()
	updated := make([]domain.Message, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		domain.Message{Role: domain.RoleUser, Content: userMessage, Timestamp: now},
		domain.Message{Role: domain.RoleAssistant, Content: reply, Timestamp: now},
	)
	updated = store.TruncateHistory(updated, s.maxHistory)

	return reply, updated, nil
}

// ProcessTurn loads the session, runs one turn, and persists the result.
// The session is created on first contact. Nothing is persisted unless the
// completion call succeeds: a failed turn leaves the stored session exactly
// as it was. Turns for the same session are serialized so concurrent
// requests cannot drop each other's messages.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, message string) (string, []domain.Message, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil, domain.ErrEmptyMessage
	}

	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	if session == nil {
		now := time.Now()
		session = &domain.Session{
			SessionID: sessionID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	reply, updated, err := s.Respond(ctx, session.Messages, message)
	if err != nil {
		return "", nil, err
	}

	session.Messages = updated
	session.UpdatedAt = time.Now()
	if err := s.store.SaveSession(ctx, session); err != nil {
		return "", nil, err
	}

	s.turnCounter.Add(ctx, 1)
	slog.Info("chat turn completed", "session_id", sessionID, "history_len", len(updated))

	return reply, updated, nil
}

// sessionLocks hands out one mutex per session ID. Entries are never
// evicted, so the map grows with the number of distinct session IDs seen
// by this process and outlives session deletion.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *sessionLocks) get(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	return lock
}
