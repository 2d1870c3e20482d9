package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/mindtek/leadchat/domain"
	"github.com/mindtek/leadchat/llm"
	"github.com/mindtek/leadchat/store"
)

// newFakeProvider returns a completion endpoint that replies with reply,
// and fails with status 502 when reply is empty.
func newFakeProvider(t *testing.T, reply string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) == 0 || req.Messages[0].Role != "system" {
			t.Errorf("expected system instruction first, got %+v", req.Messages)
		}

		if reply == "" {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"error":{"message":"upstream down","type":"server_error"}}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := llm.ChatCompletionResponse{
			ID:      "c1",
			Object:  "chat.completion",
			Model:   req.Model,
			Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: "assistant", Content: reply}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestService(t *testing.T, providerURL string, st store.Store, maxHistory int) *Service {
	t.Helper()

	client := llm.NewClient(providerURL, "", time.Second)
	prompt := Prompt{
		Instruction: DefaultInstruction,
		Model:       "gpt-3.5-turbo",
		MaxTokens:   150,
		Temperature: 0.7,
	}
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	meter := metricnoop.NewMeterProvider().Meter("test")
	return NewService(client, st, prompt, maxHistory, tracer, meter)
}

func TestRespondEmptyMessage(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, "http://127.0.0.1:0", st, 10)

	_, _, err := svc.Respond(context.Background(), nil, "  ")
	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestProcessTurnEmptyMessageNoMutation(t *testing.T) {
	st := store.NewMemoryStore()
	server := newFakeProvider(t, "hi")
	svc := newTestService(t, server.URL, st, 10)

	_, _, err := svc.ProcessTurn(context.Background(), "s1", "")
	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	count, _ := st.CountSessions(context.Background())
	if count != 0 {
		t.Fatalf("expected no stored sessions, got %d", count)
	}
}

func TestProcessTurnFirstContact(t *testing.T) {
	st := store.NewMemoryStore()
	server := newFakeProvider(t, "Hi! What industry do you work in?")
	svc := newTestService(t, server.URL, st, 10)

	reply, conversation, err := svc.ProcessTurn(context.Background(), "s1", "Hello")
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if reply == "" {
		t.Fatalf("expected non-empty reply")
	}
	if len(conversation) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conversation))
	}
	if conversation[0].Role != domain.RoleUser || conversation[0].Content != "Hello" {
		t.Fatalf("unexpected first entry: %+v", conversation[0])
	}
	if conversation[1].Role != domain.RoleAssistant || conversation[1].Content == "" {
		t.Fatalf("unexpected second entry: %+v", conversation[1])
	}

	stored, err := st.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored == nil || len(stored.Messages) != 2 {
		t.Fatalf("expected persisted 2-entry history, got %+v", stored)
	}
}

func TestProcessTurnWindowBound(t *testing.T) {
	st := store.NewMemoryStore()
	server := newFakeProvider(t, "ack")
	svc := newTestService(t, server.URL, st, 10)

	for i := 1; i <= 12; i++ {
		if _, _, err := svc.ProcessTurn(context.Background(), "s1", fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
	}

	stored, err := st.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(stored.Messages) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(stored.Messages))
	}
	if stored.Messages[0].Content != "message 8" {
		t.Fatalf("expected oldest surviving entry to be turn 8, got %q", stored.Messages[0].Content)
	}
	last := stored.Messages[len(stored.Messages)-1]
	if last.Role != domain.RoleAssistant {
		t.Fatalf("expected history to end with the assistant reply, got %+v", last)
	}
}

func TestProcessTurnUpstreamFailureNoPartialWrite(t *testing.T) {
	st := store.NewMemoryStore()

	ok := newFakeProvider(t, "hello there")
	svc := newTestService(t, ok.URL, st, 10)
	if _, _, err := svc.ProcessTurn(context.Background(), "s1", "Hello"); err != nil {
		t.Fatalf("setup turn failed: %v", err)
	}

	failing := newFakeProvider(t, "")
	svcFail := newTestService(t, failing.URL, st, 10)
	_, _, err := svcFail.ProcessTurn(context.Background(), "s1", "second message")

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}

	// The failed turn must not leave a lone user message behind.
	stored, _ := st.GetSession(context.Background(), "s1")
	if len(stored.Messages) != 2 {
		t.Fatalf("expected session unchanged after failed turn, got %d messages", len(stored.Messages))
	}
}

func TestRespondDoesNotMutateInput(t *testing.T) {
	st := store.NewMemoryStore()
	server := newFakeProvider(t, "ack")
	svc := newTestService(t, server.URL, st, 10)

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "q0"},
		{Role: domain.RoleAssistant, Content: "a0"},
	}

	_, updated, err := svc.Respond(context.Background(), history, "q1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("input history mutated: %d entries", len(history))
	}
	if len(updated) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(updated))
	}
}

func TestProcessTurnRefreshesUpdatedAt(t *testing.T) {
	st := store.NewMemoryStore()
	server := newFakeProvider(t, "ack")
	svc := newTestService(t, server.URL, st, 10)

	created := time.Now().Add(-time.Hour)
	if err := st.SaveSession(context.Background(), &domain.Session{
		SessionID: "s1",
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: "q0"}, {Role: domain.RoleAssistant, Content: "a0"}},
		CreatedAt: created,
		UpdatedAt: created,
	}); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if _, _, err := svc.ProcessTurn(context.Background(), "s1", "another question"); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	stored, _ := st.GetSession(context.Background(), "s1")
	if !stored.UpdatedAt.After(created) {
		t.Fatalf("expected UpdatedAt to be refreshed by the turn commit")
	}
	if !stored.CreatedAt.Equal(created) {
		t.Fatalf("expected CreatedAt to be preserved")
	}
}

func TestProcessTurnConcurrentSameSession(t *testing.T) {
	st := store.NewMemoryStore()
	server := newFakeProvider(t, "ack")
	svc := newTestService(t, server.URL, st, 10)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, _, err := svc.ProcessTurn(context.Background(), "s1", fmt.Sprintf("concurrent %d", i)); err != nil {
				t.Errorf("concurrent turn failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Both turns must survive: no last-writer-wins on the same session.
	stored, _ := st.GetSession(context.Background(), "s1")
	if len(stored.Messages) != 4 {
		t.Fatalf("expected 4 messages after 2 concurrent turns, got %d", len(stored.Messages))
	}
}
