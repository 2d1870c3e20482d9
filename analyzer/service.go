// Package analyzer derives a structured customer profile from a finished
// conversation transcript.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mindtek/leadchat/domain"
	"github.com/mindtek/leadchat/llm"
)

// extractionInstruction mandates the output schema and the lead-quality
// labeling rule. "ok" is left to the provider's judgment.
const extractionInstruction = `Extract the following customer details from the transcript:
- Name
- Email address
- Phone number
- Industry
- Problems, needs, and goals summary
- Availability
- Whether they have booked a consultation (true/false)
- Any special notes
- Lead quality (categorize as 'good', 'ok', or 'spam')

Format the response using this JSON schema:
{
  "type": "object",
  "properties": {
    "customerName": { "type": "string" },
    "customerEmail": { "type": "string" },
    "customerPhone": { "type": "string" },
    "customerIndustry": { "type": "string" },
    "customerProblem": { "type": "string" },
    "customerAvailability": { "type": "string" },
    "customerConsultation": { "type": "boolean" },
    "specialNotes": { "type": "string" },
    "leadQuality": { "type": "string", "enum": ["good", "ok", "spam"] }
  },
  "required": ["customerName", "customerEmail", "customerProblem", "leadQuality"]
}

If the user provided contact details, set lead quality to "good"; otherwise, "spam".

Analyze this conversation transcript and return only the JSON response:`

// Sampling configures the completion request used for analysis.
type Sampling struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Service analyzes transcripts through the completion provider.
type Service struct {
	completer Completer
	sampling  Sampling
}

// Completer is the completion provider contract consumed by the analyzer.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)
}

// NewService creates a transcript analyzer.
func NewService(completer Completer, sampling Sampling) *Service {
	return &Service{
		completer: completer,
		sampling:  sampling,
	}
}

// Analyze issues one extraction request for the transcript and parses the
// reply into a CustomerProfile. The profile is returned to the caller; the
// analyzer itself persists nothing.
func (s *Service) Analyze(ctx context.Context, history []domain.Message) (*domain.CustomerProfile, error) {
	transcript := RenderTranscript(history)
	if transcript == "" {
		return nil, domain.ErrEmptyTranscript
	}

	requestID := "analysis_" + uuid.New().String()[:8]

	temperature := s.sampling.Temperature
	maxTokens := s.sampling.MaxTokens
	resp, err := s.completer.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: s.sampling.Model,
		Messages: []llm.ChatMessage{
			{Role: string(domain.RoleSystem), Content: extractionInstruction},
			{Role: string(domain.RoleUser), Content: transcript},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		slog.Error("analysis request failed", "request_id", requestID, "error", err)
		return nil, err
	}

	profile, err := ParseProfile(resp.ReplyText())
	if err != nil {
		slog.Error("analysis output rejected", "request_id", requestID, "error", err)
		return nil, err
	}

	slog.Info("transcript analyzed", "request_id", requestID, "lead_quality", profile.LeadQuality)
	return profile, nil
}

// RenderTranscript flattens user and assistant messages into the
// Customer:/Assistant: form the extraction instruction expects. System
// messages never appear in history but any other role is skipped too.
func RenderTranscript(history []domain.Message) string {
	var lines []string
	for _, m := range history {
		switch m.Role {
		case domain.RoleUser:
			lines = append(lines, "Customer: "+m.Content)
		case domain.RoleAssistant:
			lines = append(lines, "Assistant: "+m.Content)
		}
	}
	return strings.Join(lines, "\n")
}

// ParseProfile extracts and validates the structured block from a raw
// provider reply.
func ParseProfile(raw string) (*domain.CustomerProfile, error) {
	block, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var profile domain.CustomerProfile
	if err := json.Unmarshal([]byte(block), &profile); err != nil {
		return nil, &domain.MalformedOutputError{Raw: raw, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	var missing []string
	if profile.CustomerName == "" {
		missing = append(missing, "customerName")
	}
	if profile.CustomerEmail == "" {
		missing = append(missing, "customerEmail")
	}
	if profile.CustomerProblem == "" {
		missing = append(missing, "customerProblem")
	}
	if profile.LeadQuality == "" {
		missing = append(missing, "leadQuality")
	}
	if len(missing) > 0 {
		return nil, &domain.MalformedOutputError{Raw: raw, Reason: "missing required fields: " + strings.Join(missing, ", ")}
	}
	if !profile.LeadQuality.Valid() {
		return nil, &domain.MalformedOutputError{Raw: raw, Reason: fmt.Sprintf("unknown lead quality %q", profile.LeadQuality)}
	}

	return &profile, nil
}
