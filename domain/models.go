// Package domain defines the core domain models for the chat service.
package domain

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// LeadQuality categorizes an analyzed conversation.
type LeadQuality string

const (
	LeadQualityGood LeadQuality = "good"
	LeadQualityOK   LeadQuality = "ok"
	LeadQualitySpam LeadQuality = "spam"
)

// Valid reports whether q is one of the known categories.
func (q LeadQuality) Valid() bool {
	switch q {
	case LeadQualityGood, LeadQualityOK, LeadQualitySpam:
		return true
	}
	return false
}

// Message is a single message in a conversation. Only user and assistant
// messages are persisted; system instructions are injected per request and
// never stored.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Session is a conversation keyed by a client-generated session ID.
type Session struct {
	SessionID  string           `json:"session_id"`
	Messages   []Message        `json:"messages"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Analysis   *CustomerProfile `json:"customer_analysis"`
	AnalyzedAt *time.Time       `json:"analysis_timestamp"`
}

// CustomerProfile is the structured result of analyzing a transcript.
type CustomerProfile struct {
	CustomerName         string      `json:"customerName"`
	CustomerEmail        string      `json:"customerEmail"`
	CustomerPhone        string      `json:"customerPhone,omitempty"`
	CustomerIndustry     string      `json:"customerIndustry,omitempty"`
	CustomerProblem      string      `json:"customerProblem"`
	CustomerAvailability string      `json:"customerAvailability,omitempty"`
	CustomerConsultation bool        `json:"customerConsultation,omitempty"`
	SpecialNotes         string      `json:"specialNotes,omitempty"`
	LeadQuality          LeadQuality `json:"leadQuality"`
}
