// Package store defines the session storage interface and implementations.
package store

import (
	"context"
	"time"

	"github.com/mindtek/leadchat/domain"
)

// DefaultMaxHistory is the default conversation window size.
const DefaultMaxHistory = 10

// Store defines the interface for session persistence.
//
// GetSession returns (nil, nil) when no record exists: an absent session is
// a normal outcome, not a fault. All other storage failures are returned as
// errors.
type Store interface {
	// GetSession retrieves a session by ID, or nil if it does not exist.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// SaveSession upserts a session by its ID. Saving the same session
	// twice yields the same stored state.
	SaveSession(ctx context.Context, session *domain.Session) error

	// DeleteSession removes a session. Deleting an absent session is not
	// an error.
	DeleteSession(ctx context.Context, sessionID string) error

	// ListSessions returns all sessions ordered by creation time, newest
	// first.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// CountSessions returns the number of stored sessions.
	CountSessions(ctx context.Context) (int, error)

	// AttachProfile stores an analysis result on an existing session.
	AttachProfile(ctx context.Context, sessionID string, profile *domain.CustomerProfile, analyzedAt time.Time) error

	// Lifecycle
	Close() error
}

// TruncateHistory drops the oldest message pairs until the history fits
// within maxHistory. Removing in pairs keeps user/assistant alignment
// intact for the model's context window. The most recent exchange is
// always retained.
func TruncateHistory(messages []domain.Message, maxHistory int) []domain.Message {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	for len(messages) > maxHistory {
		if len(messages) <= 2 {
			break
		}
		messages = messages[2:]
	}
	return messages
}
