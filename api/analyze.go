package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindtek/leadchat/domain"
)

// Analyze derives a customer profile from a stored transcript and attaches
// it to the session record.
// POST /analyze/:sessionId
func (h *Handler) Analyze(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("sessionId")

	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		slog.Error("failed to fetch conversation", "session_id", sessionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch conversation"})
	}
	if session == nil || len(session.Messages) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Conversation not found"})
	}

	profile, err := h.analyzer.Analyze(ctx, session.Messages)
	if err != nil {
		var malformed *domain.MalformedOutputError
		if errors.As(err, &malformed) {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error":   "Failed to parse analysis response",
				"details": malformed.Raw,
			})
		}
		if errors.Is(err, domain.ErrEmptyTranscript) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Conversation not found"})
		}
		slog.Error("analysis failed", "session_id", sessionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to analyze conversation",
			"details": err.Error(),
		})
	}

	analyzedAt := time.Now()
	if err := h.store.AttachProfile(ctx, sessionID, profile, analyzedAt); err != nil {
		slog.Error("failed to save analysis", "session_id", sessionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save analysis"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"analysis":  profile,
		"timestamp": analyzedAt.UTC().Format(time.RFC3339),
	})
}
