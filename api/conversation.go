package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindtek/leadchat/domain"
)

// GetConversation returns the message history for a session. An unknown
// session yields an empty array, not a 404: the widget polls before the
// first turn exists.
// GET /conversation/:sessionId
func (h *Handler) GetConversation(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("sessionId")

	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		slog.Error("failed to fetch conversation", "session_id", sessionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch conversation"})
	}

	messages := []domain.Message{}
	if session != nil {
		messages = session.Messages
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation": messages,
	})
}

// DeleteConversation removes a session. Deleting an absent session
// succeeds.
// DELETE /conversation/:sessionId
func (h *Handler) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("sessionId")

	if err := h.store.DeleteSession(ctx, sessionID); err != nil {
		slog.Error("failed to delete conversation", "session_id", sessionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete conversation"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Conversation cleared"})
}

// ListConversations returns all sessions, newest first, for the review
// dashboard.
// GET /conversations
func (h *Handler) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()

	sessions, err := h.store.ListSessions(ctx)
	if err != nil {
		slog.Error("failed to list conversations", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch conversations"})
	}

	if sessions == nil {
		sessions = []domain.Session{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversations": sessions,
	})
}
