// Package api provides the HTTP handlers for the chat service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindtek/leadchat/analyzer"
	"github.com/mindtek/leadchat/chat"
	"github.com/mindtek/leadchat/config"
	"github.com/mindtek/leadchat/store"
)

// Handler handles HTTP requests.
type Handler struct {
	store    store.Store
	chat     *chat.Service
	analyzer *analyzer.Service
	config   *config.Config
}

// NewHandler creates a new handler.
func NewHandler(st store.Store, chatSvc *chat.Service, analyzerSvc *analyzer.Service, cfg *config.Config) *Handler {
	return &Handler{
		store:    st,
		chat:     chatSvc,
		analyzer: analyzerSvc,
		config:   cfg,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/chat", h.Chat)
	e.GET("/conversation/:sessionId", h.GetConversation)
	e.DELETE("/conversation/:sessionId", h.DeleteConversation)
	e.GET("/conversations", h.ListConversations)
	e.POST("/analyze/:sessionId", h.Analyze)
	e.GET("/health", h.Health)
}

// Health returns service health. Storage faults degrade the database field
// but never fail the endpoint.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	database := "Connected"
	count, err := h.store.CountSessions(ctx)
	if err != nil {
		slog.Error("failed to count sessions", "error", err)
		database = "Error"
		count = 0
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":             "OK",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"conversationsCount": count,
		"database":           database,
		"environment":        h.config.Environment,
	})
}
