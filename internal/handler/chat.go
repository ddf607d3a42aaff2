package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Vector-IT-Drew/Dash/internal/model"
	"github.com/Vector-IT-Drew/Dash/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles conversation-related HTTP requests
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Start handles POST /api/v1/chat/start
func (h *ChatHandler) Start(c *gin.Context) {
	resp, err := h.chatService.StartSession(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrListingsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Listings are temporarily unavailable, please try again shortly"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Turn handles POST /api/v1/chat
func (h *ChatHandler) Turn(c *gin.Context) {
	var req model.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.chatService.Turn(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Turn failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TurnStream handles POST /api/v1/chat/stream - SSE streaming turn
func (h *ChatHandler) TurnStream(c *gin.Context) {
	var req model.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"session_id": req.SessionID})
	flusher.Flush()

	resp, err := h.chatService.TurnStream(c.Request.Context(), req.SessionID, req.Message, func(thinking, content string) error {
		if thinking != "" {
			sendSSE(c, "thinking", map[string]any{"content": thinking})
			flusher.Flush()
		}
		if content != "" {
			sendSSE(c, "content", map[string]any{"content": content})
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	// Final event carries the structured turn result (preferences, count,
	// revealed listings) after the streamed text.
	sendSSE(c, "result", resp)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Reset handles POST /api/v1/chat/reset
func (h *ChatHandler) Reset(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.chatService.ResetSession(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrListingsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Listings are temporarily unavailable, please try again shortly"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset session: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
