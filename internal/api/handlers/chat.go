package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/carepal-health/carepal/internal/api/middleware"
	"github.com/carepal-health/carepal/internal/service"
)

type ChatHandler struct {
	chat     *service.ChatService
	sessions *service.SessionStore
}

func NewChatHandler(chat *service.ChatService, sessions *service.SessionStore) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions}
}

type chatRequest struct {
	Message string `json:"message"`
}

type historyResponse struct {
	History []service.ChatMessage `json:"history"`
}

// Send answers one user message within the authenticated session and records
// both conversation turns.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result := h.chat.ProcessMessage(r.Context(), req.Message, session.Customer)

	now := time.Now()
	answeredIntent := ""
	if !result.OutOfScope {
		answeredIntent = result.Classification.Intent
	}
	// Appends only fail when the session expired mid-request; the answer
	// still goes out.
	_ = h.sessions.AppendMessage(session.Token, service.ChatMessage{
		Role: "user", Content: req.Message, CreatedAt: now,
	})
	_ = h.sessions.AppendMessage(session.Token, service.ChatMessage{
		Role: "assistant", Content: result.Response, Intent: answeredIntent, CreatedAt: now,
	})

	writeJSON(w, http.StatusOK, result)
}

// History returns the session's conversation so far, oldest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	history, err := h.sessions.History(session.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session token")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{History: history})
}
