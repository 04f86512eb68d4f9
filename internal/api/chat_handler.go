// File path: internal/api/chat_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/engine"
)

type chatRequest struct {
	Message        string `json:"message"`
	MaxResults     int    `json:"max_results"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: chat decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		logger.Warn("api: chat message missing")
		writeError(w, http.StatusBadRequest, fmt.Errorf("message required"))
		return
	}
	logger.Info("api: chat request received", "message_length", len(message), "conversation", req.ConversationID != "")
	result, err := s.engine.Chat(r.Context(), engine.ChatRequest{
		Query:             message,
		ConversationToken: req.ConversationID,
		Hint:              req.MaxResults,
	})
	if err != nil {
		logger.Error("api: chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: chat answered", "state", result.State, "sources", len(result.Sources))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChatSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": engine.Suggestions()})
}
