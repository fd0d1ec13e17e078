package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"q/chat"
	"q/config"
	"q/model"
	"q/provider"
	"q/storage"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// TurnRequest is the body of POST /chats.
type TurnRequest struct {
	Message string `json:"message" validate:"required"`
	ChatID  string `json:"chat_id,omitempty" validate:"omitempty,uuid"`
	Prompt  string `json:"prompt,omitempty" validate:"max=20000"`
}

// TurnResponse is the outcome of one chat turn.
type TurnResponse struct {
	ChatID    string   `json:"chat_id"`
	Reply     string   `json:"reply"`
	ToolCalls []string `json:"tool_calls"`
	Hops      int      `json:"hops"`
}

// respondWithError maps domain errors to status codes. Messages of
// unexpected errors are not sent to the client.
func respondWithError(w http.ResponseWriter, err error) {
	var (
		statusCode int
		message    string
		apiErr     *provider.APIError
	)

	switch {
	case errors.Is(err, storage.ErrChatNotFound):
		statusCode = http.StatusNotFound
		message = "Chat not found."
	case errors.Is(err, config.ErrValidation):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, config.ErrNoModel):
		statusCode = http.StatusBadRequest
		message = "No default model set."
	case errors.Is(err, config.ErrNotAuthenticated):
		statusCode = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, chat.ErrMaxHops):
		statusCode = http.StatusBadGateway
		message = err.Error()
	case errors.As(err, &apiErr):
		statusCode = http.StatusBadGateway
		message = fmt.Sprintf("upstream error: %s", apiErr.Error())
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	config.DebugLog.Debugf("[Server] Responding with %d: %v", statusCode, err)
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		config.DebugLog.Debugf("[Server] Failed to marshal response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		config.DebugLog.Debugf("[Server] Failed to write response: %v", err)
	}
}

// unavailableModel is the reply to a model name no listed model matches.
func unavailableModel(w http.ResponseWriter, name string) {
	respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: fmt.Sprintf("Model %q is not available.", name),
	})
}

func flatten(models []model.Model) []model.FlatModel {
	flat := make([]model.FlatModel, len(models))
	for i, m := range models {
		flat[i] = m.Flatten()
	}
	return flat
}
