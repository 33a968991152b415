package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platewise/platewise/internal/chat"
	"github.com/platewise/platewise/internal/gemini"
	"github.com/platewise/platewise/internal/log"
)

// maxRequestBody caps chat request bodies at 1 MiB.
const maxRequestBody = 1 << 20

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply for a successful chat turn.
type ChatResponse struct {
	Success     bool   `json:"success"`
	Response    string `json:"response"`
	ContextUsed bool   `json:"context_used"`
}

// TurnHandler runs one conversational turn for a user.
type TurnHandler interface {
	HandleTurn(ctx context.Context, userID, message string) (chat.TurnResult, error)
}

// chatHandler handles POST /api/chat.
func chatHandler(svc TurnHandler, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromContext(r.Context())
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing_identity", "X-User-ID header is required")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds 1MB")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a message field")
			return
		}

		result, err := svc.HandleTurn(r.Context(), userID, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrEmptyMessage):
				writeError(w, http.StatusBadRequest, "empty_message", "message must not be empty")
			case errors.Is(err, gemini.ErrUnavailable):
				writeError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI service is not available")
			default:
				logger.Error("chat turn failed",
					"user_id", userID,
					"request_id", requestIDFromContext(r.Context()),
					"error", err,
				)
				writeError(w, http.StatusInternalServerError, "generation_failed",
					"Sorry, something went wrong while answering. Please try again.")
			}
			return
		}

		writeJSON(w, http.StatusOK, ChatResponse{
			Success:     true,
			Response:    result.Response,
			ContextUsed: result.ContextUsed,
		})
	}
}
