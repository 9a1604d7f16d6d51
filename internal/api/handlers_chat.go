package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/llm"
	"github.com/Veraticus/smarttrack/internal/responder"
)

// gatewayStatus maps a gateway failure to its HTTP status and message.
func gatewayStatus(err error) (int, string) {
	switch {
	case errors.Is(err, responder.ErrFetchTransactions):
		return http.StatusInternalServerError, responder.MsgFetchFailed
	case errors.Is(err, llm.ErrNotConfigured):
		return http.StatusInternalServerError, responder.MsgNotConfigured
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, responder.MsgRateLimited
	case errors.Is(err, llm.ErrQuotaExhausted):
		return http.StatusPaymentRequired, responder.MsgQuotaExhausted
	default:
		return http.StatusInternalServerError, responder.MsgServiceError
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req responder.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.deps.Gateway.Respond(r.Context(), user.ID, req.Message)
	if err != nil {
		status, message := gatewayStatus(err)
		s.logger.ErrorContext(r.Context(), "AI gateway error", "error", err, "status", status, "user_id", user.ID)
		writeError(w, status, message)
		return
	}
	if strings.TrimSpace(reply) == "" {
		reply = responder.MsgEmptyGeneration
	}

	writeJSON(w, http.StatusOK, responder.ChatResponse{Response: reply})
}
