package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/model"
)

type chooseRequest struct {
	Category string `json:"category"`
}

type chooseResponse struct {
	Transaction *model.Transaction `json:"transaction"`
	Session     flow.Session       `json:"session"`
	Saved       bool               `json:"saved"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Response string       `json:"response"`
	Session  flow.Session `json:"session"`
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, s.deps.Coordinator.Snapshot(user.ID))
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	session, err := s.deps.Coordinator.Simulate(user.ID)
	if errors.Is(err, flow.ErrPaymentPending) {
		writeError(w, http.StatusConflict, "Please categorize the pending payment first")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Simulate failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to simulate a payment")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req chooseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := model.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, saved, err := s.deps.Coordinator.Choose(r.Context(), user.ID, category)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, chooseResponse{Session: session, Transaction: saved, Saved: saved != nil})
	case errors.Is(err, flow.ErrInvalidChoice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, flow.ErrNoPendingPayment), errors.Is(err, flow.ErrSaveInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Choose failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to save the transaction. Please try again.")
	}
}

func (s *Server) handleFlowMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, session := s.deps.Coordinator.Ask(r.Context(), user.ID, req.Message, s.deps.Answerer)
	writeJSON(w, http.StatusOK, messageResponse{Response: reply, Session: session})
}
