package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Veraticus/smarttrack/internal/aggregate"
	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	txns, err := s.deps.Ledger.Transactions(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction fetch error", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req model.NewTransaction
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PaymentMode == "" {
		req.PaymentMode = model.PaymentModeFor(req.IsRegisteredMerchant)
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.deps.Ledger.Record(r.Context(), user.ID, req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, saved)
	case errors.Is(err, model.ErrInvalidTransaction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "This payment was already recorded")
	default:
		s.logger.ErrorContext(r.Context(), "Transaction insert error", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to save the transaction")
	}
}

func (s *Server) handleTransactionsByDate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	groups, err := s.deps.Ledger.ByDate(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction fetch error", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	top := aggregate.DefaultTopCategories
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}

	summary, err := s.deps.Ledger.Summary(r.Context(), user.ID, top)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction fetch error", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
