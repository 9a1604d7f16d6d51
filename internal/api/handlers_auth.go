package api

import (
	"errors"
	"net/http"

	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/model"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type categoryResponse struct {
	ID           model.Category `json:"id"`
	Label        string         `json:"label"`
	Glyph        string         `json:"glyph"`
	Color        string         `json:"color"`
	PromptChoice bool           `json:"prompt_choice"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.deps.Auth.SignUp(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, session)
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
	case errors.Is(err, auth.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "An account with this email already exists")
	default:
		s.logger.ErrorContext(r.Context(), "Sign up failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.deps.Auth.SignIn(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, session)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		s.logger.ErrorContext(r.Context(), "Sign in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to sign in")
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

func handleCategories(w http.ResponseWriter, _ *http.Request) {
	offered := make(map[model.Category]bool)
	for _, c := range model.PromptChoices() {
		offered[c] = true
	}

	out := make([]categoryResponse, 0, len(model.AllCategories()))
	for _, c := range model.AllCategories() {
		info := c.Info()
		out = append(out, categoryResponse{
			ID:           c,
			Label:        info.Label,
			Glyph:        info.Glyph,
			Color:        info.Color,
			PromptChoice: offered[c],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}
