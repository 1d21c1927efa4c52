package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/printloom/storefront-backend/internal/auth"
	"github.com/printloom/storefront-backend/internal/store"
)

// ─── POST /api/auth/register ──────────────────────────────────────────────────

type registerRequest struct {
	StoreID  string `json:"store_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID  string `json:"user_id"`
	StoreID string `json:"store_id"`
	Token   string `json:"token"`
}

// handleRegister creates a CMS administrator account for a store and returns
// a session token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	if _, ok := s.registry.Store(req.StoreID); !ok {
		respondErr(w, http.StatusBadRequest, "unknown store")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		respondErr(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("hash password: %w", err))
		return
	}

	user, err := s.q.CreateUser(r.Context(), store.CreateUserParams{
		StoreID:      req.StoreID,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		// Unique violation on (store_id, email) is the common failure here.
		respondErr(w, http.StatusConflict, "account already exists")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.StoreID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("issue token: %w", err))
		return
	}

	respond(w, http.StatusCreated, authResponse{
		UserID:  user.ID.String(),
		StoreID: user.StoreID,
		Token:   token,
	})
}

// ─── POST /api/auth/login ─────────────────────────────────────────────────────

type loginRequest struct {
	StoreID  string `json:"store_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and returns a fresh session token.
// Unknown account and wrong password are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := s.q.GetUserByEmail(r.Context(), req.StoreID, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondErr(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("get user: %w", err))
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondErr(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.StoreID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("issue token: %w", err))
		return
	}

	respond(w, http.StatusOK, authResponse{
		UserID:  user.ID.String(),
		StoreID: user.StoreID,
		Token:   token,
	})
}
