package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

type credentialsRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Register creates a user account
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.db.CreateUser(req.Name, req.Password); err != nil {
		h.storeError(w, err)
		return
	}

	log.Info().Str("user", req.Name).Msg("User registered")
	h.jsonSuccess(w, http.StatusCreated, "User created")
}

// Login checks a name/password pair and returns the matching user id
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, err := h.db.AuthenticateUser(req.Name, req.Password)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if userID == 0 {
		log.Debug().Str("user", req.Name).Msg("Login failed")
		h.jsonError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]int64{"user_id": userID})
}
