package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carepal-health/carepal/internal/api/middleware"
	"github.com/carepal-health/carepal/internal/domain"
	"github.com/carepal-health/carepal/internal/service"
)

type AuthHandler struct {
	auth     *service.AuthService
	sessions *service.SessionStore
}

func NewAuthHandler(auth *service.AuthService, sessions *service.SessionStore) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

type loginRequest struct {
	NIK      string `json:"nik"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string           `json:"token"`
	Customer *domain.Customer `json:"customer"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.NIK == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "nik and password are required")
		return
	}

	customer, err := h.auth.Authenticate(req.NIK, req.Password)
	if err != nil {
		// Same response whether the NIK is unknown or the password is wrong.
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrCustomerNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid NIK or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	session := h.sessions.Create(customer)
	writeJSON(w, http.StatusOK, loginResponse{Token: session.Token, Customer: customer})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.sessions.Delete(session.Token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
