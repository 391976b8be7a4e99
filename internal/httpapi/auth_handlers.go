package httpapi

import (
	"net/http"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/services"
)

type AuthHandler struct {
	Accounts *services.Accounts
}

func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, profile, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Registration failed")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"session": session, "profile": profile})
}

func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.Accounts.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Login failed")
		return
	}
	WriteJSON(w, http.StatusOK, session)
}

func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.Logout(r.Context(), auth.BearerToken(r)); err != nil {
		writeServiceError(w, r, err, "Failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.DeleteAccount(r.Context(), auth.BearerToken(r)); err != nil {
		writeServiceError(w, r, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	WriteJSON(w, http.StatusOK, u)
}
