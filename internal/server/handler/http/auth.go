package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// Register creates an account. It returns false when the login is taken.
	Register(ctx context.Context, login, password string) (bool, error)
	// Authenticate checks credentials and starts the local session on success.
	Authenticate(ctx context.Context, login, password string) (bool, error)
	// Logout ends the local session.
	Logout() error
	CurrentUserID() (int64, bool)
	CurrentLogin() (string, bool)
}

// AuthHandler handles registration, login and session requests.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	Log         *zap.Logger
}

// CredentialsRequest is the JSON payload of register and login.
type CredentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// SessionResponse describes the logged-in user.
type SessionResponse struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
}

func decodeCredentials(r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	req.Login = strings.TrimSpace(req.Login)
	return req, req.Login != "" && req.Password != ""
}

// Register handles POST /api/register. It answers 201 for a new account and
// 409 when the login is already taken.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	created, err := h.AuthService.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !created {
		http.Error(w, "user already exists", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"login": req.Login})
}

// Login handles POST /api/login and starts the shared local session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	authenticated, err := h.AuthService.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !authenticated {
		http.Error(w, "invalid login or password", http.StatusUnauthorized)
		return
	}
	h.Session(w, r)
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	id, ok := h.AuthService.CurrentUserID()
	login, _ := h.AuthService.CurrentLogin()
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{UserID: id, Login: login})
}
