package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reelhouse/models"
	"reelhouse/services/sessions"
	"reelhouse/services/users"
)

type authUsersService interface {
	Authenticate(identifier, password string) (models.User, error)
	Get(id string) (models.User, bool)
}

var _ authUsersService = (*users.Service)(nil)

type sessionsService interface {
	Issue(userID string) (string, error)
	Revoke(token string)
}

var _ sessionsService = (*sessions.Service)(nil)

type AuthHandler struct {
	Users    authUsersService
	Sessions sessionsService
}

func NewAuthHandler(usersSvc authUsersService, sessionsSvc sessionsService) *AuthHandler {
	return &AuthHandler{Users: usersSvc, Sessions: sessionsSvc}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body models.LoginRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	user, err := h.Users.Authenticate(body.Identifier, body.Password)
	if err != nil {
		if errors.Is(err, users.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.Sessions.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: user})
}

// Me returns the account resolved by the auth middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessions.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	user, ok := h.Users.Get(userID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout revokes the presented bearer token. Always succeeds: revoking an
// unknown token is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := BearerToken(r); token != "" {
		h.Sessions.Revoke(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// BearerToken extracts the token from the Authorization header, empty when
// absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
