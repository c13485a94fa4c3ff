package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"finledger/internal/common"
)

type AuthHandler struct {
	env   *Env
	users UserProvider
}

func NewAuthHandler(env *Env, users UserProvider) *AuthHandler {
	return &AuthHandler{env: env, users: users}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.env.writeError(w, r, fmt.Errorf("%w: malformed request body", common.ErrorValidation))
		return nil, false
	}
	return &req, true
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	res, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusCreated, authResponse{
		Token: res.Token,
		User:  toUserResponse(res.User),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusOK, authResponse{
		Token: res.Token,
		User:  toUserResponse(res.User),
	})
}

// Me handles GET /api/me, returning the account behind the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authUser, ok := CurrentUser(r.Context())
	if !ok {
		h.env.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	user, err := h.users.GetByID(r.Context(), authUser.ID)
	if err != nil {
		h.env.writeError(w, r, err)
		return
	}

	h.env.writeJSON(w, http.StatusOK, toUserResponse(user))
}
