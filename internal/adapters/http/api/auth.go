package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/skillhub/internal/auth"
	"github.com/okian/skillhub/pkg/logger"
)

// AuthHandler exchanges the admin secret for a token.
type AuthHandler struct {
	gate Authenticator
}

// NewAuthHandler creates a new login handler.
func NewAuthHandler(gate Authenticator) *AuthHandler {
	return &AuthHandler{gate: gate}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	OK        bool      `json:"ok"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleLogin handles POST /auth requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrInvalidJSON, err))
		return
	}
	tok, err := h.gate.Authenticate(req.Password)
	if err != nil {
		logger.FromContext(r.Context()).Warn(r.Context(), "admin login refused", logger.Error(err))
		writeError(w, r, NewKind(op, err))
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{OK: true, Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

// adminGuard re-validates the admin credential on every request.
type adminGuard struct {
	gate Authenticator
}

// check returns nil when r carries a valid admin credential, from the
// x-admin-secret header or a bearer token.
func (g *adminGuard) check(r *http.Request) error {
	cred := r.Header.Get(AdminHeader)
	if cred == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			cred = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	if cred == "" {
		return auth.ErrUnauthorized
	}
	// Without a configured secret nobody is an admin.
	if err := g.gate.Verify(cred); err != nil {
		return auth.ErrUnauthorized
	}
	return nil
}
