package devserver

import (
	"encoding/json"
	"net/http"

	"venezia-storefront/internal/session"

	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u := s.store.authenticate(req.Email, req.Password)
	if u == nil {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.generateToken(u.ID, u.RoleID)
	if err != nil {
		s.log.Error("token generation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"user":         u,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens; nothing to revoke here.
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u := s.store.user(userIDFrom(r.Context()))
	if u == nil {
		s.writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p session.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u := s.store.updateProfile(userIDFrom(r.Context()), p)
	if u == nil {
		s.writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"user": u})
}
