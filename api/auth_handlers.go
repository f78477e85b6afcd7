package api

import (
	"encoding/json"
	"net/http"
	"time"

	"unified-console/config"
	"unified-console/core/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *store.User `json:"user"`
}

func (s *Server) handleAuthConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"auth_mode":     s.cfg.AuthMode,
		"login_enabled": s.cfg.AuthMode == config.AuthModeLocal,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AuthMode != config.AuthModeLocal {
		writeErr(w, http.StatusForbidden, kindForbidden, "local login is disabled")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	sess, user, err := s.sessions.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.auditLog(r, req.Username, "login_failed", "")
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, user.Username, "login", "")
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      user,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	writeJSON(w, http.StatusOK, p.User)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if err := s.sessions.Revoke(r.Context(), p.Session.Token); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, p.User.Username, "logout", "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	if err := s.sessions.ChangePassword(r.Context(), p, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, p.User.Username, "password_changed", "all sessions revoked")
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed, all sessions revoked"})
}

func (s *Server) auditLog(r *http.Request, username, action, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(r.Context(), username, action, details); err != nil {
		s.logger.Errorf("audit write failed: %v", err)
	}
}
