package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"unified-console/core/rolesync"

	"github.com/go-chi/chi/v5"
)

type createExternalUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	RoleID    string `json:"role_id"`
}

type assignExternalRoleRequest struct {
	RoleID string `json:"role_id"`
}

// handleListExternalUsers proxies the account list of an integrated
// application, DefectDojo being the first upstream that supports it.
func (s *Server) handleListExternalUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.ListExternalUsers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if users == nil {
		users = []rolesync.ExternalUser{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateExternalUser(w http.ResponseWriter, r *http.Request) {
	var req createExternalUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeErr(w, http.StatusBadRequest, kindValidation, "username is required")
		return
	}
	p := principalFrom(r)
	appID := chi.URLParam(r, "id")
	created, err := s.engine.CreateExternalUser(r.Context(), appID, p.User.Username, rolesync.NewExternalUser{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if req.RoleID != "" {
		if err := s.engine.AssignExternalRole(r.Context(), appID, p.User.Username, created.ExternalID, req.RoleID); err != nil {
			s.writeDomainErr(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAssignExternalRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "user id must be numeric")
		return
	}
	var req assignExternalRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	if req.RoleID == "" {
		writeErr(w, http.StatusBadRequest, kindValidation, "role_id is required")
		return
	}
	p := principalFrom(r)
	if err := s.engine.AssignExternalRole(r.Context(), chi.URLParam(r, "id"), p.User.Username, userID, req.RoleID); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}
