package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"unified-console/core/store"
)

type createRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	AppType     string   `json:"app_type"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roles.List(r.Context())
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// handleCreateRole creates a manual role. Manual roles are never
// overwritten by sync runs.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, kindValidation, "name is required")
		return
	}
	existing, err := s.roles.FindByName(r.Context(), req.Name, req.AppType)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if existing != nil {
		writeErr(w, http.StatusConflict, kindConflict, "role already exists")
		return
	}
	role := &store.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		AppType:     req.AppType,
		IsSynced:    false,
	}
	if err := s.roles.Create(r.Context(), role); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, principalFrom(r).User.Username, "role_created", role.Name)
	writeJSON(w, http.StatusCreated, role)
}
