package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"unified-console/core/auth"
	"unified-console/core/catalog"
	"unified-console/core/store"
	"unified-console/core/utils"

	"github.com/go-chi/chi/v5"
)

type createUserRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Email        string   `json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	IsAdmin      bool     `json:"is_admin"`
	IsActive     *bool    `json:"is_active"`
	ModuleAccess []string `json:"module_access"`
	Roles        []string `json:"roles"`
}

// updateUserRequest is a partial update, absent fields keep their
// stored value.
type updateUserRequest struct {
	Email        *string  `json:"email"`
	FirstName    *string  `json:"first_name"`
	LastName     *string  `json:"last_name"`
	IsAdmin      *bool    `json:"is_admin"`
	IsActive     *bool    `json:"is_active"`
	ModuleAccess []string `json:"module_access"`
	Roles        []string `json:"roles"`
}

func validateModuleAccess(modules []string) bool {
	for _, m := range modules {
		if _, err := catalog.ParseModule(m); err != nil {
			return false
		}
	}
	return true
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if user == nil {
		writeErr(w, http.StatusNotFound, kindNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeErr(w, http.StatusBadRequest, kindWeakPassword, err.Error())
		return
	}
	if !validateModuleAccess(req.ModuleAccess) {
		writeErr(w, http.StatusBadRequest, kindValidation, "unknown module in module_access")
		return
	}
	existing, err := s.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if existing != nil {
		writeErr(w, http.StatusConflict, kindConflict, "username already taken")
		return
	}

	ph, err := auth.HashPassword(req.Password, s.cfg.Pepper)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	user := &store.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
		IsAdmin:      req.IsAdmin,
		IsActive:     active,
		ModuleAccess: req.ModuleAccess,
		Roles:        req.Roles,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, principalFrom(r).User.Username, "user_created", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

// handleUpdateUser changes profile and access fields. Username and
// password are immutable through this path.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if user == nil {
		writeErr(w, http.StatusNotFound, kindNotFound, "user not found")
		return
	}
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	if req.ModuleAccess != nil && !validateModuleAccess(req.ModuleAccess) {
		writeErr(w, http.StatusBadRequest, kindValidation, "unknown module in module_access")
		return
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.ModuleAccess != nil {
		user.ModuleAccess = req.ModuleAccess
	}
	if req.Roles != nil {
		user.Roles = req.Roles
	}
	if err := s.users.Update(r.Context(), user); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	// Deactivation locks the account out on the next request, live
	// sessions stop validating.
	if req.IsActive != nil && !*req.IsActive {
		if err := s.sessStore.DeleteAllForUser(r.Context(), user.ID); err != nil {
			s.logger.Errorf("revoking sessions of deactivated user: %v", err)
		}
	}
	s.auditLog(r, principalFrom(r).User.Username, "user_updated", user.Username)
	writeJSON(w, http.StatusOK, user)
}
