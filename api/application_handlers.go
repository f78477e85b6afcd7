package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"unified-console/core/catalog"
	"unified-console/core/rbac"
	"unified-console/core/store"
	"unified-console/core/utils"

	"github.com/go-chi/chi/v5"
)

type applicationRequest struct {
	AppName     string `json:"app_name"`
	AppType     string `json:"app_type"`
	Module      string `json:"module"`
	RedirectURL string `json:"redirect_url"`
	Description string `json:"description"`
	IP          string `json:"ip"`
	DefaultPort int    `json:"default_port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	APIKey      string `json:"api_key"`
	SyncRoles   bool   `json:"sync_roles"`
	IsActive    *bool  `json:"is_active"`
}

func (req *applicationRequest) validate() (string, bool) {
	if strings.TrimSpace(req.AppName) == "" {
		return "app_name is required", false
	}
	if _, err := catalog.ParseModule(req.Module); err != nil {
		return "module must be one of XDR, XDR+, OXDR, GSOS", false
	}
	if _, err := catalog.ParseAppType(req.AppType); err != nil {
		return "unknown app_type", false
	}
	if err := utils.ValidateRedirectURL(req.RedirectURL); err != nil {
		return "redirect_url must be an absolute http(s) URL", false
	}
	return "", true
}

func (s *Server) applyApplicationRequest(app *store.Application, req *applicationRequest) error {
	app.AppName = strings.TrimSpace(req.AppName)
	app.AppType = req.AppType
	app.Module = req.Module
	app.RedirectURL = req.RedirectURL
	app.Description = req.Description
	app.IP = req.IP
	app.DefaultPort = req.DefaultPort
	app.Username = req.Username
	app.SyncRoles = req.SyncRoles
	if req.IsActive != nil {
		app.IsActive = *req.IsActive
	}
	// Secrets are only replaced when the request carries new ones.
	if req.Password != "" {
		blob, err := s.encryptor.EncryptToBlob([]byte(req.Password))
		if err != nil {
			return err
		}
		app.PasswordEnc = blob
	}
	if req.APIKey != "" {
		blob, err := s.encryptor.EncryptToBlob([]byte(req.APIKey))
		if err != nil {
			return err
		}
		app.APIKeyEnc = blob
	}
	app.HasPassword = len(app.PasswordEnc) > 0
	app.HasAPIKey = len(app.APIKeyEnc) > 0
	return nil
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	apps, err := s.apps.List(r.Context())
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if !p.User.IsAdmin {
		apps = filterByModules(apps, p.User.ModuleAccess)
	}
	writeJSON(w, http.StatusOK, apps)
}

func filterByModules(apps []store.Application, modules []string) []store.Application {
	allowed := make(map[string]bool, len(modules))
	for _, m := range modules {
		allowed[m] = true
	}
	out := apps[:0]
	for _, a := range apps {
		if allowed[a.Module] {
			out = append(out, a)
		}
	}
	return out
}

func (s *Server) handleApplicationsByModule(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	if _, err := catalog.ParseModule(module); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "unknown module")
		return
	}
	p := principalFrom(r)
	if !rbac.Allowed(p.User, rbac.ViewModule(catalog.Module(module))) {
		writeErr(w, http.StatusForbidden, kindForbidden, "access denied")
		return
	}
	apps, err := s.apps.ListByModule(r.Context(), module)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if app == nil {
		writeErr(w, http.StatusNotFound, kindNotFound, "application not found")
		return
	}
	p := principalFrom(r)
	if !rbac.Allowed(p.User, rbac.ViewModule(catalog.Module(app.Module))) {
		writeErr(w, http.StatusForbidden, kindForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		writeErr(w, http.StatusBadRequest, kindValidation, msg)
		return
	}
	app := &store.Application{IsActive: true}
	if err := s.applyApplicationRequest(app, &req); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if err := s.apps.Create(r.Context(), app); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, principalFrom(r).User.Username, "application_created", app.AppName)
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if app == nil {
		writeErr(w, http.StatusNotFound, kindNotFound, "application not found")
		return
	}
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, kindValidation, "malformed request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		writeErr(w, http.StatusBadRequest, kindValidation, msg)
		return
	}
	if err := s.applyApplicationRequest(app, &req); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if err := s.apps.Update(r.Context(), app); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, principalFrom(r).User.Username, "application_updated", app.AppName)
	writeJSON(w, http.StatusOK, app)
}

// handleDeleteApplication removes the registration only. Users keep
// their module access and synced roles stay in the catalogue.
func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.apps.Delete(r.Context(), id); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	s.auditLog(r, principalFrom(r).User.Username, "application_deleted", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLaunchApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	if app == nil {
		writeErr(w, http.StatusNotFound, kindNotFound, "application not found")
		return
	}
	p := principalFrom(r)
	if !rbac.Allowed(p.User, rbac.LaunchApp(catalog.Module(app.Module))) {
		writeErr(w, http.StatusForbidden, kindForbidden, "access denied")
		return
	}
	s.auditLog(r, p.User.Username, "application_launched", app.AppName)
	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": app.RedirectURL})
}

func (s *Server) handleSyncRoles(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	res, err := s.engine.Sync(r.Context(), chi.URLParam(r, "id"), p.User.Username)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
