package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"unified-console/core/auth"
	"unified-console/core/rolesync"
)

// Stable error kinds returned in response bodies. Clients branch on
// kind, the message is for humans.
const (
	kindInvalidCredentials = "invalid_credentials"
	kindUnauthenticated    = "unauthenticated"
	kindForbidden          = "forbidden"
	kindWeakPassword       = "weak_password"
	kindValidation         = "validation_error"
	kindNotFound           = "not_found"
	kindConflict           = "conflict"
	kindSyncNotPermitted   = "sync_not_permitted"
	kindUnsupported        = "unsupported_operation"
	kindSyncInProgress     = "sync_in_progress"
	kindSyncTimeout        = "sync_timeout"
	kindSyncUpstream       = "sync_upstream_failure"
	kindInternal           = "internal"
)

type errBody struct {
	Error errDetail `json:"error"`
}

type errDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeErr(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errBody{Error: errDetail{Kind: kind, Message: message}})
}

// writeDomainErr maps sentinel errors from the core packages onto the
// HTTP surface.
func (s *Server) writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErr(w, http.StatusUnauthorized, kindInvalidCredentials, "invalid credentials")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeErr(w, http.StatusUnauthorized, kindUnauthenticated, "authentication required")
	case errors.Is(err, auth.ErrWeakPassword):
		writeErr(w, http.StatusBadRequest, kindWeakPassword, "password does not meet requirements")
	case errors.Is(err, rolesync.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		writeErr(w, http.StatusNotFound, kindNotFound, "not found")
	case errors.Is(err, rolesync.ErrSyncNotPermitted):
		writeErr(w, http.StatusConflict, kindSyncNotPermitted, "role sync is not permitted for this application")
	case errors.Is(err, rolesync.ErrAppInactive):
		writeErr(w, http.StatusConflict, kindConflict, "application is inactive")
	case errors.Is(err, rolesync.ErrUnsupported):
		writeErr(w, http.StatusConflict, kindUnsupported, "application type does not support this operation")
	case errors.Is(err, rolesync.ErrSyncInProgress):
		writeErr(w, http.StatusConflict, kindSyncInProgress, "role sync already in progress")
	case errors.Is(err, rolesync.ErrSyncTimeout):
		writeErr(w, http.StatusGatewayTimeout, kindSyncTimeout, "role sync timed out")
	case errors.Is(err, rolesync.ErrAdapterAuth),
		errors.Is(err, rolesync.ErrAdapterNetwork),
		errors.Is(err, rolesync.ErrAdapterMalformed),
		errors.Is(err, rolesync.ErrUpstream):
		writeErr(w, http.StatusBadGateway, kindSyncUpstream, "upstream application request failed")
	default:
		s.logger.Errorf("internal error: %v", err)
		writeErr(w, http.StatusInternalServerError, kindInternal, "internal error")
	}
}
