package rolesync

import "errors"

var (
	ErrNotFound         = errors.New("application not found")
	ErrSyncNotPermitted = errors.New("role sync not permitted for this application")
	ErrAppInactive      = errors.New("application is inactive")
	ErrUnsupported      = errors.New("application type does not support this operation")
	ErrSyncInProgress   = errors.New("role sync already in progress")
	ErrSyncTimeout      = errors.New("role sync timed out")
	ErrAdapterAuth      = errors.New("upstream rejected the stored credentials")
	ErrAdapterNetwork   = errors.New("upstream unreachable")
	ErrAdapterMalformed = errors.New("upstream returned a malformed response")
	ErrUpstream         = errors.New("upstream request failed")
)
