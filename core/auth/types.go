package auth

import (
	"unified-console/core/store"
)

type contextKey string

// SessionContextKey carries the *Principal attached by the bearer middleware.
const SessionContextKey contextKey = "session"

// Principal is an authenticated caller: the session plus the user it binds.
type Principal struct {
	User    *store.User
	Session *store.SessionRecord
}
