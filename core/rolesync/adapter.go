package rolesync

import (
	"context"

	"unified-console/core/store"
)

// ExternalRole is a role as reported by an integrated application.
type ExternalRole struct {
	ExternalID  string
	Name        string
	Description string
	Permissions []string
}

// Credentials are the decrypted secrets of an application, handed to
// an adapter for the duration of one sync run only.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// RoleLister fetches the current role list from an external system.
// Implementations must honor ctx cancellation.
type RoleLister interface {
	ListRoles(ctx context.Context, app *store.Application, creds Credentials) ([]ExternalRole, error)
}

// ExternalUser is an account inside an integrated application.
type ExternalUser struct {
	ExternalID int    `json:"external_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	IsActive   bool   `json:"is_active"`
}

// NewExternalUser describes an account to provision in an integrated
// application. Password may be empty when the upstream generates one.
type NewExternalUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// UserDirectory manages accounts inside an external system. Adapters
// implement it in addition to RoleLister when the upstream API exposes
// user provisioning.
type UserDirectory interface {
	ListUsers(ctx context.Context, app *store.Application, creds Credentials) ([]ExternalUser, error)
	CreateUser(ctx context.Context, app *store.Application, creds Credentials, nu NewExternalUser) (*ExternalUser, error)
	AssignRole(ctx context.Context, app *store.Application, creds Credentials, userID int, roleExternalID string) error
}
