package store

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"is_active"`
	ModuleAccess []string  `json:"module_access"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SessionRecord struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasPassword and HasAPIKey report whether an encrypted credential is
// stored, without ever exposing the ciphertext.
type Application struct {
	ID           string     `json:"id"`
	AppName      string     `json:"app_name"`
	AppType      string     `json:"app_type"`
	Module       string     `json:"module"`
	RedirectURL  string     `json:"redirect_url"`
	Description  string     `json:"description"`
	IP           string     `json:"ip"`
	DefaultPort  int        `json:"default_port"`
	Username     string     `json:"username"`
	PasswordEnc  []byte     `json:"-"`
	APIKeyEnc    []byte     `json:"-"`
	HasPassword  bool       `json:"has_password"`
	HasAPIKey    bool       `json:"has_api_key"`
	SyncRoles    bool       `json:"sync_roles"`
	IsActive     bool       `json:"is_active"`
	LastRoleSync *time.Time `json:"last_role_sync"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	// Empty AppType means a system role that belongs to the console itself.
	AppType    string    `json:"app_type,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	IsSynced   bool      `json:"is_synced"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type DashboardStats struct {
	TotalApplications int            `json:"total_applications"`
	TotalUsers        int            `json:"total_users"`
	TotalRoles        int            `json:"total_roles"`
	ActiveSessions    int            `json:"active_sessions"`
	ModuleStats       map[string]int `json:"module_stats"`
	LastRoleSync      *time.Time     `json:"last_role_sync"`
}
