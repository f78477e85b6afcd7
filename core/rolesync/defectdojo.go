package rolesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"unified-console/core/catalog"
	"unified-console/core/netguard"
	"unified-console/core/store"
)

// DefectDojoAdapter lists roles from a DefectDojo instance over its
// v2 REST API using token authentication.
type DefectDojoAdapter struct {
	client *http.Client
	policy netguard.Policy
}

func NewDefectDojoAdapter(client *http.Client, policy netguard.Policy) *DefectDojoAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &DefectDojoAdapter{client: client, policy: policy}
}

type dojoRole struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type dojoRolesPage struct {
	Next    *string    `json:"next"`
	Results []dojoRole `json:"results"`
}

func (a *DefectDojoAdapter) ListRoles(ctx context.Context, app *store.Application, creds Credentials) ([]ExternalRole, error) {
	base, err := apiBase(app)
	if err != nil {
		return nil, err
	}
	if err := netguard.CheckUpstreamURL(ctx, base, a.policy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	next := base + "/api/v2/roles/"
	var out []ExternalRole
	for next != "" {
		var page dojoRolesPage
		if err := a.doJSON(ctx, http.MethodGet, next, creds.APIKey, nil, &page); err != nil {
			return nil, err
		}
		for _, r := range page.Results {
			name := strings.TrimSpace(r.Name)
			if name == "" {
				continue
			}
			out = append(out, ExternalRole{
				ExternalID:  strconv.Itoa(r.ID),
				Name:        name,
				Description: "Synchronized from DefectDojo",
			})
		}
		if page.Next == nil || *page.Next == "" {
			break
		}
		next = *page.Next
	}
	return out, nil
}

type dojoUser struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
}

type dojoUsersPage struct {
	Next    *string    `json:"next"`
	Results []dojoUser `json:"results"`
}

func (a *DefectDojoAdapter) ListUsers(ctx context.Context, app *store.Application, creds Credentials) ([]ExternalUser, error) {
	base, err := apiBase(app)
	if err != nil {
		return nil, err
	}
	if err := netguard.CheckUpstreamURL(ctx, base, a.policy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	next := base + "/api/v2/users/"
	var out []ExternalUser
	for next != "" {
		var page dojoUsersPage
		if err := a.doJSON(ctx, http.MethodGet, next, creds.APIKey, nil, &page); err != nil {
			return nil, err
		}
		for _, u := range page.Results {
			out = append(out, externalUser(u))
		}
		if page.Next == nil || *page.Next == "" {
			break
		}
		next = *page.Next
	}
	return out, nil
}

func (a *DefectDojoAdapter) CreateUser(ctx context.Context, app *store.Application, creds Credentials, nu NewExternalUser) (*ExternalUser, error) {
	base, err := apiBase(app)
	if err != nil {
		return nil, err
	}
	if err := netguard.CheckUpstreamURL(ctx, base, a.policy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	body := map[string]string{
		"username":   nu.Username,
		"email":      nu.Email,
		"first_name": nu.FirstName,
		"last_name":  nu.LastName,
	}
	if nu.Password != "" {
		body["password"] = nu.Password
	}
	var created dojoUser
	if err := a.doJSON(ctx, http.MethodPost, base+"/api/v2/users/", creds.APIKey, body, &created); err != nil {
		return nil, err
	}
	u := externalUser(created)
	return &u, nil
}

// AssignRole grants a DefectDojo global role to an upstream account.
func (a *DefectDojoAdapter) AssignRole(ctx context.Context, app *store.Application, creds Credentials, userID int, roleExternalID string) error {
	base, err := apiBase(app)
	if err != nil {
		return err
	}
	if err := netguard.CheckUpstreamURL(ctx, base, a.policy); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	roleID, err := strconv.Atoi(roleExternalID)
	if err != nil {
		return fmt.Errorf("%w: non-numeric role id %q", ErrUpstream, roleExternalID)
	}
	body := map[string]int{"user": userID, "role": roleID}
	return a.doJSON(ctx, http.MethodPost, base+"/api/v2/global_roles/", creds.APIKey, body, nil)
}

// doJSON performs one authenticated API call. out may be nil when the
// response body is not needed.
func (a *DefectDojoAdapter) doJSON(ctx context.Context, method, u, apiKey string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrAdapterNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAdapterAuth
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrAdapterMalformed, err)
	}
	return nil
}

func externalUser(u dojoUser) ExternalUser {
	return ExternalUser{
		ExternalID: u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
	}
}

func apiBase(app *store.Application) (string, error) {
	raw := strings.TrimSpace(app.RedirectURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: bad application URL", ErrUpstream)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host, "/"), nil
}

// AdapterFor returns the adapter for an application type, or nil when
// the type has no role source.
func AdapterFor(appType string, client *http.Client, policy netguard.Policy) RoleLister {
	switch appType {
	case string(catalog.AppTypeDefectDojo):
		return NewDefectDojoAdapter(client, policy)
	default:
		return nil
	}
}
