package rbac

import (
	"strings"

	"unified-console/core/store"
)

// Allowed answers an access question for a user. Pure and total: it
// returns an answer for any user and capability, consults nothing but
// its arguments, and unknown capabilities are denied.
func Allowed(u *store.User, cap Capability) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsAdmin {
		return true
	}
	name, arg := split(cap)
	switch name {
	case "manage_applications", "manage_users", "sync_roles":
		// Administrative capabilities, admins only.
		return false
	case "view_module", "launch_app":
		return hasModule(u, arg)
	default:
		return false
	}
}

func split(cap Capability) (string, string) {
	s := string(cap)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func hasModule(u *store.User, module string) bool {
	if module == "" {
		return false
	}
	for _, m := range u.ModuleAccess {
		if m == module {
			return true
		}
	}
	return false
}
