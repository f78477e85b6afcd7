package rbac

import "unified-console/core/catalog"

// Capability names one thing a caller may ask to do. Parameterized
// capabilities carry their argument after a colon.
type Capability string

const (
	CapManageApplications Capability = "manage_applications"
	CapManageUsers        Capability = "manage_users"
)

func SyncRoles(appID string) Capability {
	return Capability("sync_roles:" + appID)
}

func ViewModule(m catalog.Module) Capability {
	return Capability("view_module:" + string(m))
}

func LaunchApp(m catalog.Module) Capability {
	return Capability("launch_app:" + string(m))
}
