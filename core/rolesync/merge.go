package rolesync

import (
	"strings"
	"time"

	"unified-console/core/store"
)

// MergePlan is the outcome of comparing external roles against the
// local role table for one application type.
type MergePlan struct {
	Inserts []store.Role
	Updates []store.Role
	Skipped []string
}

// PlanMerge decides what a sync run does with each external role.
// Synced roles are refreshed, manually created roles with the same
// name are left alone, unknown roles are inserted. Local synced roles
// absent upstream are never touched, let alone deleted.
func PlanMerge(existing []store.Role, appType string, external []ExternalRole) MergePlan {
	byName := make(map[string]*store.Role, len(existing))
	for i := range existing {
		r := &existing[i]
		if r.AppType == appType {
			byName[strings.ToLower(r.Name)] = r
		}
	}

	var plan MergePlan
	seen := make(map[string]bool, len(external))
	now := time.Now().UTC()
	for _, ext := range external {
		key := strings.ToLower(strings.TrimSpace(ext.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		local, ok := byName[key]
		if !ok {
			plan.Inserts = append(plan.Inserts, store.Role{
				Name:        strings.TrimSpace(ext.Name),
				Description: ext.Description,
				Permissions: ext.Permissions,
				AppType:     appType,
				ExternalID:  ext.ExternalID,
				IsSynced:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			continue
		}
		if !local.IsSynced {
			// Manual role shadows the external one.
			plan.Skipped = append(plan.Skipped, local.Name)
			continue
		}
		upd := *local
		upd.Description = ext.Description
		upd.Permissions = ext.Permissions
		upd.ExternalID = ext.ExternalID
		upd.UpdatedAt = now
		plan.Updates = append(plan.Updates, upd)
	}
	return plan
}
