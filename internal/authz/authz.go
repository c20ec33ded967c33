package authz

import (
	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
)

// Action enumerates the role-gated operations of the document workflow and
// notification core.
type Action string

const (
	ActionLetterWrite         Action = "letter:write"
	ActionLetterApprove       Action = "letter:approve"
	ActionLetterEditProcessed Action = "letter:edit-processed"
	ActionLetterDeleteAny     Action = "letter:delete-any"
	ActionReportWrite         Action = "report:write"
	ActionReportApprove       Action = "report:approve"
	ActionContactManage       Action = "contact:manage"
)

// matrix is the single declarative role → permitted-action table. Every
// permission check in the codebase goes through it.
var matrix = map[Action]map[models.UserRole]struct{}{
	ActionLetterWrite:         roles(models.RoleMasterAdmin, models.RoleSekretaris, models.RoleKetua),
	ActionLetterApprove:       roles(models.RoleMasterAdmin, models.RoleKetua),
	ActionLetterEditProcessed: roles(models.RoleMasterAdmin, models.RoleKetua),
	ActionLetterDeleteAny:     roles(models.RoleMasterAdmin),
	ActionReportWrite:         roles(models.RoleMasterAdmin, models.RoleBendahara, models.RoleKetua),
	ActionReportApprove:       roles(models.RoleMasterAdmin, models.RoleKetua),
	ActionContactManage:       roles(models.RoleMasterAdmin),
}

func roles(rs ...models.UserRole) map[models.UserRole]struct{} {
	set := make(map[models.UserRole]struct{}, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

// Can reports whether role may perform action.
func Can(role models.UserRole, action Action) bool {
	allowed, ok := matrix[action]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// Require returns ErrForbidden when role may not perform action. It
// performs no mutation and no partial side effect.
func Require(role models.UserRole, action Action) error {
	if !Can(role, action) {
		return appErrors.Clone(appErrors.ErrForbidden, "role "+string(role)+" may not perform "+string(action))
	}
	return nil
}

// CanDeleteApprovedReport applies the one negative rule in the matrix:
// anyone except BENDAHARA may delete an approved accountability report.
func CanDeleteApprovedReport(role models.UserRole) bool {
	return role != models.RoleBendahara
}
