package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
)

func TestMatrix(t *testing.T) {
	cases := []struct {
		name    string
		role    models.UserRole
		action  Action
		allowed bool
	}{
		{"sekretaris writes letters", models.RoleSekretaris, ActionLetterWrite, true},
		{"bendahara cannot write letters", models.RoleBendahara, ActionLetterWrite, false},
		{"anggota cannot write letters", models.RoleAnggota, ActionLetterWrite, false},
		{"ketua approves letters", models.RoleKetua, ActionLetterApprove, true},
		{"sekretaris cannot approve letters", models.RoleSekretaris, ActionLetterApprove, false},
		{"only master admin deletes processed letters", models.RoleKetua, ActionLetterDeleteAny, false},
		{"master admin deletes processed letters", models.RoleMasterAdmin, ActionLetterDeleteAny, true},
		{"bendahara writes reports", models.RoleBendahara, ActionReportWrite, true},
		{"sekretaris cannot write reports", models.RoleSekretaris, ActionReportWrite, false},
		{"bendahara cannot approve reports", models.RoleBendahara, ActionReportApprove, false},
		{"master admin approves reports", models.RoleMasterAdmin, ActionReportApprove, true},
		{"only master admin manages contact messages", models.RoleKetua, ActionContactManage, false},
		{"master admin manages contact messages", models.RoleMasterAdmin, ActionContactManage, true},
		{"unknown action denied", models.RoleMasterAdmin, Action("nope"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, Can(tc.role, tc.action))
		})
	}
}

func TestRequireReturnsForbidden(t *testing.T) {
	err := Require(models.RoleAnggota, ActionLetterWrite)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	assert.NoError(t, Require(models.RoleKetua, ActionLetterWrite))
}

func TestCanDeleteApprovedReport(t *testing.T) {
	assert.False(t, CanDeleteApprovedReport(models.RoleBendahara))
	assert.True(t, CanDeleteApprovedReport(models.RoleMasterAdmin))
	assert.True(t, CanDeleteApprovedReport(models.RoleAnggota))
}
