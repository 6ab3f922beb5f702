package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermUsersDelete))
	assert.True(t, HasPermission(RoleManager, PermCovidPeopleCreate))
	assert.True(t, HasPermission(RoleUser, PermOrdersCreate))

	assert.False(t, HasPermission(RoleManager, PermUsersCreate))
	assert.False(t, HasPermission(RoleUser, PermProductsCreate))
	assert.False(t, HasPermission("ghost", PermOrdersView))
}

func TestHasAllAndAnyPermissions(t *testing.T) {
	wanted := []Permission{PermPackagesView, PermOrdersCreate}

	assert.True(t, HasAllPermissions(RoleUser, wanted))
	assert.False(t, HasAllPermissions(RoleManager, wanted))
	assert.True(t, HasAnyPermission(RoleManager, wanted))
	assert.False(t, HasAnyPermission("ghost", wanted))
}

func TestRolePermissionsAdminHasEverything(t *testing.T) {
	admin := RolePermissions(RoleAdmin)
	for _, p := range RolePermissions(RoleManager) {
		assert.Contains(t, admin, p)
	}
	for _, p := range RolePermissions(RoleUser) {
		assert.Contains(t, admin, p)
	}
}
