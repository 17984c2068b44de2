package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
)

func TestIsOrganizationOwner(t *testing.T) {
	owner := domain.Identity{ID: 100, Username: "owner"}
	admin := domain.Identity{ID: 1, Username: "root", IsAdmin: true}
	stranger := domain.Identity{ID: 555, Username: "stranger"}

	assert.True(t, IsOrganizationOwner(owner, 100))
	assert.False(t, IsOrganizationOwner(stranger, 100))
	// Admin status alone is not ownership.
	assert.False(t, IsOrganizationOwner(admin, 100))
}

func TestCanManageOrganizationProducts(t *testing.T) {
	owner := domain.Identity{ID: 100, Username: "owner"}
	admin := domain.Identity{ID: 1, Username: "root", IsAdmin: true}
	stranger := domain.Identity{ID: 555, Username: "stranger"}

	assert.True(t, CanManageOrganizationProducts(owner, 100))
	assert.True(t, CanManageOrganizationProducts(admin, 100))
	assert.False(t, CanManageOrganizationProducts(stranger, 100))
}
