package service

import (
	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
)

// Authorization policy, kept as plain functions so it can be tested without
// storage or transport.

// IsOrganizationOwner reports whether the caller is the registered owner of
// the organization. Admin identities do NOT pass this check: submitting a
// creation request is reserved for the owner personally.
func IsOrganizationOwner(identity domain.Identity, ownerID int64) bool {
	return identity.ID == ownerID
}

// CanManageOrganizationProducts reports whether the caller may edit or delete
// products owned by the organization: its registered owner, or any admin.
func CanManageOrganizationProducts(identity domain.Identity, ownerID int64) bool {
	return identity.IsAdmin || identity.ID == ownerID
}
