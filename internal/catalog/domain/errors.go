package domain

import (
	"errors"
	"fmt"
)

// Business-rule failures are terminal and non-retryable. The boundary maps
// each to a distinct response; infrastructure faults are wrapped separately
// and must never be translated into one of these.
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrRequestNotFound      = errors.New("product creation request not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrOrganizationFrozen   = errors.New("organization is frozen")
	ErrOrganizationDeleted  = errors.New("organization is deleted")
	ErrProductNameConflict  = errors.New("product with this name already exists")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidProduct       = errors.New("invalid product fields")
	ErrInvalidDiscount      = errors.New("invalid discount")
)

// InvalidOwnerError carries which organization the caller failed the
// ownership check against, since edit can involve two different owners.
type InvalidOwnerError struct {
	OrganizationID int64
	OwnerID        int64
	CallerID       int64
}

func (e *InvalidOwnerError) Error() string {
	return fmt.Sprintf("user %d is not the owner (%d) of organization %d", e.CallerID, e.OwnerID, e.OrganizationID)
}

func IsInvalidOwner(err error) bool {
	var ioe *InvalidOwnerError
	return errors.As(err, &ioe)
}
