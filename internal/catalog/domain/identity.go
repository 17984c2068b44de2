package domain

// Identity is the verified claim the boundary extracts from the caller's
// token. Token issuance and signature verification happen upstream; the
// service only consumes the result.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	// IsService marks internal service-to-service callers, which are allowed
	// to reserve and return stock but are distinct from admin end users.
	IsService bool `json:"is_service"`
}

// Organization is the lookup result from the organization registry.
type Organization struct {
	ID        int64 `json:"id"`
	OwnerID   int64 `json:"owner_id"`
	IsFrozen  bool  `json:"is_frozen"`
	IsDeleted bool  `json:"is_deleted"`
}
