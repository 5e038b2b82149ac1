package auth

import "digital-storefront/internal/model"

// Caller is the authenticated identity behind a request. The zero value is an
// anonymous caller.
type Caller struct {
	AccountID string
	Role      model.Role
}

var Anonymous = Caller{}

func (c Caller) IsAnonymous() bool {
	return c.AccountID == ""
}

func (c Caller) IsAdmin() bool {
	return c.AccountID != "" && c.Role == model.RoleAdmin
}

// Owns reports whether the caller is the account identified by accountID.
func (c Caller) Owns(accountID string) bool {
	return c.AccountID != "" && c.AccountID == accountID
}
