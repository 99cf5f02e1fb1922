package domain

import "time"

// Role is the coarse authorization tag carried in access tokens.
type Role string

const (
	RoleArtist    Role = "artist"
	RoleShopOwner Role = "shop_owner"
	RoleModerator Role = "moderator"
	RoleCustomer  Role = "customer"
)

// Roles lists the closed set of marketplace roles.
func Roles() []Role {
	return []Role{RoleArtist, RoleShopOwner, RoleModerator, RoleCustomer}
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleArtist, RoleShopOwner, RoleModerator, RoleCustomer:
		return true
	}
	return false
}

// SelfRegistrable reports whether accounts with this role may sign up on their own.
func (r Role) SelfRegistrable() bool {
	return r.Valid() && r != RoleModerator
}

// Token is the decoded metadata of an issued access token.
type Token struct {
	ID        string
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
