package domain

// RoleAdmin is the role id the identity provider assigns to administrators.
const RoleAdmin = 1

// CallerContext identifies the already-authenticated caller of a core
// operation. Authentication happens upstream; the core only distinguishes
// owner and administrator call paths.
type CallerContext struct {
	UserID string
	RoleID int
}

func (c CallerContext) IsAdmin() bool {
	return c.RoleID == RoleAdmin
}
