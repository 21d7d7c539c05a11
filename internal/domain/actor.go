package domain

// Actor is the authenticated identity invoking an operation.
type Actor struct {
	Email string
	Name  string
	Role  Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
