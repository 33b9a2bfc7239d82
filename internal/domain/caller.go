package domain

// Caller identifies who is invoking an operation. The zero value is an
// anonymous caller with no role.
type Caller struct {
	UserID   int64
	Username string
	Role     string
}

// Anonymous returns a caller with no identity.
func Anonymous() Caller {
	return Caller{}
}

// IsAdmin reports whether the caller holds the admin role. The comparison is
// case-sensitive.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
