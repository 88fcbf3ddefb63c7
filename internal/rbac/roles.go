package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleSupport = "support" // hidden role for internal operators
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsHiddenRole(role string) bool { return role == RoleSupport }
