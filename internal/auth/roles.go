package auth

// Role represents a back-office user role.
type Role string

const (
	RoleCashier    Role = "cashier"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleCashier, RoleSupervisor, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

// CanApprove reports whether the role carries approval authority over
// account entries and settlement verification.
func CanApprove(role Role) bool {
	return RoleAtLeast(role, RoleSupervisor)
}

func roleRank(role Role) int {
	switch role {
	case RoleCashier:
		return 1
	case RoleSupervisor:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
