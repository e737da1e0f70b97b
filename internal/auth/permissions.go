package auth

type StaffPermission string

const (
	PermTables   StaffPermission = "tables"
	PermOrders   StaffPermission = "orders"
	PermKitchen  StaffPermission = "kitchen"
	PermBilling  StaffPermission = "billing"
	PermPayments StaffPermission = "payments"
	PermVoid     StaffPermission = "void"
)

var rolePermissions = map[StaffRole][]StaffPermission{
	RoleAdmin:   {PermTables, PermOrders, PermKitchen, PermBilling, PermPayments, PermVoid},
	RoleManager: {PermTables, PermOrders, PermKitchen, PermBilling, PermPayments, PermVoid},
	RoleCaptain: {PermTables, PermOrders, PermKitchen, PermBilling},
	RoleCashier: {PermTables, PermOrders, PermBilling, PermPayments},
	RoleKitchen: {PermKitchen},
}

// Allows reports whether role carries perm.
func Allows(role StaffRole, perm StaffPermission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

func Permissions(role StaffRole) []string {
	perms := rolePermissions[role]
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
