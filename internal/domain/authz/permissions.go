// Package authz define los roles del sistema y su matriz de capacidades.
package authz

import "strings"

// Role rol de un usuario.
type Role string

const (
	RoleSuperAdmin    Role = "super-admin"
	RoleBranchManager Role = "branch-manager"
	RoleSalesRep      Role = "sales-rep"
)

// Capability acción que un rol puede o no ejecutar.
type Capability string

const (
	ViewAllBranches  Capability = "viewAllBranches"
	ManageBranches   Capability = "manageBranches"
	ViewAllInventory Capability = "viewAllInventory"
	ManageInventory  Capability = "manageInventory"
	ViewAllSales     Capability = "viewAllSales"
	ManageSales      Capability = "manageSales"
	TransferStock    Capability = "transferStock"
	ViewAnalytics    Capability = "viewAnalytics"
	ManageUsers      Capability = "manageUsers"
	ViewReports      Capability = "viewReports"
)

// AllCapabilities en orden estable para respuestas y tests.
var AllCapabilities = []Capability{
	ViewAllBranches, ManageBranches, ViewAllInventory, ManageInventory,
	ViewAllSales, ManageSales, TransferStock, ViewAnalytics, ManageUsers, ViewReports,
}

var matrix = map[Role]map[Capability]bool{
	RoleSuperAdmin: {
		ViewAllBranches: true, ManageBranches: true, ViewAllInventory: true, ManageInventory: true,
		ViewAllSales: true, ManageSales: true, TransferStock: true, ViewAnalytics: true,
		ManageUsers: true, ViewReports: true,
	},
	RoleBranchManager: {
		ManageInventory: true,
	},
	RoleSalesRep: {
		ManageSales: true,
	},
}

// ParseRole normaliza el texto a un Role conocido.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := matrix[r]
	return r, ok
}

// Can indica si el rol tiene la capacidad. Rol desconocido: nunca.
func Can(role Role, c Capability) bool {
	return matrix[role][c]
}

// Capabilities devuelve el mapa completo de capacidades del rol.
func Capabilities(role Role) map[Capability]bool {
	out := make(map[Capability]bool, len(AllCapabilities))
	for _, c := range AllCapabilities {
		out[c] = Can(role, c)
	}
	return out
}

// HasRole indica si role está entre los permitidos.
func HasRole(role Role, allowed ...Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

// MenuItem entrada de navegación visible según el rol.
type MenuItem struct {
	ID    string
	Label string
	Roles []Role
}

var menu = []MenuItem{
	{ID: "dashboard", Label: "Dashboard", Roles: []Role{RoleSuperAdmin, RoleBranchManager, RoleSalesRep}},
	{ID: "inventory", Label: "Inventory", Roles: []Role{RoleSuperAdmin, RoleBranchManager}},
	{ID: "branches", Label: "Branches", Roles: []Role{RoleSuperAdmin}},
	{ID: "sales", Label: "Sales", Roles: []Role{RoleSuperAdmin, RoleBranchManager, RoleSalesRep}},
	{ID: "reports", Label: "Reports", Roles: []Role{RoleSuperAdmin}},
	{ID: "batch-profit", Label: "Batch Profit", Roles: []Role{RoleSuperAdmin, RoleBranchManager}},
}

// MenuFor entradas de menú visibles para el rol.
func MenuFor(role Role) []MenuItem {
	var out []MenuItem
	for _, m := range menu {
		if HasRole(role, m.Roles...) {
			out = append(out, m)
		}
	}
	return out
}

// DefaultView vista inicial tras el login.
func DefaultView(role Role) string {
	if role == RoleSalesRep {
		return "sales"
	}
	return "dashboard"
}

// CanAccessBranch: quien ve todas las sucursales accede a cualquiera; el resto solo a la propia.
func CanAccessBranch(role Role, userBranchID, branchID string) bool {
	if Can(role, ViewAllBranches) {
		return true
	}
	return userBranchID != "" && userBranchID == branchID
}

// ScopeBranch resuelve la sucursal efectiva de una consulta. Para roles acotados a su
// sucursal se fuerza la propia; devuelve false si pidieron otra.
func ScopeBranch(role Role, userBranchID, requested string) (string, bool) {
	if Can(role, ViewAllBranches) {
		return requested, true
	}
	if requested != "" && requested != userBranchID {
		return "", false
	}
	return userBranchID, true
}
