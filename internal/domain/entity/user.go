package entity

import "time"

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema. BranchID vacío solo para super-admin.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // bcrypt hash
	Role         string // ver authz.Role
	BranchID     string
	Status       string
	CreatedAt    time.Time
}
