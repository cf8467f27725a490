package entity

import "time"

// Estados de una sucursal.
const (
	BranchStatusActive      = "active"
	BranchStatusPending     = "pending" // recién creada, aún sin operar
	BranchStatusMaintenance = "maintenance"
	BranchStatusInactive    = "inactive"
)

// Branch representa una sucursal física: partición del inventario por lotes.
type Branch struct {
	ID              string
	Name            string
	Code            string // BR-001, único sin distinguir mayúsculas
	Location        string
	Address         string
	Manager         string
	Phone           string
	Email           string
	EstablishedDate time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
