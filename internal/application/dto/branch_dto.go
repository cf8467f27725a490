package dto

import "time"

// CreateBranchRequest body para POST /api/branches. Todos los campos son obligatorios.
type CreateBranchRequest struct {
	Name            string     `json:"name" validate:"required,max=200"`
	Code            string     `json:"code" validate:"required,max=32"`
	Location        string     `json:"location" validate:"required"`
	Address         string     `json:"address" validate:"required"`
	Manager         string     `json:"manager" validate:"required"`
	Phone           string     `json:"phone" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	EstablishedDate *time.Time `json:"established_date" validate:"required"`
}

// BranchResponse sucursal en respuestas.
type BranchResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Code            string    `json:"code"`
	Location        string    `json:"location"`
	Address         string    `json:"address"`
	Manager         string    `json:"manager"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	EstablishedDate time.Time `json:"established_date"`
	Status          string    `json:"status"`
}
