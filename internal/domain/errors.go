package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("el stock cambió, intente de nuevo")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// ValidationError error de un campo concreto del formulario. Envuelve ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un error de validación para un campo.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// FieldErrors agrupa errores por campo (formularios que reportan todo en una pasada).
type FieldErrors map[string]string

// Add registra el primer error de un campo; los siguientes del mismo campo se ignoran.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// Err devuelve nil si no hay errores.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError la cantidad pedida supera la del lote. Envuelve ErrInsufficientStock.
type InsufficientStockError struct {
	BatchID   string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en el lote %s. Disponible: %d", e.BatchID, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StockChanged marca un error de stock detectado al confirmar (después de validar):
// el llamador debe refrescar y reintentar. errors.Is reconoce ErrConflict y la causa.
func StockChanged(cause error) error {
	return fmt.Errorf("%w: %w", ErrConflict, cause)
}
