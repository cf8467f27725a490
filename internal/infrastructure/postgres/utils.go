package postgres

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// mapError traduce errores de PostgreSQL a errores de dominio; el resto se envuelve con op.
func mapError(op string, err error) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrInsufficientStock)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// batchSeqOf extrae la secuencia de un ID BTH-<año>-<seq>; 0 si no tiene ese formato.
func batchSeqOf(id string) int64 {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
