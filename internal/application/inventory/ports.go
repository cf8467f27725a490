package inventory

import (
	"context"

	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se descartan todas las escrituras y se liberan los bloqueos tomados.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		batchRepo repository.BatchRepository,
		productRepo repository.ProductRepository,
	) error) error
}
