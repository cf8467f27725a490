package repository

import (
	"context"

	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia de lotes.
// Los métodos ForUpdate bloquean el lote hasta el fin de la transacción en curso;
// si la espera supera el límite configurado devuelven domain.ErrConflict.
type BatchRepository interface {
	// GetByID devuelve nil, nil si el lote no existe.
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	ListByProductAndBranch(ctx context.Context, productID, branchID string) ([]*entity.Batch, error)
	// ListByBranch con branchID vacío devuelve todos los lotes.
	ListByBranch(ctx context.Context, branchID string) ([]*entity.Batch, error)
	// FindLotForUpdate busca el lote de destino de un traslado (sucursal, producto, lote)
	// y serializa a quienes buscan la misma clave aunque aún no exista.
	FindLotForUpdate(ctx context.Context, branchID, productID, lotCode string) (*entity.Batch, error)
	// Create asigna ID (si viene vacío), LotCode y Version = 1.
	Create(ctx context.Context, batch *entity.Batch) error
	// UpdateQuantity escribe batch.Quantity si la versión almacenada es batch.Version;
	// en caso contrario devuelve domain.ErrConflict. Al éxito incrementa batch.Version.
	UpdateQuantity(ctx context.Context, batch *entity.Batch) error
}
