package entity

import "time"

// Estados de una solicitud de traslado. El formulario vive en el cliente.
// validated -> awaiting_confirmation -> committing -> committed | failed
const (
	TransferStateValidated            = "validated"
	TransferStateAwaitingConfirmation = "awaiting_confirmation"
	TransferStateCommitting           = "committing"
	TransferStateCommitted            = "committed"
	TransferStateFailed               = "failed"
)

// TransferRequest movimiento de una cantidad de un lote entre dos sucursales.
type TransferRequest struct {
	SourceBranchID      string
	DestinationBranchID string
	ProductID           string
	BatchID             string
	Quantity            int64
}

// TransferResult efecto de un traslado confirmado sobre el libro de lotes.
type TransferResult struct {
	SourceBatchID      string
	SourceQuantity     int64 // cantidad del lote origen tras el débito
	DestinationBatchID string
	DestinationQty     int64 // cantidad del lote destino tras el crédito
	Merged             bool  // true si se sumó a un lote existente
}

// TransferDraft solicitud de traslado en curso. Solo Confirm muta el libro.
type TransferDraft struct {
	ID          string
	Request     TransferRequest
	State       string
	FieldErrors map[string]string
	Failure     string
	Result      *TransferResult
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone copia el borrador para devolverlo fuera del procesador.
func (d *TransferDraft) Clone() *TransferDraft {
	if d == nil {
		return nil
	}
	c := *d
	if d.FieldErrors != nil {
		c.FieldErrors = make(map[string]string, len(d.FieldErrors))
		for k, v := range d.FieldErrors {
			c.FieldErrors[k] = v
		}
	}
	if d.Result != nil {
		r := *d.Result
		c.Result = &r
	}
	return &c
}
