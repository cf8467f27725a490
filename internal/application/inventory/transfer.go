package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// TransferProcessor mueve cantidad de un lote entre sucursales.
// Prepare valida sin tocar el libro; Confirm es el único paso que escribe.
type TransferProcessor struct {
	txRunner    TxRunner
	ledger      *Ledger
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	ttl         time.Duration
	log         zerolog.Logger
	now         func() time.Time

	mu     sync.Mutex
	drafts map[string]*entity.TransferDraft
}

// NewTransferProcessor construye el procesador. ttl es la vida de un borrador sin confirmar.
func NewTransferProcessor(
	txRunner TxRunner,
	ledger *Ledger,
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	ttl time.Duration,
	log zerolog.Logger,
) *TransferProcessor {
	return &TransferProcessor{
		txRunner:    txRunner,
		ledger:      ledger,
		batchRepo:   batchRepo,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		ttl:         ttl,
		log:         log,
		now:         time.Now,
		drafts:      make(map[string]*entity.TransferDraft),
	}
}

// Validate revisa la solicitud contra el estado actual del libro, sin efectos.
// Devuelve domain.FieldErrors con todos los campos inválidos o, si los campos son
// correctos, *domain.InsufficientStockError cuando el lote no alcanza.
func (p *TransferProcessor) Validate(ctx context.Context, req entity.TransferRequest) error {
	fe := domain.FieldErrors{}

	if req.SourceBranchID == "" {
		fe.Add("source_branch_id", "seleccione la sucursal de origen")
	} else if ok, err := p.branchExists(ctx, req.SourceBranchID); err != nil {
		return err
	} else if !ok {
		fe.Add("source_branch_id", "sucursal de origen desconocida")
	}

	if req.DestinationBranchID == "" {
		fe.Add("destination_branch_id", "seleccione la sucursal de destino")
	} else if req.DestinationBranchID == req.SourceBranchID {
		fe.Add("destination_branch_id", "el destino debe ser distinto del origen")
	} else if ok, err := p.branchExists(ctx, req.DestinationBranchID); err != nil {
		return err
	} else if !ok {
		fe.Add("destination_branch_id", "sucursal de destino desconocida")
	}

	if req.ProductID == "" {
		fe.Add("product_id", "seleccione un producto")
	} else {
		product, err := p.productRepo.GetByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			fe.Add("product_id", "producto desconocido")
		}
	}

	var batch *entity.Batch
	if req.BatchID == "" {
		fe.Add("batch_id", "seleccione un lote")
	} else {
		b, err := p.batchRepo.GetByID(ctx, req.BatchID)
		if err != nil {
			return err
		}
		switch {
		case b == nil:
			fe.Add("batch_id", "lote desconocido")
		case req.SourceBranchID != "" && b.BranchID != req.SourceBranchID:
			fe.Add("batch_id", "el lote no pertenece a la sucursal de origen")
		case req.ProductID != "" && b.ProductID != req.ProductID:
			fe.Add("batch_id", "el lote no corresponde al producto")
		default:
			batch = b
		}
	}

	if req.Quantity <= 0 {
		fe.Add("quantity", "la cantidad debe ser mayor que cero")
	}

	if err := fe.Err(); err != nil {
		return err
	}
	if req.Quantity > batch.Quantity {
		return &domain.InsufficientStockError{BatchID: batch.ID, Available: batch.Quantity, Requested: req.Quantity}
	}
	return nil
}

func (p *TransferProcessor) branchExists(ctx context.Context, id string) (bool, error) {
	b, err := p.branchRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

// Prepare valida la solicitud y la deja esperando confirmación.
func (p *TransferProcessor) Prepare(ctx context.Context, req entity.TransferRequest, userID string) (*entity.TransferDraft, error) {
	if err := p.Validate(ctx, req); err != nil {
		return nil, err
	}
	now := p.now()
	d := &entity.TransferDraft{
		ID:        uuid.New().String(),
		Request:   req,
		State:     entity.TransferStateAwaitingConfirmation,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	p.mu.Lock()
	p.sweepLocked(now)
	p.drafts[d.ID] = d
	p.mu.Unlock()

	return d.Clone(), nil
}

// Get devuelve el borrador vigente.
func (p *TransferProcessor) Get(_ context.Context, draftID string) (*entity.TransferDraft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked(p.now())
	d, ok := p.drafts[draftID]
	if !ok {
		return nil, fmt.Errorf("traslado %s: %w", draftID, domain.ErrNotFound)
	}
	return d.Clone(), nil
}

// Cancel abandona un borrador no confirmado. No afecta el libro.
func (p *TransferProcessor) Cancel(_ context.Context, draftID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked(p.now())
	d, ok := p.drafts[draftID]
	if !ok {
		return fmt.Errorf("traslado %s: %w", draftID, domain.ErrNotFound)
	}
	switch d.State {
	case entity.TransferStateCommitting:
		return fmt.Errorf("traslado %s en curso: %w", draftID, domain.ErrConflict)
	case entity.TransferStateCommitted:
		return fmt.Errorf("%w: el traslado %s ya fue confirmado", domain.ErrInvalidInput, draftID)
	}
	delete(p.drafts, draftID)
	return nil
}

// Confirm ejecuta el traslado de un borrador en awaiting_confirmation. Un borrador vencido no existe.
// Un segundo Confirm mientras el primero está en curso devuelve domain.ErrConflict;
// uno posterior a un traslado confirmado devuelve el mismo resultado sin volver a escribir.
// Si la escritura falla el borrador queda en failed con la solicitud y los errores por campo.
func (p *TransferProcessor) Confirm(ctx context.Context, draftID string) (*entity.TransferDraft, error) {
	p.mu.Lock()
	p.sweepLocked(p.now())
	d, ok := p.drafts[draftID]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("traslado %s: %w", draftID, domain.ErrNotFound)
	}
	switch d.State {
	case entity.TransferStateAwaitingConfirmation:
	case entity.TransferStateCommitting:
		p.mu.Unlock()
		return nil, fmt.Errorf("traslado %s en curso: %w", draftID, domain.ErrConflict)
	case entity.TransferStateCommitted:
		out := d.Clone()
		p.mu.Unlock()
		return out, nil
	default:
		state := d.State
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: el traslado %s está en estado %s, prepárelo de nuevo", domain.ErrInvalidInput, draftID, state)
	}
	d.State = entity.TransferStateCommitting
	d.UpdatedAt = p.now()
	req := d.Request
	p.mu.Unlock()

	result, err := p.commit(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	d.UpdatedAt = p.now()
	if err != nil {
		d.State = entity.TransferStateFailed
		d.Failure = err.Error()
		d.FieldErrors = fieldErrorsOf(err)
		p.log.Warn().Err(err).Str("transfer_id", draftID).Str("batch_id", req.BatchID).Msg("traslado fallido")
		return d.Clone(), err
	}
	d.State = entity.TransferStateCommitted
	d.Result = result
	d.FieldErrors = nil
	p.log.Info().
		Str("transfer_id", draftID).
		Str("source_batch_id", result.SourceBatchID).
		Str("destination_batch_id", result.DestinationBatchID).
		Int64("quantity", req.Quantity).
		Bool("merged", result.Merged).
		Msg("traslado confirmado")
	return d.Clone(), nil
}

// Transfer prepara y confirma en una sola llamada.
func (p *TransferProcessor) Transfer(ctx context.Context, req entity.TransferRequest, userID string) (*entity.TransferDraft, error) {
	d, err := p.Prepare(ctx, req, userID)
	if err != nil {
		return nil, err
	}
	return p.Confirm(ctx, d.ID)
}

// commit debita el origen y acredita el destino en una misma transacción.
// El destino es el lote de la sucursal destino con el mismo producto y la misma etiqueta de lote;
// si no existe se crea uno que hereda costo, precio y fechas del origen.
func (p *TransferProcessor) commit(ctx context.Context, req entity.TransferRequest) (*entity.TransferResult, error) {
	var result *entity.TransferResult
	err := p.txRunner.Run(ctx, func(batchRepo repository.BatchRepository, _ repository.ProductRepository) error {
		src, err := batchRepo.GetForUpdate(ctx, req.BatchID)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("lote %s: %w", req.BatchID, domain.ErrNotFound)
		}
		if src.BranchID != req.SourceBranchID || src.ProductID != req.ProductID {
			return domain.NewValidationError("batch_id", "el lote no corresponde al origen o al producto")
		}
		if src.Quantity < req.Quantity {
			return domain.StockChanged(&domain.InsufficientStockError{
				BatchID: src.ID, Available: src.Quantity, Requested: req.Quantity,
			})
		}

		dest, err := batchRepo.FindLotForUpdate(ctx, req.DestinationBranchID, src.ProductID, src.Lot())
		if err != nil {
			return err
		}
		merged := dest != nil
		if merged {
			if err := p.ledger.AdjustInTx(ctx, batchRepo, dest, req.Quantity); err != nil {
				return err
			}
		} else {
			dest, err = p.ledger.CreateInTx(ctx, batchRepo, NewBatch{
				ProductID:    src.ProductID,
				BranchID:     req.DestinationBranchID,
				LotCode:      src.Lot(),
				Quantity:     req.Quantity,
				CostPrice:    src.CostPrice,
				SellingPrice: src.SellingPrice,
				PurchaseDate: src.PurchaseDate,
				ExpiryDate:   src.ExpiryDate,
			})
			if err != nil {
				return err
			}
		}

		if err := p.ledger.AdjustInTx(ctx, batchRepo, src, -req.Quantity); err != nil {
			return err
		}
		result = &entity.TransferResult{
			SourceBatchID:      src.ID,
			SourceQuantity:     src.Quantity,
			DestinationBatchID: dest.ID,
			DestinationQty:     dest.Quantity,
			Merged:             merged,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// sweepLocked descarta borradores vencidos. Los que están en curso nunca se descartan.
func (p *TransferProcessor) sweepLocked(now time.Time) {
	if p.ttl <= 0 {
		return
	}
	for id, d := range p.drafts {
		if d.State != entity.TransferStateCommitting && now.Sub(d.UpdatedAt) > p.ttl {
			delete(p.drafts, id)
		}
	}
}

func fieldErrorsOf(err error) map[string]string {
	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		return map[string]string(fe)
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		return map[string]string{ve.Field: ve.Message}
	}
	var ise *domain.InsufficientStockError
	if errors.As(err, &ise) {
		return map[string]string{"quantity": ise.Error()}
	}
	return nil
}
