package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/application/usecase"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
)

// InventoryHandler maneja lotes y traslados (protegido).
type InventoryHandler struct {
	ledger    *inventory.Ledger
	transfers *inventory.TransferProcessor
	products  *usecase.ProductUseCase
	now       func() time.Time
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger, transfers *inventory.TransferProcessor, products *usecase.ProductUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, transfers: transfers, products: products, now: time.Now}
}

func (h *InventoryHandler) productNames(c *fiber.Ctx) (map[string]string, error) {
	list, err := h.products.List(c.UserContext())
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(list))
	for _, p := range list {
		names[p.ID] = p.Name
	}
	return names, nil
}

func (h *InventoryHandler) batchResponses(c *fiber.Ctx, batches []*entity.Batch) ([]dto.BatchResponse, error) {
	names, err := h.productNames(c)
	if err != nil {
		return nil, err
	}
	now := h.now()
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, usecase.ToBatchResponse(b, names[b.ProductID], now))
	}
	return out, nil
}

// ListBatches godoc
// @Summary      Lotes de una sucursal, agotados incluidos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  ""
// @Success      200  {array}  dto.BatchResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/batches [get]
func (h *InventoryHandler) ListBatches(c *fiber.Ctx) error {
	branchID, err := scopeBranch(c, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	batches, err := h.ledger.BatchesForBranch(c.UserContext(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.batchResponses(c, batches)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBatch godoc
// @Summary      Detalle de un lote
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *InventoryHandler) GetBatch(c *fiber.Ctx) error {
	b, err := h.ledger.FindBatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if err := checkBranch(c, b.BranchID); err != nil {
		return writeError(c, err)
	}
	out, err := h.batchResponses(c, []*entity.Batch{b})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out[0])
}

// AdjustBatch godoc
// @Summary      Ajustar cantidad de un lote
// @Description  Con expected_version responde 409 si el lote cambió.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Param        body  body  dto.AdjustBatchRequest  true  "delta, expected_version (opcional)"
// @Success      200  {object}  dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/adjust [post]
func (h *InventoryHandler) AdjustBatch(c *fiber.Ctx) error {
	var in dto.AdjustBatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ctx := c.UserContext()
	id := c.Params("id")
	b, err := h.ledger.FindBatch(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := checkBranch(c, b.BranchID); err != nil {
		return writeError(c, err)
	}
	if in.ExpectedVersion != nil {
		b, err = h.ledger.AdjustQuantityIfVersion(ctx, id, in.Delta, *in.ExpectedVersion)
	} else {
		b, err = h.ledger.AdjustQuantity(ctx, id, in.Delta)
	}
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.batchResponses(c, []*entity.Batch{b})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out[0])
}

// ProductBatches godoc
// @Summary      Lotes con existencias de un producto en una sucursal
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Param        branch_id  query  string  true  ""
// @Success      200  {array}  dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/batches [get]
func (h *InventoryHandler) ProductBatches(c *fiber.Ctx) error {
	branchID, err := scopeBranch(c, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	if branchID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "branch_id requerido", Fields: map[string]string{"branch_id": "campo obligatorio"},
		})
	}
	batches, err := h.ledger.BatchesForProduct(c.UserContext(), c.Params("id"), branchID)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.batchResponses(c, batches)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Value godoc
// @Summary      Valor al costo de las existencias
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Vacío = todas las visibles"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/value [get]
func (h *InventoryHandler) Value(c *fiber.Ctx) error {
	branchID, err := scopeBranch(c, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	v, err := h.ledger.InventoryValue(c.UserContext(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"branch_id": branchID, "value": v})
}

// ── Traslados ────────────────────────────────────────────────────────────────

func toTransferRequest(in dto.TransferRequest) entity.TransferRequest {
	return entity.TransferRequest{
		SourceBranchID:      in.SourceBranchID,
		DestinationBranchID: in.DestinationBranchID,
		ProductID:           in.ProductID,
		BatchID:             in.BatchID,
		Quantity:            in.Quantity,
	}
}

func toTransferResponse(d *entity.TransferDraft) dto.TransferResponse {
	out := dto.TransferResponse{
		ID:    d.ID,
		State: d.State,
		Request: dto.TransferRequest{
			SourceBranchID:      d.Request.SourceBranchID,
			DestinationBranchID: d.Request.DestinationBranchID,
			ProductID:           d.Request.ProductID,
			BatchID:             d.Request.BatchID,
			Quantity:            d.Request.Quantity,
		},
		FieldErrors: d.FieldErrors,
		Failure:     d.Failure,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if r := d.Result; r != nil {
		out.Result = &dto.TransferResult{
			SourceBatchID:       r.SourceBatchID,
			SourceQuantity:      r.SourceQuantity,
			DestinationBatchID:  r.DestinationBatchID,
			DestinationQuantity: r.DestinationQty,
			Merged:              r.Merged,
		}
	}
	return out
}

// ValidateTransfer godoc
// @Summary      Revisa la solicitud sin efectos
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "source_branch_id, destination_branch_id, product_id, batch_id, quantity"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/validate [post]
func (h *InventoryHandler) ValidateTransfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if err := h.transfers.Validate(c.UserContext(), toTransferRequest(in)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"valid": true, "state": entity.TransferStateValidated})
}

// PrepareTransfer godoc
// @Summary      Deja el traslado esperando confirmación
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "source_branch_id, destination_branch_id, product_id, batch_id, quantity"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/prepare [post]
func (h *InventoryHandler) PrepareTransfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	d, err := h.transfers.Prepare(c.UserContext(), toTransferRequest(in), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(d))
}

// ConfirmTransfer godoc
// @Summary      Ejecuta un traslado preparado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/confirm [post]
func (h *InventoryHandler) ConfirmTransfer(c *fiber.Ctx) error {
	d, err := h.transfers.Confirm(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(d))
}

// CancelTransfer godoc
// @Summary      Abandona un traslado no confirmado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [delete]
func (h *InventoryHandler) CancelTransfer(c *fiber.Ctx) error {
	if err := h.transfers.Cancel(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetTransfer godoc
// @Summary      Estado de un traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *InventoryHandler) GetTransfer(c *fiber.Ctx) error {
	d, err := h.transfers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(d))
}

// Transfer godoc
// @Summary      Prepara y confirma en una sola petición
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "source_branch_id, destination_branch_id, product_id, batch_id, quantity"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	d, err := h.transfers.Transfer(c.UserContext(), toTransferRequest(in), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(d))
}
