package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/application/usecase"
)

// BranchHandler maneja las peticiones HTTP de sucursales (protegido).
type BranchHandler struct {
	uc       *usecase.BranchUseCase
	products *usecase.ProductUseCase
}

// NewBranchHandler construye el handler.
func NewBranchHandler(uc *usecase.BranchUseCase, products *usecase.ProductUseCase) *BranchHandler {
	return &BranchHandler{uc: uc, products: products}
}

// Create godoc
// @Summary      Registra una sucursal en estado pending
// @Tags         branches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBranchRequest  true  "name, code, location, address, manager, phone, email, established_date"
// @Success      201  {object}  dto.BranchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/branches [post]
func (h *BranchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBranchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Sucursales visibles para el usuario
// @Tags         branches
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BranchResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/branches [get]
func (h *BranchHandler) List(c *fiber.Ctx) error {
	only, err := scopeBranch(c, "")
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.List(c.UserContext(), only)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// GetByID godoc
// @Summary      Detalle de una sucursal
// @Tags         branches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sucursal"
// @Success      200  {object}  dto.BranchResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{id} [get]
func (h *BranchHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := checkBranch(c, id); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Products godoc
// @Summary      Productos con algún lote en la sucursal
// @Tags         branches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sucursal"
// @Success      200  {array}  dto.ProductResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/products [get]
func (h *BranchHandler) Products(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := checkBranch(c, id); err != nil {
		return writeError(c, err)
	}
	list, err := h.products.ListByBranch(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}
