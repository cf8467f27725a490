package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventorypro-ledger/internal/application/billing"
	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/application/usecase"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/authz"
)

// InvoiceHandler maneja ventas y facturas (protegido).
type InvoiceHandler struct {
	sales   *billing.CreateSaleUseCase
	queries *billing.InvoiceQueryUseCase
	pdf     *billing.PDFUseCase
	users   *usecase.UserUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(
	sales *billing.CreateSaleUseCase,
	queries *billing.InvoiceQueryUseCase,
	pdf *billing.PDFUseCase,
	users *usecase.UserUseCase,
) *InvoiceHandler {
	return &InvoiceHandler{sales: sales, queries: queries, pdf: pdf, users: users}
}

// saleRequest completa sucursal y vendedor desde el token y aplica el alcance por sucursal.
func (h *InvoiceHandler) saleRequest(c *fiber.Ctx) (dto.CreateSaleRequest, bool, error) {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return in, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	branchID, err := scopeBranch(c, in.BranchID)
	if err != nil {
		return in, false, writeError(c, err)
	}
	in.BranchID = branchID
	if in.SalesRep == "" {
		if u, err := h.users.GetByID(c.UserContext(), GetUserID(c)); err == nil {
			in.SalesRep = u.Name
		}
	}
	return in, true, nil
}

// Create godoc
// @Summary      Registra la venta completa o ninguna línea
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "branch_id, customer_name, items, discount, tax"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	in, ok, err := h.saleRequest(c)
	if !ok {
		return err
	}
	invoice, err := h.sales.CreateSale(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// Validate godoc
// @Summary      Revisa la venta sin modificar existencias
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "branch_id, customer_name, items, discount, tax"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/validate [post]
func (h *InvoiceHandler) Validate(c *fiber.Ctx) error {
	in, ok, err := h.saleRequest(c)
	if !ok {
		return err
	}
	if err := h.sales.ValidateSale(c.UserContext(), in); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"valid": true})
}

// List godoc
// @Summary      Listar facturas
// @Description  Paginadas, con filtros por sucursal, texto y rango de fechas (YYYY-MM-DD).
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        page  query  int  false  ""
// @Param        page_size  query  int  false  ""
// @Param        search  query  string  false  "Cliente o número"
// @Param        branch_id  query  string  false  ""
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to  query  string  false  "YYYY-MM-DD, inclusivo"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	in := dto.InvoiceListRequest{
		PageRequest: dto.PageRequest{Page: c.QueryInt("page"), PageSize: c.QueryInt("page_size")},
		Search:      c.Query("search"),
	}
	if err := validateStruct(in.PageRequest); err != nil {
		return writeError(c, err)
	}
	requested := c.Query("branch_id")
	if authz.Can(GetRole(c), authz.ViewAllSales) {
		in.BranchID = requested
	} else {
		branchID, err := scopeBranch(c, requested)
		if err != nil {
			return writeError(c, err)
		}
		in.BranchID = branchID
	}
	for _, p := range []struct {
		key string
		dst **time.Time
		end bool
	}{{"from", &in.From, false}, {"to", &in.To, true}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code: "VALIDATION", Message: "fecha inválida", Fields: map[string]string{p.key: "use el formato YYYY-MM-DD"},
			})
		}
		if p.end {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		*p.dst = &t
	}
	out, err := h.queries.ListInvoices(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de una factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	invoice, err := h.queries.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !authz.Can(GetRole(c), authz.ViewAllSales) {
		if err := checkBranch(c, invoice.BranchID); err != nil {
			return writeError(c, err)
		}
	}
	return c.JSON(invoice)
}

// DownloadPDF godoc
// @Summary      Descarga la factura en PDF
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	scope := ""
	if !authz.Can(GetRole(c), authz.ViewAllSales) {
		scope = GetBranchID(c)
	}
	pdfBytes, filename, err := h.pdf.DownloadInvoicePDF(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}
