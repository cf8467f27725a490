package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/inventorypro-ledger/internal/application/analytics"
)

// DashboardHandler maneja el dashboard y el reporte de rentabilidad por lote.
type DashboardHandler struct {
	uc     *appanalytics.DashboardUseCase
	profit *appanalytics.BatchProfitUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase, profit *appanalytics.BatchProfitUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc, profit: profit}
}

// GetSummary godoc
// @Summary      Valor de inventario por sucursal y total
// @Description  Para roles acotados a su sucursal el resumen contiene solo la propia.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Vacío = todas las visibles"
// @Success      200  {object}  dto.DashboardSummary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	branchID, err := scopeBranch(c, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	summary, err := h.uc.GetSummary(c.UserContext(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

// BatchProfit godoc
// @Summary      Reporte de rentabilidad por lote
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Vacío = todas las visibles"
// @Success      200  {object}  dto.BatchProfitReport
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/batch-profit [get]
func (h *DashboardHandler) BatchProfit(c *fiber.Ctx) error {
	branchID, err := scopeBranch(c, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	report, err := h.profit.Report(c.UserContext(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}
