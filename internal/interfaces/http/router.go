package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/inventorypro-ledger/internal/application/analytics"
	"github.com/jhoicas/inventorypro-ledger/internal/application/auth"
	"github.com/jhoicas/inventorypro-ledger/internal/application/billing"
	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/application/usecase"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/authz"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	BranchUC    *usecase.BranchUseCase
	ProductUC   *usecase.ProductUseCase
	UserUC      *usecase.UserUseCase
	Ledger      *inventory.Ledger
	Transfers   *inventory.TransferProcessor
	CreateSale  *billing.CreateSaleUseCase
	Invoices    *billing.InvoiceQueryUseCase
	InvoicePDF  *billing.PDFUseCase
	DashboardUC *appanalytics.DashboardUseCase
	BatchProfit *appanalytics.BatchProfitUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/session", authHandler.Session)

	// Branches
	branchHandler := NewBranchHandler(deps.BranchUC, deps.ProductUC)
	branches := protected.Group("/branches")
	branches.Get("/", branchHandler.List)
	branches.Post("/", RequireCapability(authz.ManageBranches), branchHandler.Create)
	branches.Get("/:id", branchHandler.GetByID)
	branches.Get("/:id/products", branchHandler.Products)

	// Products
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Transfers, deps.ProductUC)
	productHandler := NewProductHandler(deps.ProductUC)
	products := protected.Group("/products")
	products.Get("/", productHandler.List)
	products.Post("/", RequireCapability(authz.ManageInventory), productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/batches", inventoryHandler.ProductBatches)

	// Batches
	batches := protected.Group("/batches")
	batches.Get("/", inventoryHandler.ListBatches)
	batches.Get("/:id", inventoryHandler.GetBatch)
	batches.Post("/:id/adjust", RequireCapability(authz.ManageInventory), inventoryHandler.AdjustBatch)
	protected.Get("/inventory/value", inventoryHandler.Value)

	// Transfers
	transfers := protected.Group("/transfers", RequireCapability(authz.TransferStock))
	transfers.Post("/", inventoryHandler.Transfer)
	transfers.Post("/validate", inventoryHandler.ValidateTransfer)
	transfers.Post("/prepare", inventoryHandler.PrepareTransfer)
	transfers.Get("/:id", inventoryHandler.GetTransfer)
	transfers.Post("/:id/confirm", inventoryHandler.ConfirmTransfer)
	transfers.Delete("/:id", inventoryHandler.CancelTransfer)

	// Sales / invoices
	invoiceHandler := NewInvoiceHandler(deps.CreateSale, deps.Invoices, deps.InvoicePDF, deps.UserUC)
	sales := protected.Group("/sales", RequireCapability(authz.ManageSales))
	sales.Post("/", invoiceHandler.Create)
	sales.Post("/validate", invoiceHandler.Validate)
	invoices := protected.Group("/invoices")
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)

	// Dashboard y reportes
	dashboardHandler := NewDashboardHandler(deps.DashboardUC, deps.BatchProfit)
	protected.Get("/dashboard/summary", dashboardHandler.GetSummary)
	protected.Get("/reports/batch-profit",
		RequireRole(authz.RoleSuperAdmin, authz.RoleBranchManager),
		dashboardHandler.BatchProfit,
	)

	// Users
	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/users", RequireCapability(authz.ManageUsers))
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
}
