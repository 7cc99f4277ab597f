package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backoffice/internal/application/auth"
	"github.com/tu-usuario/pos-backoffice/internal/application/catalog"
	"github.com/tu-usuario/pos-backoffice/internal/application/returns"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/application/stock"
	"github.com/tu-usuario/pos-backoffice/internal/application/transfer"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	CatalogUC  *catalog.CatalogUseCase
	StockUC    *stock.StockUseCase
	TransferUC *transfer.TransferUseCase
	SalesUC    *sales.SalesUseCase
	ReturnUC   *returns.ReturnUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/register",
		AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin),
		authHandler.Register)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	branches := protected.Group("/branches")
	branches.Post("/", RequireRole(entity.RoleAdmin), catalogHandler.CreateBranch)
	branches.Get("/", catalogHandler.ListBranches)
	variants := protected.Group("/variants")
	variants.Post("/", RequireRole(entity.RoleAdmin, entity.RoleGerente), catalogHandler.CreateVariant)
	variants.Get("/", catalogHandler.ListVariants)
	variants.Get("/:id", catalogHandler.GetVariant)

	// Stock (ledger + ajustes)
	stockHandler := NewStockHandler(deps.StockUC)
	stockGroup := protected.Group("/stock")
	stockGroup.Post("/adjust", RequireRole(entity.RoleAdmin, entity.RoleGerente), stockHandler.Adjust)
	stockGroup.Get("/:branchId", stockHandler.ListByBranch)
	stockGroup.Get("/:branchId/:variantId", stockHandler.Get)
	stockGroup.Get("/:branchId/:variantId/adjustments", stockHandler.ListAdjustments)

	// Transferencias entre sucursales
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers := protected.Group("/transfers")
	transfers.Post("/", transferHandler.Request)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/approve", transferHandler.Approve)
	transfers.Post("/:id/reject", transferHandler.Reject)

	// Ventas
	txHandler := NewTransactionHandler(deps.SalesUC)
	transactions := protected.Group("/transactions")
	transactions.Post("/", txHandler.Create)
	transactions.Post("/sync", txHandler.Sync)
	transactions.Get("/", txHandler.List)
	transactions.Get("/:id", txHandler.GetByID)
	transactions.Get("/:id/receipt", txHandler.Receipt)
	transactions.Post("/:id/cancel", txHandler.Cancel)

	// Devoluciones y cambios
	returnHandler := NewReturnHandler(deps.ReturnUC)
	returnsGroup := protected.Group("/returns")
	returnsGroup.Post("/", returnHandler.Create)
	returnsGroup.Get("/", returnHandler.List)
	returnsGroup.Get("/:id", returnHandler.GetByID)
	returnsGroup.Post("/:id/approve", returnHandler.Approve)
	returnsGroup.Post("/:id/reject", returnHandler.Reject)
}
