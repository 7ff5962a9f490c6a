package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth     *AuthHandler
	Movement *MovementHandler
	Report   *ReportHandler
	Catalog  *CatalogHandler
}

// RegisterRoutes mounts the API under router (normally /api/v1).
func RegisterRoutes(router fiber.Router, h Handlers, auth service.AuthService) {
	router.Post("/auth/login", h.Auth.Login)

	protected := router.Group("", middleware.RequireAuth(auth))
	protected.Get("/auth/me", h.Auth.Me)
	protected.Post("/auth/logout", h.Auth.Logout)

	view := middleware.RequirePrivilege(model.PrivTransactionView)
	protected.Get("/transactions", view, h.Movement.GetTransactions)
	protected.Get("/transactions/:id", view, h.Movement.GetTransaction)
	protected.Post("/transactions", middleware.RequirePrivilege(model.PrivTransactionCreate), h.Movement.CreateTransaction)

	reports := protected.Group("/reports", middleware.RequirePrivilege(model.PrivReportView))
	reports.Get("/inventory-summary", h.Report.InventorySummary)
	reports.Get("/by-category", h.Report.ByCategory)
	reports.Get("/by-type", h.Report.ByType)

	// Anyone who can read movements can read the catalog they refer to.
	catalogRead := middleware.RequireAnyPrivilege(model.PrivTransactionView, model.PrivCatalogManage)
	manage := middleware.RequirePrivilege(model.PrivCatalogManage)

	protected.Get("/categories", catalogRead, h.Catalog.GetCategories)
	protected.Get("/categories/:id", catalogRead, h.Catalog.GetCategory)
	protected.Post("/categories", manage, h.Catalog.CreateCategory)
	protected.Put("/categories/:id", manage, h.Catalog.UpdateCategory)
	protected.Delete("/categories/:id", manage, h.Catalog.DeleteCategory)

	protected.Get("/products", catalogRead, h.Catalog.GetProducts)
	protected.Get("/products/:id", catalogRead, h.Catalog.GetProduct)
	protected.Post("/products", manage, h.Catalog.CreateProduct)
	protected.Put("/products/:id", manage, h.Catalog.UpdateProduct)
	protected.Delete("/products/:id", manage, h.Catalog.DeleteProduct)
}
