package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName      string
	ItemUC       *usecase.ItemUseCase
	Ledger       *inventory.StockLedgerUseCase
	Query        *inventory.StockQueryUseCase
	ExpiryReport *inventory.ExpiryReportUseCase
	JWTSecret    string
	Log          zerolog.Logger
}

// Router registra las rutas de la API. Lecturas públicas; escrituras con JWT (admin u operator)
// cuando hay JWTSecret configurado.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	api := app.Group("/api")
	guard := writeGuard(deps.JWTSecret)

	// Items
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC, deps.Log)
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Post("/", withGuard(guard, itemHandler.Create)...)
	items.Put("/:id", withGuard(guard, itemHandler.Update)...)
	items.Delete("/:id", withGuard(guard, itemHandler.Delete)...)

	// Stock ledger
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, deps.Query, deps.ExpiryReport, deps.Log)
	stock.Post("/receive", withGuard(guard, stockHandler.Receive)...)
	stock.Post("/issue", withGuard(guard, stockHandler.Issue)...)
	stock.Post("/adjust", withGuard(guard, stockHandler.Adjust)...)

	stock.Get("/batches", stockHandler.ListBatches)
	stock.Get("/batches/:id", stockHandler.GetBatch)
	stock.Get("/expiring", stockHandler.ListExpiring)
	stock.Get("/expiring/report.pdf", stockHandler.ExpiryReport)
	stock.Get("/movements", stockHandler.ListMovements)
	// summary antes de :id
	stock.Get("/movements/summary", stockHandler.Summarize)
	stock.Get("/movements/:id", stockHandler.GetMovement)
}

func withGuard(guard []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guard)+1)
	out = append(out, guard...)
	return append(out, h)
}
