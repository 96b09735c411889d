package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inventory InventoryService
	Products  ProductService
	Units     UnitService
	Movements MovementService
	JWTSecret string
	// Ping verifica la base de datos para /health; nil = solo liveness.
	Ping func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.Ping))

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor)

	// Products
	products := api.Group("/products", anyRole)
	productHandler := NewProductHandler(deps.Products, deps.Units, deps.Movements, deps.Inventory)
	products.Post("/", staff, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/units", productHandler.Units)
	products.Get("/:id/movements", productHandler.Movements)
	products.Post("/:id/reconcile", RequireRole(entity.RoleAdmin), productHandler.Reconcile)

	// Inventory
	inv := api.Group("/inventory", anyRole)
	inventoryHandler := NewInventoryHandler(deps.Inventory, deps.Movements)
	inv.Post("/intake", staff, inventoryHandler.Intake)
	inv.Post("/allocations", inventoryHandler.Allocate)
	inv.Post("/requests/:id/fulfill", staff, inventoryHandler.Fulfill)
	inv.Get("/movements", inventoryHandler.ListMovements)

	// Units (código de etiqueta QR)
	units := api.Group("/units", anyRole)
	unitHandler := NewUnitHandler(deps.Units, deps.Inventory)
	units.Get("/:code", unitHandler.GetByCode)
	units.Get("/:code/history", unitHandler.History)
	units.Post("/:code/actions", unitHandler.Action)
}

func healthHandler(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "db": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
