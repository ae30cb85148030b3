package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/application/transitions"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/pkg/jwt"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Lots      *lots.LotRegistry
	Engine    *transitions.Engine
	Ledger    *inventory.Ledger
	Projector *inventory.StockProjector
	ProductUC *usecase.ProductUseCase
	Reader    *traceability.Reader
	// Idempotency nil = sin soporte de Idempotency-Key.
	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	JWTSecret      string
	Log            *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	lotHandler := NewLotHandler(deps.Lots)
	transitionHandler := NewTransitionHandler(deps.Engine)
	productHandler := NewProductHandler(deps.ProductUC)
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Projector)
	labelHandler := NewLabelHandler(deps.Reader)

	// Consulta pública del QR. Va antes de /trace/:packagedBatchId.
	api.Get("/trace/labels/:code", labelHandler.LabelSnapshot)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	if deps.Idempotency != nil {
		ttl := deps.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		protected.Use(Idempotency(deps.Idempotency, ttl, deps.Log))
	}

	operators := RequireRole(jwt.RoleAdmin, jwt.RoleTostador, jwt.RoleBodeguero)
	roasters := RequireRole(jwt.RoleAdmin, jwt.RoleTostador)
	warehouse := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	admins := RequireRole(jwt.RoleAdmin)

	// Lotes
	lotsGroup := protected.Group("/lots")
	lotsGroup.Post("/harvest", warehouse, lotHandler.RegisterHarvest)
	lotsGroup.Get("/", lotHandler.List)
	lotsGroup.Get("/:id/ancestors", lotHandler.Ancestors)
	lotsGroup.Get("/:id/descendants", lotHandler.Descendants)
	lotsGroup.Get("/:ref", lotHandler.Get)

	// Transiciones de etapa
	transitionsGroup := protected.Group("/transitions")
	transitionsGroup.Post("/send-to-roast", roasters, transitionHandler.SendToRoast)
	transitionsGroup.Post("/retrieve-roast", roasters, transitionHandler.RetrieveRoast)
	transitionsGroup.Post("/store-roasted", operators, transitionHandler.StoreRoasted)
	transitionsGroup.Post("/package", operators, transitionHandler.Package)

	// Registros por etapa
	batches := protected.Group("/batches")
	batches.Get("/roasting", transitionHandler.ListRoasting)
	batches.Get("/roasted", transitionHandler.ListRoasted)
	batches.Get("/storage", transitionHandler.ListStorage)
	batches.Get("/packaged", transitionHandler.ListPackaged)

	// Productos
	products := protected.Group("/products")
	products.Post("/", admins, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id/pricing", admins, productHandler.SetPricing)

	// Inventario
	invGroup := protected.Group("/inventory")
	invGroup.Post("/movements", warehouse, inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/products/:id/verify", warehouse, inventoryHandler.VerifyProduct)
	invGroup.Post("/verify", admins, inventoryHandler.VerifyAll)
	invGroup.Get("/integrity-faults", warehouse, inventoryHandler.ListFaults)

	// Etiquetas y procedencia
	labels := protected.Group("/labels")
	labels.Post("/", operators, labelHandler.Generate)
	labels.Get("/batch/:id", labelHandler.ListByBatch)
	labels.Get("/batch/:id/pdf", labelHandler.PDF)
	protected.Get("/trace/:packagedBatchId", labelHandler.Provenance)
}
