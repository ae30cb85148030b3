package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/application/transitions"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/Trazabilidad-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/storage"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/Trazabilidad-api/internal/interfaces/http"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	tracing, err := telemetry.NewTracing(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}
	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.MigrateOnStart {
		migrator, err := postgres.NewMigrator(pool, log.Named("migrate"))
		if err != nil {
			log.Fatal().Err(err).Msg("preparar migraciones")
		}
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		if err := migrator.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}

	lotRepo := postgres.NewLotRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	labelRepo := postgres.NewLabelRepository(pool)
	faultRepo := postgres.NewIntegrityFaultRepository(pool)

	var (
		txObserver     postgres.TxObserver
		businessMetric ports.Metrics
	)
	if metrics != nil {
		txObserver = metrics
		businessMetric = metrics
	}
	txRunner := postgres.NewTxRunner(pool, txObserver)

	registry := lots.NewLotRegistry(lotRepo, log)
	ledger := inventory.NewLedger(txRunner, movementRepo, businessMetric, log)
	projector := inventory.NewStockProjector(txRunner, productRepo, faultRepo, businessMetric, log)
	engine := transitions.NewEngine(txRunner, batchRepo, registry, ledger, businessMetric, log)
	productUC := usecase.NewProductUseCase(productRepo, log)

	archive, err := storage.NewLabelArchive(ctx, cfg.Labels)
	if err != nil {
		log.Fatal().Err(err).Msg("archivo de etiquetas")
	}
	reader := traceability.NewReader(txRunner, lotRepo, batchRepo, productRepo, labelRepo, traceability.Config{
		Renderer:     infrapdf.NewMarotoLabelGenerator(),
		Archive:      archive,
		TraceBaseURL: cfg.Labels.TraceBaseURL,
	}, log)

	var idempotency ports.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisStore, err := cache.NewRedisIdempotencyStore(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisStore.Close()
		idempotency = redisStore
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Trazabilidad API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if metrics != nil {
		app.Get("/metrics", httpRouter.MetricsHandler(metrics.Registry()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Lots:           registry,
		Engine:         engine,
		Ledger:         ledger,
		Projector:      projector,
		ProductUC:      productUC,
		Reader:         reader,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		JWTSecret:      cfg.JWT.Secret,
		Log:            log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
