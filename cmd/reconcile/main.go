// reconcile reconstruye el stock de todos los productos desde el ledger y reporta divergencias.
// Sale con código 3 si encuentra alguna; no corrige nada.
//
// Uso: go run ./cmd/reconcile [-page-size 100]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

const exitFaults = 3

func main() {
	pageSize := flag.Int("page-size", 100, "productos por página")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	projector := inventory.NewStockProjector(
		postgres.NewTxRunner(pool, nil),
		postgres.NewProductRepository(pool),
		postgres.NewIntegrityFaultRepository(pool),
		nil,
		log,
	)
	summary, err := projector.VerifyAll(ctx, *pageSize)
	if err != nil {
		log.Error().Err(err).Msg("auditoría interrumpida")
		pool.Close()
		os.Exit(1)
	}
	for _, f := range summary.Faults {
		fmt.Printf("%s\talmacenado=%s\tledger=%s\tmovimientos=%d\t%s\n",
			f.ProductID, f.Stored.String(), f.Replayed.String(), f.MovementCount, f.Detail)
	}
	if len(summary.Faults) > 0 {
		pool.Close()
		os.Exit(exitFaults)
	}
}
