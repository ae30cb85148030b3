// migrate aplica o revierte las migraciones SQL embebidas.
//
// Uso: go run ./cmd/migrate [up|down|steps <n>|version|force <v>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "uso: migrate [up|down|steps <n>|version|force <versión>]")
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("migrate")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m, err := postgres.NewMigrator(pool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("preparar migraciones")
	}
	defer m.Close()

	intArg := func() int {
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal().Str("valor", args[1]).Msg("se esperaba un entero")
		}
		return n
	}

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(intArg())
	case "force":
		err = m.Force(intArg())
	case "version":
		var (
			v     uint
			dirty bool
		)
		v, dirty, err = m.Version()
		if err == nil {
			log.Info().Uint("version", v).Bool("dirty", dirty).Msg("versión actual")
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("migración fallida")
	}
}
