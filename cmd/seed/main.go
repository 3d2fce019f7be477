// seed carga un catálogo de artículos desde CSV (UTF-8 o ISO-8859-1).
//
// Uso:
//
//	go run ./cmd/seed --file items.csv              # inserta vía DATABASE_URL / DB_*
//	go run ./cmd/seed --file items.csv --sql out.sql # solo genera el script
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	file := pflag.String("file", "items.csv", "CSV con columnas name,sku,description")
	encoding := pflag.String("encoding", encodingAuto, "auto | utf8 | latin1")
	sqlOut := pflag.String("sql", "", "escribir un script SQL en vez de insertar")
	pflag.Parse()

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	r, err := decodeCatalog(raw, *encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Codificación: %v\n", err)
		os.Exit(1)
	}
	items, err := parseCatalog(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("El CSV no tiene artículos.")
		return
	}

	if *sqlOut != "" {
		out, err := os.Create(*sqlOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer out.Close()
		if err := writeSQL(out, items, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generado %s: %d artículos\n", *sqlOut, len(items))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithWriter(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: "seed"}, os.Stderr)

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if _, err := postgres.ApplyMigrations(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	uc := usecase.NewItemUseCase(postgres.NewItemRepository(pool))
	created := 0
	for _, in := range items {
		it, err := uc.Create(ctx, in)
		if err != nil {
			log.Error().Err(err).Str("name", in.Name).Msg("artículo omitido")
			continue
		}
		created++
		log.Debug().Str("id", it.ID).Str("name", it.Name).Msg("artículo creado")
	}
	log.Info().Int("created", created).Int("total", len(items)).Msg("catálogo cargado")
}
