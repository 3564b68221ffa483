//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"

	"textvault/internal/config"
	"textvault/internal/repository/postgres"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Environment == "prod" {
		log.Fatal("Refusing to drop tables in production")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	dropped, err := postgres.DropTables(ctx, pool, postgres.NewTableNames(cfg.TablePrefix))
	if err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	for _, table := range dropped {
		fmt.Printf("  dropped %s\n", table)
	}
	fmt.Printf("All tables dropped successfully (prefix: %q)\n", cfg.TablePrefix)
}
