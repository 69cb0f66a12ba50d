package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/nvalvo/executor-deployer/internal/config"
	"github.com/nvalvo/executor-deployer/internal/journal"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.New(ctx)

	if err != nil {
		log.Fatal("Error parsing config", err)
	}

	if !cfg.Journal.Enabled() {
		log.Fatal("Journal database not configured (set JOURNAL_DB_NAME)")
	}

	jClient, err := journal.New(ctx, cfg.Journal)
	if err != nil {
		log.Fatal("Error connecting to journal database", err)
	}
	defer jClient.Close(ctx)

	if err = jClient.Ping(ctx); err != nil {
		log.Fatal("Error pinging journal database", err)
	}

	if err := jClient.CreateSchema(ctx); err != nil {
		log.Fatal("Error creating schema: ", err)
	}

	log.Println("Journal schema created successfully")
}
