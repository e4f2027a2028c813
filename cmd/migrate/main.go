package main

import (
	"context"
	"log"
	"time"

	"github.com/aarongarrett/quorum/config"
	"github.com/aarongarrett/quorum/internal/repository"
	"github.com/aarongarrett/quorum/pkg/database"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repository.InitSchema(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Schema is up to date")
}
