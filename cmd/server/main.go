package main

import (
	"log"

	"briar/internal/config"
	"briar/internal/db"
	"briar/internal/router"
	"briar/internal/store"
	"briar/internal/store/gormstore"
	"briar/internal/store/memstore"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.Load()

	var st store.Store
	if cfg.DatabaseURL == "memory" {
		// Ephemeral in-memory store for local development.
		log.Println("Using in-memory store; data will not survive a restart")
		st = memstore.New()
	} else {
		gdb, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		st = gormstore.New(gdb)
	}
	defer st.Close()

	r := router.New(cfg, st)

	log.Printf("Listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
