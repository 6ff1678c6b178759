package main

import (
	"context"
	"flag"
	"log"

	"licitaradar/internal/config"
	"licitaradar/internal/db"
	"licitaradar/internal/store"
)

// Seeds the radar document with the default portal list. Refuses to overwrite
// an existing document unless -force is given.
func main() {
	force := flag.Bool("force", false, "overwrite an existing radar document")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	dbStore := db.NewStore(pool)

	existing, err := dbStore.LoadDocument(ctx)
	if err != nil {
		log.Fatalf("Failed to load radar document: %v", err)
	}
	if existing != nil && !*force {
		log.Fatalf("Radar document already exists with %d institutions; use -force to overwrite", len(existing.Institutions))
	}

	radarStore := store.NewRadar(store.SeedInstitutions())
	if err := dbStore.SaveDocument(ctx, radarStore.Snapshot()); err != nil {
		log.Fatalf("Failed to save radar document: %v", err)
	}

	log.Printf("Seeded %d institutions", len(store.SeedInstitutions()))
}
