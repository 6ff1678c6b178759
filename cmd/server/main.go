package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"licitaradar/internal/ai"
	"licitaradar/internal/api"
	"licitaradar/internal/auth"
	"licitaradar/internal/config"
	"licitaradar/internal/db"
	"licitaradar/internal/radar"
	"licitaradar/internal/store"
)

func main() {
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

	doc, err := dbStore.LoadDocument(ctx)
	if err != nil {
		log.Fatalf("Failed to load radar document: %v", err)
	}

	var radarStore *store.Radar
	if doc == nil {
		log.Print("[Startup] No radar document found, seeding the default portals")
		radarStore = store.NewRadar(store.SeedInstitutions())
		if err := dbStore.SaveDocument(ctx, radarStore.Snapshot()); err != nil {
			log.Fatalf("Failed to save seed document: %v", err)
		}
	} else {
		radarStore = store.NewRadar(doc.Institutions)
	}

	persistence := store.NewPersistence(dbStore, 0)
	radarStore.Subscribe(persistence.Listener())

	var aiClient *ai.GeminiClient
	if cfg.GeminiAPIKey != "" {
		aiClient, err = ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbedModel)
		if err != nil {
			log.Printf("[Startup] Gemini client unavailable, generic search disabled: %v", err)
		}
	} else {
		log.Print("[Startup] GEMINI_API_KEY is not set, generic search disabled")
	}

	registry, err := radar.LoadRegistry(os.Getenv("CONNECTORS_FILE"))
	if err != nil {
		log.Fatalf("Failed to load connector registry: %v", err)
	}

	// Institutions no registry rule matches fall through to the generic AI
	// search; without a Gemini key they get the stub placeholder instead.
	var defaultCon radar.Connector
	if aiClient != nil {
		defaultCon = radar.NewSearchConnector(aiClient)
	}
	router := radar.BuildRouter(registry, radar.DefaultFactory(), defaultCon)

	scanner := radar.NewScanner(router, radarStore, cfg.ScanRange)
	scanner.Recorder = dbStore
	if aiClient != nil {
		scanner.EmbedFn = aiClient.Embed
	}
	if cfg.ProbeEnabled {
		scanner.Probe = radar.NewPortalProbe(cfg.ProbeTimeout)
	}

	if cfg.ScheduleEnabled {
		radar.StartScheduler(ctx, scanner, cfg.ScheduleInterval)
	}

	authService := auth.NewService(cfg.AdminPassword, cfg.AdminPasswordHash)
	srv := api.NewServer(radarStore, scanner, authService, dbStore, aiClient, api.Options{
		CORSOrigins: cfg.CORSOrigins,
	})

	// Flush the pending document write on shutdown.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Print("[Shutdown] Flushing pending writes")
		persistence.Flush()
		srv.Echo.Shutdown(context.Background())
	}()

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil {
		log.Print(err)
	}
	persistence.Flush()
}
