package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"licitaradar/internal/ai"
	"licitaradar/internal/config"
	"licitaradar/internal/db"
	"licitaradar/internal/radar"
	"licitaradar/internal/store"
)

// One-off scan from the command line: loads the persisted radar document,
// scans the (optionally filtered) institutions, persists the result and prints
// run history.
func main() {
	state := flag.String("state", "", "only scan institutions in this state")
	query := flag.String("q", "", "only scan institutions matching this text")
	historyOnly := flag.Bool("history", false, "print recent runs without scanning")
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

	if !*historyOnly {
		runScan(ctx, cfg, dbStore, *state, *query)
	}

	printHistory(ctx, dbStore)
}

func runScan(ctx context.Context, cfg config.Config, dbStore *db.Store, state, query string) {
	doc, err := dbStore.LoadDocument(ctx)
	if err != nil {
		log.Fatalf("Failed to load radar document: %v", err)
	}
	if doc == nil {
		log.Fatal("No radar document found; seed it first (cmd/tools/seed)")
	}
	radarStore := store.NewRadar(doc.Institutions)

	var aiClient *ai.GeminiClient
	if cfg.GeminiAPIKey != "" {
		aiClient, err = ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbedModel)
		if err != nil {
			log.Printf("Gemini client unavailable, generic search disabled: %v", err)
		}
	}

	registry, err := radar.LoadRegistry(os.Getenv("CONNECTORS_FILE"))
	if err != nil {
		log.Fatalf("Failed to load connector registry: %v", err)
	}
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

	targets := radarStore.Filtered(state, query)
	if len(targets) == 0 {
		log.Fatal("No institutions match the scan filter")
	}

	handle, err := scanner.StartScan(ctx, targets, "cli")
	if err != nil {
		log.Fatalf("Failed to start scan: %v", err)
	}
	<-handle.Done()

	if err := dbStore.SaveDocument(ctx, radarStore.Snapshot()); err != nil {
		log.Fatalf("Failed to save radar document: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Institution", "State", "Status", "Results", "Checked"})
	for _, inst := range radarStore.List() {
		t.AppendRow(table.Row{inst.Initials, inst.State, inst.Status, len(inst.LastResults), inst.LastChecked})
	}
	t.Render()
}

func printHistory(ctx context.Context, dbStore *db.Store) {
	runs, err := dbStore.RecentRuns(ctx, 10)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Run", "Trigger", "Status", "Targets", "Found", "Empty", "Failed", "Duration", "Started At"})
	for _, run := range runs {
		duration := "Running..."
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		t.AppendRow(table.Row{run.RunID, run.Trigger, run.Status, run.Targets, run.Found, run.Empty, run.Failed, duration, run.StartedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
}
