package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"licitaradar/internal/models"
)

// RadarDocID keys the single dashboard document. There is exactly one radar
// per deployment.
const RadarDocID = "meu_radar_id"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// LoadDocument reads the radar document. Returns (nil, nil) when none has
// been persisted yet, so the caller can seed defaults.
func (s *Store) LoadDocument(ctx context.Context) (*models.RadarDocument, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		"SELECT payload FROM radar_documents WHERE doc_id = $1", RadarDocID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading radar document: %w", err)
	}

	var doc models.RadarDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decoding radar document: %w", err)
	}
	return &doc, nil
}

// SaveDocument overwrites the radar document with a full snapshot.
// Last-writer-wins; acceptable for a single-user tool.
func (s *Store) SaveDocument(ctx context.Context, doc models.RadarDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding radar document: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO radar_documents (doc_id, payload, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (doc_id) DO UPDATE SET payload = $2, last_updated = NOW()
	`, RadarDocID, payload)
	if err != nil {
		return fmt.Errorf("saving radar document: %w", err)
	}
	return nil
}

// CreateScanRun records the start of an orchestrator pass.
func (s *Store) CreateScanRun(ctx context.Context, run models.ScanRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_runs (run_id, trigger, status, targets, started_at)
		VALUES ($1, $2, 'running', $3, $4)
	`, run.RunID, run.Trigger, run.Targets, run.StartedAt)
	return err
}

// CompleteScanRun updates the run record on exit.
func (s *Store) CompleteScanRun(ctx context.Context, run models.ScanRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE scan_runs SET
			status = $1,
			found = $2,
			empty = $3,
			failed = $4,
			completed_at = NOW()
		WHERE run_id = $5
	`, run.Status, run.Found, run.Empty, run.Failed, run.RunID)
	return err
}

// RecentRuns returns the latest scan runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.ScanRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, trigger, status, targets, found, empty, failed, started_at, completed_at
		FROM scan_runs ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScanRun
	for rows.Next() {
		var run models.ScanRun
		if err := rows.Scan(&run.RunID, &run.Trigger, &run.Status, &run.Targets,
			&run.Found, &run.Empty, &run.Failed, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ArchiveOpportunities stores the real items one scan found for one
// institution, with an optional embedding per item. Embedding failures are
// tolerated: the row is archived without a vector.
func (s *Store) ArchiveOpportunities(ctx context.Context, runID string, inst models.Institution,
	items []models.Opportunity, embed func(context.Context, string) ([]float32, error)) error {

	for _, item := range items {
		if !item.IsNew {
			continue // skip synthetic placeholders
		}

		var vec interface{}
		if embed != nil {
			if values, err := embed(ctx, item.Title+"\n"+item.Description); err == nil && len(values) > 0 {
				vec = pgvector.NewVector(values)
			}
		}

		id := item.ID
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		_, err := s.pool.Exec(ctx, `
			INSERT INTO opportunity_archive
				(id, run_id, institution_id, institution, title, description, link, date_label, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`, id, runID, inst.ID, inst.Name, item.Title, item.Description, item.Link, item.Date, vec)
		if err != nil {
			return fmt.Errorf("archiving %q: %w", item.Title, err)
		}
	}
	return nil
}

// ArchiveEntry is one archived posting returned by search.
type ArchiveEntry struct {
	ID          string    `json:"id"`
	Institution string    `json:"institution"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	DateLabel   string    `json:"date"`
	FoundAt     time.Time `json:"found_at"`
}

// SearchArchive looks up past postings. With an embedding it ranks by vector
// distance; without one it falls back to keyword matching.
func (s *Store) SearchArchive(ctx context.Context, query string, embedding []float32, limit int) ([]ArchiveEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if len(embedding) > 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT id, institution, title, description, link, date_label, found_at
			FROM opportunity_archive
			WHERE embedding IS NOT NULL
			ORDER BY embedding <=> $1
			LIMIT $2
		`, pgvector.NewVector(embedding), limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, institution, title, description, link, date_label, found_at
			FROM opportunity_archive
			WHERE title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
			ORDER BY found_at DESC
			LIMIT $2
		`, query, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ArchiveEntry
	for rows.Next() {
		var e ArchiveEntry
		if err := rows.Scan(&e.ID, &e.Institution, &e.Title, &e.Description, &e.Link, &e.DateLabel, &e.FoundAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
