package store

import (
	"context"
	"log"
	"sync"
	"time"

	"licitaradar/internal/models"
)

// DocumentSaver is the remote side of persistence; *db.Store implements it.
type DocumentSaver interface {
	SaveDocument(ctx context.Context, doc models.RadarDocument) error
}

// Persistence mirrors the in-memory collection to the remote document store.
// Mutations arrive through the store's Subscribe hook; writes are debounced so
// a scan that merges twenty institutions back-to-back produces a handful of
// full-snapshot writes, not twenty. A write failure is logged and never blocks
// the in-memory state.
type Persistence struct {
	saver    DocumentSaver
	debounce time.Duration

	mu      sync.Mutex
	pending *models.RadarDocument
	timer   *time.Timer
}

func NewPersistence(saver DocumentSaver, debounce time.Duration) *Persistence {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Persistence{saver: saver, debounce: debounce}
}

// Listener returns the callback to register with Radar.Subscribe.
func (p *Persistence) Listener() Listener {
	return func(doc models.RadarDocument) {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.pending = &doc
		if p.timer == nil {
			p.timer = time.AfterFunc(p.debounce, p.flush)
		} else {
			p.timer.Reset(p.debounce)
		}
	}
}

func (p *Persistence) flush() {
	p.mu.Lock()
	doc := p.pending
	p.pending = nil
	p.mu.Unlock()

	if doc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := p.saver.SaveDocument(ctx, *doc); err != nil {
		log.Printf("[Persist] Failed to save radar document: %v", err)
	}
}

// Flush writes any pending snapshot immediately. Called on shutdown.
func (p *Persistence) Flush() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()
	p.flush()
}
