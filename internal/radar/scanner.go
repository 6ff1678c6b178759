package radar

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"licitaradar/internal/models"
	"licitaradar/internal/store"
)

// ErrScanRunning is returned when a global scan is requested while another is
// still in flight.
var ErrScanRunning = errors.New("a scan is already running")

// maxScanDuration bounds a detached background scan.
const maxScanDuration = 30 * time.Minute

// Recorder persists scan history and the opportunity archive. *db.Store
// implements it; a nil Recorder disables both.
type Recorder interface {
	CreateScanRun(ctx context.Context, run models.ScanRun) error
	CompleteScanRun(ctx context.Context, run models.ScanRun) error
	ArchiveOpportunities(ctx context.Context, runID string, inst models.Institution,
		items []models.Opportunity, embed func(context.Context, string) ([]float32, error)) error
}

// Scanner drives the per-institution refresh pipeline: route, fetch,
// normalize, merge. Targets are processed strictly one at a time so every
// merge is visible before the next connector call starts and the external
// sources never see concurrent requests from us.
type Scanner struct {
	Router    *Router
	Radar     *store.Radar
	RangeHint string

	Probe    *PortalProbe // nil disables status probing
	Recorder Recorder     // nil disables history + archive
	EmbedFn  func(context.Context, string) ([]float32, error)

	mu      sync.Mutex
	current *ScanHandle
}

func NewScanner(router *Router, radar *store.Radar, rangeHint string) *Scanner {
	return &Scanner{
		Router:    router,
		Radar:     radar,
		RangeHint: rangeHint,
	}
}

// ScanHandle tracks one global scan. Cancel stops the loop before the next
// target; the in-flight fetch keeps its context and its merge is kept.
type ScanHandle struct {
	ID        string
	Trigger   string
	StartedAt time.Time

	cancelled  chan struct{}
	cancelOnce sync.Once
	done       chan struct{}

	mu    sync.Mutex
	stats models.ScanRun
}

// Cancel requests the scan to stop. Safe to call more than once. The request
// is deliberately decoupled from the scan context: cancelling must not turn
// the fetch already in flight into a connection-error placeholder.
func (h *ScanHandle) Cancel() {
	h.cancelOnce.Do(func() { close(h.cancelled) })
}

func (h *ScanHandle) isCancelled() bool {
	select {
	case <-h.cancelled:
		return true
	default:
		return false
	}
}

// Done is closed when the scan loop has exited.
func (h *ScanHandle) Done() <-chan struct{} {
	return h.done
}

// Status returns a snapshot of the run's progress.
func (h *ScanHandle) Status() models.ScanRun {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *ScanHandle) update(fn func(*models.ScanRun)) {
	h.mu.Lock()
	fn(&h.stats)
	h.mu.Unlock()
}

// IsScanning reports whether a global scan is in flight.
func (s *Scanner) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.Status().Status == "running"
}

// Current returns the newest scan handle, finished or not, or nil.
func (s *Scanner) Current() *ScanHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StartScan launches a background scan over the given target snapshot. The
// list is fixed here: filter changes during the scan do not alter it. Only
// one scan runs at a time.
func (s *Scanner) StartScan(ctx context.Context, targets []models.Institution, trigger string) (*ScanHandle, error) {
	s.mu.Lock()
	if s.current != nil && s.current.Status().Status == "running" {
		s.mu.Unlock()
		return nil, ErrScanRunning
	}

	// Detach from the caller's lifecycle (an HTTP request may end long before
	// the scan does) but keep our own upper bound.
	scanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), maxScanDuration)

	handle := &ScanHandle{
		ID:        uuid.New().String()[:8],
		Trigger:   trigger,
		StartedAt: time.Now(),
		cancelled: make(chan struct{}),
		done:      make(chan struct{}),
		stats: models.ScanRun{
			Trigger:   trigger,
			Status:    "running",
			Targets:   len(targets),
			StartedAt: time.Now(),
		},
	}
	handle.stats.RunID = handle.ID
	s.current = handle
	s.mu.Unlock()

	if s.Recorder != nil {
		if err := s.Recorder.CreateScanRun(scanCtx, handle.Status()); err != nil {
			log.Printf("[Scan %s] Failed to create run record: %v", handle.ID, err)
		}
	}

	go func() {
		defer cancel()
		defer close(handle.done)
		s.runLoop(scanCtx, handle, targets)
	}()

	return handle, nil
}

func (s *Scanner) runLoop(ctx context.Context, handle *ScanHandle, targets []models.Institution) {
	log.Printf("[Scan %s] Starting: %d targets (%s)", handle.ID, len(targets), handle.Trigger)

	finalStatus := "completed"
	for _, target := range targets {
		// Cancellation is polled between targets only; the in-flight
		// connector call is allowed to finish and merge.
		if handle.isCancelled() || ctx.Err() != nil {
			finalStatus = "cancelled"
			log.Printf("[Scan %s] Cancelled after %d/%d targets", handle.ID, s.processed(handle), len(targets))
			break
		}

		outcome := s.scanTarget(ctx, target)
		handle.update(func(run *models.ScanRun) {
			switch outcome {
			case OutcomeFound:
				run.Found++
			case OutcomeEmpty:
				run.Empty++
			default:
				run.Failed++
			}
		})

		if s.Recorder != nil {
			s.recordArchive(ctx, handle.ID, target)
		}
	}

	// A cancel that landed while the final target was in flight still counts:
	// its merge is kept, but the run must not claim a clean completion.
	if finalStatus == "completed" && handle.isCancelled() {
		finalStatus = "cancelled"
	}

	handle.update(func(run *models.ScanRun) {
		run.Status = finalStatus
		now := time.Now()
		run.CompletedAt = &now
	})

	if s.Recorder != nil {
		// Best effort even when the scan context was cancelled.
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.Recorder.CompleteScanRun(flushCtx, handle.Status()); err != nil {
			log.Printf("[Scan %s] Failed to update run record: %v", handle.ID, err)
		}
	}

	stats := handle.Status()
	log.Printf("[Scan %s] %s: found=%d empty=%d failed=%d", handle.ID, finalStatus, stats.Found, stats.Empty, stats.Failed)
}

func (s *Scanner) processed(handle *ScanHandle) int {
	stats := handle.Status()
	return stats.Found + stats.Empty + stats.Failed
}

// CheckInstitution runs a single synchronous check and returns the merged
// results. Used by the card's reload button; it does not touch the global
// scanning state.
func (s *Scanner) CheckInstitution(ctx context.Context, inst models.Institution) []models.Opportunity {
	s.scanTarget(ctx, inst)
	updated, ok := s.Radar.Get(inst.ID)
	if !ok {
		return nil
	}
	return updated.LastResults
}

// scanTarget routes one institution to its connector and merges the
// normalized outcome into the full collection. Never returns an error: every
// failure is already folded into the result records.
func (s *Scanner) scanTarget(ctx context.Context, inst models.Institution) Outcome {
	status := ""
	if s.Probe != nil {
		status = s.Probe.Probe(ctx, inst.URL)
	}

	connector := s.Router.Route(inst.Name, inst.State)
	result := connector.Fetch(ctx, inst, s.RangeHint)
	if result.Outcome == OutcomeFailed {
		log.Printf("[Scan] %s via %s failed: %s", inst.Initials, connector.Name(), result.Reason)
	} else {
		log.Printf("[Scan] %s via %s: %s (%d items)", inst.Initials, connector.Name(), result.Outcome, len(result.Items))
	}

	results := NormalizeResult(result, inst)
	if !s.Radar.ApplyScan(inst.ID, time.Now(), results, status) {
		// Deleted mid-scan; the snapshot kept its id, nothing to merge into.
		log.Printf("[Scan] %s vanished during scan, skipping merge", inst.Initials)
	}

	return result.Outcome
}

func (s *Scanner) recordArchive(ctx context.Context, runID string, target models.Institution) {
	inst, ok := s.Radar.Get(target.ID)
	if !ok || len(inst.LastResults) == 0 {
		return
	}
	if err := s.Recorder.ArchiveOpportunities(ctx, runID, inst, inst.LastResults, s.EmbedFn); err != nil {
		log.Printf("[Scan %s] Archive failed for %s: %v", runID, inst.Initials, err)
	}
}
