package store

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"licitaradar/internal/models"
)

// Listener is notified with a full document snapshot after every mutation.
type Listener func(doc models.RadarDocument)

// Radar owns the shared institution collection. The orchestrator, the API
// handlers and the persistence layer all go through it; nobody else holds the
// slice. All merges are id-keyed over the full collection, so institutions
// outside an active dashboard filter are never dropped.
type Radar struct {
	mu           sync.RWMutex
	institutions []models.Institution
	lastUpdated  time.Time
	listeners    []Listener
}

func NewRadar(initial []models.Institution) *Radar {
	insts := make([]models.Institution, len(initial))
	copy(insts, initial)
	return &Radar{institutions: insts}
}

// List returns a copy of the full collection in stored order.
func (r *Radar) List() []models.Institution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Institution, len(r.institutions))
	copy(out, r.institutions)
	return out
}

// Filtered returns the derived view the dashboard shows: state is either a
// long-form name or "All"; q matches case-insensitively against initials and
// state. A global scan snapshots this view's IDs at start time.
func (r *Radar) Filtered(state, q string) []models.Institution {
	q = strings.ToLower(strings.TrimSpace(q))

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Institution
	for _, inst := range r.institutions {
		if state != "" && state != "All" && inst.State != state {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(inst.Initials), q) &&
			!strings.Contains(strings.ToLower(inst.State), q) {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// Get looks up one institution by id.
func (r *Radar) Get(id string) (models.Institution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inst := range r.institutions {
		if inst.ID == id {
			return inst, true
		}
	}
	return models.Institution{}, false
}

// Add inserts a new institution at the head of the list (newest card first,
// matching the dashboard) and returns it with its generated id.
func (r *Radar) Add(inst models.Institution) models.Institution {
	if inst.ID == "" {
		inst.ID = uuid.NewString()[:8]
	}
	if inst.Status == "" {
		inst.Status = models.StatusOnline
	}

	r.mu.Lock()
	r.institutions = append([]models.Institution{inst}, r.institutions...)
	r.touchLocked()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return inst
}

// Patch carries the editable identity fields; nil means "leave unchanged".
type Patch struct {
	Name     *string
	State    *string
	Initials *string
	URL      *string
}

// Upsert applies an identity patch to an existing institution.
func (r *Radar) Upsert(id string, patch Patch) (models.Institution, bool) {
	r.mu.Lock()
	idx := r.indexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return models.Institution{}, false
	}

	inst := &r.institutions[idx]
	if patch.Name != nil {
		inst.Name = *patch.Name
	}
	if patch.State != nil {
		inst.State = *patch.State
	}
	if patch.Initials != nil {
		inst.Initials = *patch.Initials
	}
	if patch.URL != nil {
		inst.URL = *patch.URL
	}

	updated := *inst
	r.touchLocked()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return updated, true
}

// ApplyScan merges one scan attempt's outcome: lastChecked and lastResults are
// replaced, never appended to. status is the portal probe verdict; pass ""
// to keep the current one.
func (r *Radar) ApplyScan(id string, checkedAt time.Time, results []models.Opportunity, status string) bool {
	r.mu.Lock()
	idx := r.indexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}

	inst := &r.institutions[idx]
	inst.LastChecked = checkedAt.UTC().Format(time.RFC3339)
	inst.LastResults = results
	if status != "" {
		inst.Status = status
	}

	r.touchLocked()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return true
}

// Remove deletes an institution by id.
func (r *Radar) Remove(id string) bool {
	r.mu.Lock()
	idx := r.indexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}

	r.institutions = append(r.institutions[:idx], r.institutions[idx+1:]...)
	r.touchLocked()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return true
}

// Subscribe registers a listener invoked after every mutation with a full
// snapshot. Listeners run on the mutating goroutine and should return fast;
// the persistence subscriber debounces internally.
func (r *Radar) Subscribe(fn Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Snapshot returns the full document as it would be persisted.
func (r *Radar) Snapshot() models.RadarDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Radar) indexLocked(id string) int {
	for i, inst := range r.institutions {
		if inst.ID == id {
			return i
		}
	}
	return -1
}

func (r *Radar) touchLocked() {
	r.lastUpdated = time.Now().UTC()
}

func (r *Radar) snapshotLocked() models.RadarDocument {
	insts := make([]models.Institution, len(r.institutions))
	copy(insts, r.institutions)
	return models.RadarDocument{
		Institutions: insts,
		LastUpdated:  r.lastUpdated.Format(time.RFC3339),
	}
}

func (r *Radar) notify(doc models.RadarDocument) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn(doc)
	}
}
