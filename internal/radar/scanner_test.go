package radar

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"licitaradar/internal/models"
	"licitaradar/internal/store"
)

// scriptedConnector returns a fixed result per institution and records the
// call order. When gated, every Fetch announces itself and blocks until
// released, so tests can interleave with a running scan.
type scriptedConnector struct {
	mu      sync.Mutex
	calls   []string
	results map[string]FetchResult

	started chan string
	release chan struct{}
}

func (c *scriptedConnector) Name() string { return "scripted" }

func (c *scriptedConnector) Fetch(_ context.Context, inst models.Institution, _ string) FetchResult {
	c.mu.Lock()
	c.calls = append(c.calls, inst.Initials)
	c.mu.Unlock()

	if c.started != nil {
		c.started <- inst.Initials
		<-c.release
	}

	res, ok := c.results[inst.Initials]
	if !ok {
		return Empty()
	}
	return res
}

func (c *scriptedConnector) callOrder() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func scanTargets() []models.Institution {
	return []models.Institution{
		{ID: "a", Name: "SESC", State: "Rio Grande do Norte", Initials: "SESC RN", URL: "https://a.example"},
		{ID: "b", Name: "SENAI", State: "São Paulo", Initials: "SENAI SP", URL: "https://b.example"},
		{ID: "c", Name: "SEBRAE", State: "Bahia", Initials: "SEBRAE BA", URL: "https://c.example"},
	}
}

func newTestScanner(conn Connector, insts []models.Institution) (*Scanner, *store.Radar) {
	radarStore := store.NewRadar(insts)
	return NewScanner(NewRouter(conn), radarStore, "últimos 15 dias"), radarStore
}

func waitDone(t *testing.T, handle *ScanHandle) {
	t.Helper()
	select {
	case <-handle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not finish in time")
	}
}

func TestScanSequentialAndFailSoft(t *testing.T) {
	conn := &scriptedConnector{results: map[string]FetchResult{
		"SESC RN":   Found([]models.Opportunity{{Title: "Pregão 1"}}),
		"SENAI SP":  Failed("relay down"),
		"SEBRAE BA": Found([]models.Opportunity{{Title: "Edital 2"}, {Title: "Edital 3"}}),
	}}
	scanner, radarStore := newTestScanner(conn, scanTargets())

	handle, err := scanner.StartScan(context.Background(), radarStore.List(), "api")
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	waitDone(t, handle)

	order := conn.callOrder()
	want := []string{"SESC RN", "SENAI SP", "SEBRAE BA"}
	if len(order) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("targets out of order: %v", order)
		}
	}

	a, _ := radarStore.Get("a")
	if len(a.LastResults) != 1 || a.LastResults[0].Title != "Pregão 1" {
		t.Errorf("target a not merged: %+v", a.LastResults)
	}
	b, _ := radarStore.Get("b")
	if len(b.LastResults) != 1 || b.LastResults[0].Title != "Erro de conexão" {
		t.Errorf("failed target should carry the error placeholder: %+v", b.LastResults)
	}
	if b.LastChecked == "" {
		t.Error("failed target must still record lastChecked")
	}
	c, _ := radarStore.Get("c")
	if len(c.LastResults) != 2 {
		t.Errorf("scan should continue past a failure: %+v", c.LastResults)
	}

	stats := handle.Status()
	if stats.Status != "completed" {
		t.Errorf("expected completed, got %s", stats.Status)
	}
	if stats.Found != 2 || stats.Failed != 1 || stats.Empty != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if scanner.IsScanning() {
		t.Error("scanning flag not cleared")
	}
}

func TestScanReplacesResults(t *testing.T) {
	insts := scanTargets()
	insts[0].LastResults = []models.Opportunity{{Title: "old 1"}, {Title: "old 2"}}

	conn := &scriptedConnector{results: map[string]FetchResult{
		"SESC RN": Found([]models.Opportunity{{Title: "new"}}),
	}}
	scanner, radarStore := newTestScanner(conn, insts)

	handle, err := scanner.StartScan(context.Background(), radarStore.List()[:1], "api")
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	waitDone(t, handle)

	a, _ := radarStore.Get("a")
	if len(a.LastResults) != 1 || a.LastResults[0].Title != "new" {
		t.Errorf("lastResults must be replaced, not appended: %+v", a.LastResults)
	}
}

func TestScanRejectsConcurrentStart(t *testing.T) {
	conn := &scriptedConnector{
		started: make(chan string),
		release: make(chan struct{}, 3),
	}
	scanner, radarStore := newTestScanner(conn, scanTargets())

	handle, err := scanner.StartScan(context.Background(), radarStore.List(), "api")
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	<-conn.started // first target in flight

	if _, err := scanner.StartScan(context.Background(), radarStore.List(), "api"); !errors.Is(err, ErrScanRunning) {
		t.Errorf("expected ErrScanRunning, got %v", err)
	}
	if !scanner.IsScanning() {
		t.Error("scanning flag should be set mid-scan")
	}

	conn.release <- struct{}{}
	conn.release <- struct{}{}
	conn.release <- struct{}{}
	<-conn.started
	<-conn.started
	waitDone(t, handle)

	if _, err := scanner.StartScan(context.Background(), radarStore.List(), "api"); err != nil {
		t.Errorf("a finished scan should not block a new one: %v", err)
	}
}

func TestScanCancellation(t *testing.T) {
	conn := &scriptedConnector{
		results: map[string]FetchResult{
			"SESC RN": Found([]models.Opportunity{{Title: "merged before cancel"}}),
		},
		started: make(chan string),
		release: make(chan struct{}, 3),
	}
	scanner, radarStore := newTestScanner(conn, scanTargets())

	handle, err := scanner.StartScan(context.Background(), radarStore.List(), "api")
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	<-conn.started // first target in flight
	handle.Cancel()
	conn.release <- struct{}{} // let the in-flight fetch finish
	waitDone(t, handle)

	if got := conn.callOrder(); len(got) != 1 {
		t.Errorf("cancellation should stop before the next target, got calls %v", got)
	}

	// The in-flight target still merged.
	a, _ := radarStore.Get("a")
	if len(a.LastResults) != 1 || a.LastResults[0].Title != "merged before cancel" {
		t.Errorf("in-flight result should stay merged: %+v", a.LastResults)
	}
	// Untouched targets keep their state.
	b, _ := radarStore.Get("b")
	if b.LastChecked != "" {
		t.Errorf("unscanned target should be untouched, lastChecked=%s", b.LastChecked)
	}

	if status := handle.Status().Status; status != "cancelled" {
		t.Errorf("expected cancelled, got %s", status)
	}
	if scanner.IsScanning() {
		t.Error("scanning flag not cleared after cancellation")
	}
}

// stripVolatile clears the per-scan fields that legitimately differ between
// two runs over identical sources: the check timestamp and the random item ids.
func stripVolatile(insts []models.Institution) []models.Institution {
	out := append([]models.Institution(nil), insts...)
	for i := range out {
		out[i].LastChecked = ""
		results := append([]models.Opportunity(nil), out[i].LastResults...)
		for j := range results {
			results[j].ID = ""
		}
		out[i].LastResults = results
	}
	return out
}

func TestScanTwiceIsIdempotent(t *testing.T) {
	conn := &scriptedConnector{results: map[string]FetchResult{
		"SESC RN":   Found([]models.Opportunity{{Title: "Pregão 1", Date: "15/01/2026"}}),
		"SENAI SP":  Failed("relay down"),
		"SEBRAE BA": Empty(),
	}}
	scanner, radarStore := newTestScanner(conn, scanTargets())

	runScan := func() []models.Institution {
		t.Helper()
		handle, err := scanner.StartScan(context.Background(), radarStore.List(), "api")
		if err != nil {
			t.Fatalf("StartScan: %v", err)
		}
		waitDone(t, handle)
		return radarStore.List()
	}

	first := runScan()
	second := runScan()

	if !reflect.DeepEqual(stripVolatile(first), stripVolatile(second)) {
		t.Errorf("two scans over identical sources diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// ctxAwareConnector surfaces request-context cancellation the way a real
// HTTP-backed connector would: a dead context becomes a Failed outcome.
type ctxAwareConnector struct {
	started chan string
	release chan struct{}
}

func (c *ctxAwareConnector) Name() string { return "ctx_aware" }

func (c *ctxAwareConnector) Fetch(ctx context.Context, inst models.Institution, _ string) FetchResult {
	c.started <- inst.Initials
	<-c.release
	if ctx.Err() != nil {
		return Failed(ctx.Err().Error())
	}
	return Found([]models.Opportunity{{Title: "concluído após cancelamento"}})
}

func TestScanCancelKeepsInFlightFetchAlive(t *testing.T) {
	conn := &ctxAwareConnector{
		started: make(chan string),
		release: make(chan struct{}, 1),
	}

	insts := scanTargets()[:1]
	insts[0].LastResults = []models.Opportunity{{Title: "resultado anterior"}}
	scanner, radarStore := newTestScanner(conn, insts)

	handle, err := scanner.StartScan(context.Background(), radarStore.List(), "api")
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	<-conn.started // fetch in flight
	handle.Cancel()
	conn.release <- struct{}{}
	waitDone(t, handle)

	a, _ := radarStore.Get("a")
	if len(a.LastResults) != 1 {
		t.Fatalf("expected one merged record, got %d", len(a.LastResults))
	}
	if a.LastResults[0].Title == "Erro de conexão" {
		t.Fatal("cancel must not turn the in-flight fetch into an error placeholder")
	}
	if a.LastResults[0].Title != "concluído após cancelamento" {
		t.Errorf("in-flight fetch should finish and merge: %+v", a.LastResults)
	}

	// The cancel arrived during the final target: its merge is kept, but the
	// run must still report cancelled rather than a clean completion.
	if status := handle.Status().Status; status != "cancelled" {
		t.Errorf("expected cancelled, got %s", status)
	}
}

func TestCheckInstitution(t *testing.T) {
	conn := &scriptedConnector{results: map[string]FetchResult{
		"SESC RN": Found([]models.Opportunity{{Title: "single check"}}),
	}}
	scanner, radarStore := newTestScanner(conn, scanTargets())

	inst, _ := radarStore.Get("a")
	results := scanner.CheckInstitution(context.Background(), inst)

	if len(results) != 1 || results[0].Title != "single check" {
		t.Errorf("unexpected results: %+v", results)
	}
	if scanner.IsScanning() {
		t.Error("single check must not set the scanning flag")
	}

	// Other institutions untouched.
	b, _ := radarStore.Get("b")
	if b.LastChecked != "" {
		t.Errorf("single check touched another institution: %s", b.LastChecked)
	}
}
