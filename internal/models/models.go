package models

import "time"

// Institution status values. "unknown" means the portal has never been probed.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusUnknown = "unknown"
)

// Institution is one monitored procurement portal card.
// JSON field names match the dashboard payload, so the whole collection can be
// stored and served as a single document.
type Institution struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`     // program acronym, e.g. "SENAI"
	State       string        `json:"state"`    // e.g. "Rio Grande do Norte"
	Initials    string        `json:"initials"` // display label, e.g. "SENAI RN"
	URL         string        `json:"url"`
	Status      string        `json:"status"`
	LastChecked string        `json:"lastChecked,omitempty"` // RFC3339
	LastResults []Opportunity `json:"lastResults,omitempty"`
}

// Opportunity is one posting found for an institution's latest scan.
// lastResults always holds the output of exactly one scan attempt; a new scan
// replaces it, it never accumulates.
type Opportunity struct {
	ID          string `json:"id"` // random per item, not content-derived
	Title       string `json:"title"`
	Date        string `json:"date"` // display string, e.g. "15/01/2026"
	Description string `json:"description"`
	Link        string `json:"link"`
	Institution string `json:"institution"` // parent institution name, denormalized
	IsNew       bool   `json:"isNew"`
}

// RadarDocument is the single persisted document: the full institution
// collection plus the time of the last mutation.
type RadarDocument struct {
	Institutions []Institution `json:"institutions"`
	LastUpdated  string        `json:"lastUpdated"`
}

// ScanRun records one orchestrator pass for the history table.
type ScanRun struct {
	RunID       string     `json:"run_id"`
	Trigger     string     `json:"trigger"` // api, schedule, cli
	Status      string     `json:"status"`  // running, completed, cancelled, failed
	Targets     int        `json:"targets"`
	Found       int        `json:"found"`
	Empty       int        `json:"empty"`
	Failed      int        `json:"failed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
