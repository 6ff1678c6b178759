package radar

import (
	"context"

	"licitaradar/internal/models"
)

// Outcome tags a connector result.
type Outcome string

const (
	// OutcomeFound means the connector returned one or more real items.
	OutcomeFound Outcome = "found"
	// OutcomeEmpty means the source was reached but yielded nothing.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means the fetch or parse failed. Connectors convert every
	// failure into this outcome; no error ever reaches the orchestrator.
	OutcomeFailed Outcome = "failed"
)

// FetchResult is the uniform return shape of every connector.
// Items is only meaningful for OutcomeFound; Reason only for OutcomeFailed.
type FetchResult struct {
	Outcome Outcome
	Items   []models.Opportunity
	Reason  string
}

func Found(items []models.Opportunity) FetchResult {
	if len(items) == 0 {
		return Empty()
	}
	return FetchResult{Outcome: OutcomeFound, Items: items}
}

func Empty() FetchResult {
	return FetchResult{Outcome: OutcomeEmpty}
}

func Failed(reason string) FetchResult {
	return FetchResult{Outcome: OutcomeFailed, Reason: reason}
}

// Connector fetches recent opportunities for one institution. Implementations
// are fail-soft: they report problems through the Outcome, never by panicking
// or returning an error.
type Connector interface {
	// Name identifies the connector in logs and scan stats.
	Name() string
	// Fetch retrieves the latest postings for the institution. The range hint
	// (e.g. "últimos 15 dias") constrains search-based connectors.
	Fetch(ctx context.Context, inst models.Institution, rangeHint string) FetchResult
}
