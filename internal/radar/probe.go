package radar

import (
	"context"
	"net/http"
	"time"

	"licitaradar/internal/models"
)

// PortalProbe checks whether a portal URL answers at all, feeding the
// card's online/offline badge. Distinct from the connectors: a portal can be
// up while its data source is empty, and vice versa.
type PortalProbe struct {
	Client *http.Client
}

func NewPortalProbe(timeout time.Duration) *PortalProbe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PortalProbe{
		Client: &http.Client{Timeout: timeout},
	}
}

// Probe returns StatusOnline or StatusOffline. Any response at all counts as
// online; portals routinely answer licitações pages with odd status codes.
func (p *PortalProbe) Probe(ctx context.Context, portalURL string) string {
	if portalURL == "" {
		return models.StatusUnknown
	}

	req, err := http.NewRequestWithContext(ctx, "HEAD", portalURL, nil)
	if err != nil {
		return models.StatusUnknown
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return models.StatusOffline
	}
	resp.Body.Close()

	return models.StatusOnline
}
