package radar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"licitaradar/internal/models"
)

func listingServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
}

func listingSelectors() SelectorConfig {
	return SelectorConfig{
		Container: "div.licitacao",
		Title:     "h3",
		Link:      "a",
		Date:      "span.data",
		Content:   "p.objeto",
	}
}

func listingInstitution() models.Institution {
	return models.Institution{
		ID:       "4",
		Name:     "SENAI",
		State:    "Paraná",
		Initials: "SENAI PR",
		URL:      "https://www.senaipr.org.br/licitacoes",
	}
}

func TestHTMLListingConnectorMapsEntries(t *testing.T) {
	page := `<html><body>
		<div class="licitacao">
			<h3>Pregão Eletrônico nº 12/2026</h3>
			<a href="/editais/12.pdf">Edital</a>
			<span class="data">20/02/2026</span>
			<p class="objeto">Aquisição de mobiliário escolar</p>
		</div>
		<div class="licitacao">
			<h3></h3>
			<p class="objeto">entrada sem título é descartada</p>
		</div>
		<div class="licitacao">
			<h3>Concorrência nº 3/2026</h3>
		</div>
	</body></html>`
	ts := listingServer(t, page)
	defer ts.Close()

	conn := NewHTMLListingConnector(ts.URL+"/licitacoes", listingSelectors())
	res := conn.Fetch(context.Background(), listingInstitution(), "")

	if res.Outcome != OutcomeFound {
		t.Fatalf("expected found, got %s (%s)", res.Outcome, res.Reason)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}

	first := res.Items[0]
	if first.Title != "Pregão Eletrônico nº 12/2026" {
		t.Errorf("unexpected title: %s", first.Title)
	}
	if first.Link != ts.URL+"/editais/12.pdf" {
		t.Errorf("relative href should resolve against the page, got %s", first.Link)
	}
	if first.Date != "20/02/2026" {
		t.Errorf("unexpected date: %s", first.Date)
	}
	if first.Description != "Aquisição de mobiliário escolar" {
		t.Errorf("unexpected description: %s", first.Description)
	}
	if first.Institution != "SENAI" {
		t.Errorf("unexpected institution: %s", first.Institution)
	}
	if !first.IsNew {
		t.Error("scraped results should be flagged as new")
	}

	second := res.Items[1]
	if second.Link != listingInstitution().URL {
		t.Errorf("missing href should fall back to the portal URL, got %s", second.Link)
	}
	if second.Description != "Concorrência nº 3/2026" {
		t.Errorf("missing objeto should fall back to the title, got %s", second.Description)
	}
}

func TestHTMLListingConnectorEmptyOutcome(t *testing.T) {
	ts := listingServer(t, `<html><body><p>Nenhuma licitação em andamento.</p></body></html>`)
	defer ts.Close()

	conn := NewHTMLListingConnector(ts.URL, listingSelectors())
	res := conn.Fetch(context.Background(), listingInstitution(), "")
	if res.Outcome != OutcomeEmpty {
		t.Errorf("expected empty, got %s (%s)", res.Outcome, res.Reason)
	}
}

func TestHTMLListingConnectorFailedOutcomes(t *testing.T) {
	t.Run("server unreachable", func(t *testing.T) {
		ts := listingServer(t, "")
		ts.Close() // connection refused

		conn := NewHTMLListingConnector(ts.URL, listingSelectors())
		res := conn.Fetch(context.Background(), listingInstitution(), "")
		if res.Outcome != OutcomeFailed {
			t.Errorf("expected failed, got %s", res.Outcome)
		}
	})

	t.Run("invalid base URL", func(t *testing.T) {
		conn := NewHTMLListingConnector("://not-a-url", listingSelectors())
		res := conn.Fetch(context.Background(), listingInstitution(), "")
		if res.Outcome != OutcomeFailed {
			t.Errorf("expected failed, got %s", res.Outcome)
		}
		if !strings.Contains(res.Reason, "URL") {
			t.Errorf("reason should name the URL problem, got %q", res.Reason)
		}
	})
}
