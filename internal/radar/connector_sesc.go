package radar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"licitaradar/internal/models"
)

// SESCConnector calls the SESC licitações JSON endpoint through a CORS relay.
// The target host is plain HTTP, so the dashboard's HTTPS origin cannot call
// it directly; the relay fetches on our behalf and wraps the body verbatim in
// a {"contents": "..."} envelope, which we then parse as JSON ourselves.
type SESCConnector struct {
	Client    *http.Client
	Endpoint  string // the real licitações endpoint
	RelayBase string // e.g. https://api.allorigins.win/get
}

func NewSESCConnector(endpoint, relayBase string) *SESCConnector {
	if relayBase == "" {
		relayBase = "https://api.allorigins.win/get"
	}
	return &SESCConnector{
		Client:    &http.Client{Timeout: 30 * time.Second},
		Endpoint:  endpoint,
		RelayBase: relayBase,
	}
}

func (c *SESCConnector) Name() string { return "api_sesc" }

// relayEnvelope is the relay's wrapper; contents is the raw upstream body.
type relayEnvelope struct {
	Contents string `json:"contents"`
}

// licitacaoItem is one entry of the upstream JSON array.
type licitacaoItem struct {
	ID             json.Number    `json:"id"`
	Modalidade     string         `json:"modalidade"`
	Objeto         string         `json:"objeto"`
	DataAbertura   string         `json:"data_abertura"`
	DataPublicacao string         `json:"data_publicacao"`
	Anexos         []licitacaoDoc `json:"anexos"`
}

type licitacaoDoc struct {
	URL string `json:"url"`
}

// Fetch retrieves and maps the licitações list. Every failure degrades to a
// Failed outcome; a reachable but empty list is Empty. This connector must
// never abort a batch scan.
func (c *SESCConnector) Fetch(ctx context.Context, inst models.Institution, _ string) FetchResult {
	relayURL := fmt.Sprintf("%s?url=%s", c.RelayBase, url.QueryEscape(c.Endpoint))

	req, err := http.NewRequestWithContext(ctx, "GET", relayURL, nil)
	if err != nil {
		return Failed(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("relay request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Failed(fmt.Sprintf("relay returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var envelope relayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Failed(fmt.Sprintf("decoding relay envelope: %v", err))
	}

	if strings.TrimSpace(envelope.Contents) == "" {
		return Empty()
	}

	var entries []licitacaoItem
	if err := json.Unmarshal([]byte(envelope.Contents), &entries); err != nil {
		return Failed(fmt.Sprintf("parsing licitações payload: %v", err))
	}
	if len(entries) == 0 {
		return Empty()
	}

	items := make([]models.Opportunity, 0, len(entries))
	for _, entry := range entries {
		items = append(items, c.mapEntry(ctx, entry, inst))
	}

	return Found(items)
}

func (c *SESCConnector) mapEntry(ctx context.Context, entry licitacaoItem, inst models.Institution) models.Opportunity {
	modalidade := strings.TrimSpace(entry.Modalidade)
	if modalidade == "" {
		modalidade = "Licitação"
	}

	objeto := strings.TrimSpace(entry.Objeto)
	if objeto == "" {
		objeto = "Objeto não detalhado"
	}

	// Opening date preferred, publication date as fallback.
	date := strings.TrimSpace(entry.DataAbertura)
	if date == "" {
		date = strings.TrimSpace(entry.DataPublicacao)
	}

	link := inst.URL
	if len(entry.Anexos) > 0 && entry.Anexos[0].URL != "" {
		link = entry.Anexos[0].URL
	}

	// Some entries publish neither date field but attach the edital PDF; try
	// to pull a date candidate out of the document. Fails soft.
	if date == "" && strings.HasSuffix(strings.ToLower(link), ".pdf") {
		if extracted, err := extractDateFromPDF(ctx, c.Client, link); err == nil {
			date = extracted
		}
	}

	return models.Opportunity{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("%s nº %s", modalidade, entry.ID.String()),
		Date:        date,
		Description: objeto,
		Link:        link,
		Institution: inst.Name,
		IsNew:       true,
	}
}
