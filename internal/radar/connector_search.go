package radar

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"licitaradar/internal/models"
)

// minInformativeLen is the threshold below which a search response is treated
// as "nothing found"; shorter texts are boilerplate, not results.
const minInformativeLen = 20

// Searcher is the generative-search capability: given an instruction with live
// web grounding, return free text. *ai.GeminiClient implements it.
type Searcher interface {
	Search(ctx context.Context, instruction string) (string, error)
}

// SearchConnector is the universal fallback for portals without a structured
// source: it asks the search capability to summarize recent postings and
// splits the free text into opportunity records.
type SearchConnector struct {
	Searcher Searcher // nil means no credential configured
	warnOnce sync.Once
}

func NewSearchConnector(s Searcher) *SearchConnector {
	return &SearchConnector{Searcher: s}
}

func (c *SearchConnector) Name() string { return "ai_search" }

func (c *SearchConnector) Fetch(ctx context.Context, inst models.Institution, rangeHint string) FetchResult {
	if c.Searcher == nil {
		c.warnOnce.Do(func() {
			log.Print("[Search] GEMINI_API_KEY not configured; search connector returns no results")
		})
		return Empty()
	}

	if rangeHint == "" {
		rangeHint = "últimos 15 dias"
	}

	text, err := c.Searcher.Search(ctx, buildInstruction(inst, rangeHint))
	if err != nil {
		// Quota, timeout, malformed response: all degrade to zero results.
		log.Printf("[Search] %s: %v", inst.Initials, err)
		return Empty()
	}

	text = strings.TrimSpace(text)
	if len(text) < minInformativeLen || strings.Contains(strings.ToLower(text), "nenhuma") {
		return Empty()
	}

	return Found(splitIntoOpportunities(text, inst))
}

// buildInstruction embeds institution, region, portal URL and the time-range
// constraint into the pt-BR search prompt.
func buildInstruction(inst models.Institution, rangeHint string) string {
	return fmt.Sprintf(`Verifique as licitações e oportunidades de negócio mais recentes para %s em %s.
URL de referência: %s.
FOCO TEMPORAL: Liste apenas oportunidades publicadas no(s) %s.
Se encontrar itens reais, retorne um resumo curtíssimo por item.
Se não houver nada no período de %s, responda apenas "Nenhuma oportunidade encontrada".`,
		inst.Name, inst.State, inst.URL, rangeHint, rangeHint)
}

// splitIntoOpportunities turns the free text into one record per informative
// line. If no line survives the length filter, the whole text becomes a single
// record so the finding is never silently dropped.
func splitIntoOpportunities(text string, inst models.Institution) []models.Opportunity {
	today := time.Now().Format("02/01/2006")

	var items []models.Opportunity
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if len(line) < minInformativeLen {
			continue
		}
		items = append(items, models.Opportunity{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Oportunidade %d em %s", len(items)+1, inst.Name),
			Date:        today,
			Description: line,
			Link:        inst.URL,
			Institution: inst.Name,
			IsNew:       true,
		})
	}

	if len(items) == 0 {
		items = append(items, models.Opportunity{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Oportunidade em %s", inst.Name),
			Date:        today,
			Description: text,
			Link:        inst.URL,
			Institution: inst.Name,
			IsNew:       true,
		})
	}

	return items
}
