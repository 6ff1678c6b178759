package radar

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"licitaradar/internal/models"
)

const maxDescriptionLen = 600

// errorPlaceholderTitle marks the synthetic record a failed fetch leaves on
// the card. Its presence is what distinguishes "failed" from "nothing found":
// a legitimate zero-result scan stores an empty list instead.
const errorPlaceholderTitle = "Erro de conexão"

var strictPolicy = bluemonday.StrictPolicy()

// NormalizeResult converts a connector's tagged result into the uniform
// opportunity list that gets merged into lastResults. This is the only place
// placeholder records are synthesized.
func NormalizeResult(res FetchResult, inst models.Institution) []models.Opportunity {
	switch res.Outcome {
	case OutcomeFound:
		items := make([]models.Opportunity, 0, len(res.Items))
		for _, item := range res.Items {
			items = append(items, normalizeItem(item, inst))
		}
		return items

	case OutcomeFailed:
		return []models.Opportunity{
			{
				ID:          uuid.NewString(),
				Title:       errorPlaceholderTitle,
				Date:        "",
				Description: "Não foi possível consultar a fonte de " + inst.Initials + ". Tente novamente mais tarde.",
				Link:        inst.URL,
				Institution: inst.Name,
				IsNew:       false,
			},
		}

	default:
		// Empty: "scanned, nothing found" is an empty list, not a placeholder.
		return []models.Opportunity{}
	}
}

func normalizeItem(item models.Opportunity, inst models.Institution) models.Opportunity {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Institution == "" {
		item.Institution = inst.Name
	}
	if item.Link == "" {
		item.Link = inst.URL
	}

	item.Title = sanitizeText(item.Title)
	item.Description = truncateText(sanitizeText(item.Description), maxDescriptionLen)
	item.Date = cleanText(item.Date)

	return item
}

// sanitizeText strips markup from text that may carry HTML fragments (scraped
// listings, AI output quoting page content) and collapses whitespace. The
// sanitizer runs first so script and style bodies are dropped entirely; the
// text pass afterwards resolves the entities the sanitizer escapes.
func sanitizeText(s string) string {
	if strings.ContainsAny(s, "<>") {
		s = htmlToText(strictPolicy.Sanitize(s))
	}
	return cleanText(s)
}

// htmlToText converts HTML to plain text. Falls back to the original string
// if parsing fails.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

// cleanText collapses runs of whitespace into single spaces and trims.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateText cuts a string to max length, appending ellipsis if truncated.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}

// truncate is a no-ellipsis variant for log messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
