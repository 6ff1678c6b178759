package radar

import (
	"context"

	"github.com/google/uuid"

	"licitaradar/internal/models"
)

// StubConnector handles institutions without any configured source. It always
// returns exactly one synthetic status record so every scanned card shows
// something and downstream rendering never special-cases "no connector".
type StubConnector struct{}

func (s *StubConnector) Name() string { return "not_configured" }

func (s *StubConnector) Fetch(_ context.Context, inst models.Institution, _ string) FetchResult {
	return FetchResult{
		Outcome: OutcomeFound,
		Items: []models.Opportunity{
			{
				ID:          uuid.NewString(),
				Title:       "Fonte não configurada",
				Date:        "",
				Description: "Nenhum conector cadastrado para " + inst.Initials + ". Consulte o portal diretamente.",
				Link:        "#",
				Institution: inst.Name,
				IsNew:       false,
			},
		},
	}
}
